package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jamesincognito/signal-dashboard/internal/utils"
)

// respondError maps the service error taxonomy onto HTTP statuses. Anything
// unrecognized is a 500 with a generic body; the detail goes to the log,
// not the client.
func respondError(c *gin.Context, err error) {
	switch {
	case utils.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case utils.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case utils.IsConflictError(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case utils.IsFetchError(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		logrus.WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

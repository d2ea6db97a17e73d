package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jamesincognito/signal-dashboard/internal/database"
	"github.com/jamesincognito/signal-dashboard/internal/models"
	"github.com/jamesincognito/signal-dashboard/internal/utils"
)

// SourceHandler serves the news-source registry.
type SourceHandler struct {
	sources *database.SourceRepository
}

// NewSourceHandler creates the source handler.
func NewSourceHandler(sources *database.SourceRepository) *SourceHandler {
	return &SourceHandler{sources: sources}
}

// ListSources handles GET /api/v1/sources.
func (h *SourceHandler) ListSources(c *gin.Context) {
	enabledOnly := c.Query("enabled") == "true"
	sources, err := h.sources.List(c.Request.Context(), enabledOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sources": sources, "count": len(sources)})
}

// CreateSource handles POST /api/v1/sources.
func (h *SourceHandler) CreateSource(c *gin.Context) {
	var req models.SourceCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, utils.NewValidationError(err.Error()))
		return
	}

	source, err := h.sources.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, source)
}

// UpdateSource handles PUT /api/v1/sources/:id.
func (h *SourceHandler) UpdateSource(c *gin.Context) {
	id, err := parseSourceID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req models.SourceUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, utils.NewValidationError(err.Error()))
		return
	}

	source, err := h.sources.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, source)
}

// DeleteSource handles DELETE /api/v1/sources/:id. Signals derived from
// the source keep their provenance fields.
func (h *SourceHandler) DeleteSource(c *gin.Context) {
	id, err := parseSourceID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.sources.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func parseSourceID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, utils.NewValidationErrorf("source id must be an integer, got %q", c.Param("id"))
	}
	return id, nil
}

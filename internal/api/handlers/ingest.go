package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jamesincognito/signal-dashboard/internal/database"
	"github.com/jamesincognito/signal-dashboard/internal/services"
	"github.com/jamesincognito/signal-dashboard/internal/utils"
)

// IngestHandler exposes manual pipeline triggers and backlog status.
type IngestHandler struct {
	ingestion *services.IngestionService
	scheduler *services.Scheduler
	articles  *database.ArticleRepository
}

// NewIngestHandler creates the ingest handler.
func NewIngestHandler(ingestion *services.IngestionService, scheduler *services.Scheduler, articles *database.ArticleRepository) *IngestHandler {
	return &IngestHandler{ingestion: ingestion, scheduler: scheduler, articles: articles}
}

// RunIngestion handles POST /api/v1/ingest/run. It runs the news pipeline
// synchronously through the same single-flight path as the scheduler.
func (h *IngestHandler) RunIngestion(c *gin.Context) {
	summary, err := h.scheduler.TriggerNews(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// RefreshAll handles POST /api/v1/ingest/refresh: both pipelines under one
// long deadline.
func (h *IngestHandler) RefreshAll(c *gin.Context) {
	news, data, err := h.scheduler.RefreshAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"news": news, "data": data})
}

// GetStatus handles GET /api/v1/ingest/status.
func (h *IngestHandler) GetStatus(c *gin.Context) {
	status, err := h.ingestion.Status(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// ListArticles handles GET /api/v1/articles.
func (h *IngestHandler) ListArticles(c *gin.Context) {
	limit, err := parseIntParam(c.Query("limit"), 50)
	if err != nil {
		respondError(c, err)
		return
	}
	offset, err := parseIntParam(c.Query("offset"), 0)
	if err != nil {
		respondError(c, err)
		return
	}
	if limit == 0 || limit > 200 {
		respondError(c, utils.NewValidationErrorf("limit must be between 1 and 200, got %d", limit))
		return
	}

	articles, err := h.articles.ListRecent(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": articles, "count": len(articles)})
}

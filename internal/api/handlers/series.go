package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jamesincognito/signal-dashboard/internal/database"
	"github.com/jamesincognito/signal-dashboard/internal/models"
	"github.com/jamesincognito/signal-dashboard/internal/services"
	"github.com/jamesincognito/signal-dashboard/internal/theses"
	"github.com/jamesincognito/signal-dashboard/internal/utils"
)

// defaultPointsDays bounds the raw-points listing when no range is given.
const defaultPointsDays = 365

// SeriesHandler serves data-series definitions, observations, and fetch
// triggers.
type SeriesHandler struct {
	series    *database.SeriesRepository
	data      *services.DataService
	scheduler *services.Scheduler
	catalog   *theses.Catalog
	dashboard *DashboardHandler
}

// NewSeriesHandler creates the series handler.
func NewSeriesHandler(
	series *database.SeriesRepository,
	data *services.DataService,
	scheduler *services.Scheduler,
	catalog *theses.Catalog,
	dashboard *DashboardHandler,
) *SeriesHandler {
	return &SeriesHandler{
		series:    series,
		data:      data,
		scheduler: scheduler,
		catalog:   catalog,
		dashboard: dashboard,
	}
}

// ListSeries handles GET /api/v1/data-series.
func (h *SeriesHandler) ListSeries(c *gin.Context) {
	list, err := h.series.List(c.Request.Context(), c.Query("thesis_id"), c.Query("enabled") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"series": list, "count": len(list)})
}

// ListByThesis handles GET /api/v1/data-series/by-thesis/:thesis_id and
// returns normalized snapshots: points, latest/previous values, change
// percentage and the smoothed curve.
func (h *SeriesHandler) ListByThesis(c *gin.Context) {
	thesisID := c.Param("thesis_id")
	if !h.catalog.Valid(thesisID) {
		respondError(c, utils.NewNotFoundError("thesis", thesisID))
		return
	}

	snapshots, err := h.data.SnapshotsForThesis(c.Request.Context(), thesisID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"series": snapshots, "count": len(snapshots)})
}

// GetPoints handles GET /api/v1/data-series/:id/points. A days parameter
// bounds the range; latest=n returns the newest n observations instead.
func (h *SeriesHandler) GetPoints(c *gin.Context) {
	id := c.Param("id")

	days, err := parseIntParam(c.Query("days"), defaultPointsDays)
	if err != nil {
		respondError(c, err)
		return
	}
	if days == 0 {
		days = defaultPointsDays
	}
	latest, err := parseIntParam(c.Query("latest"), 0)
	if err != nil {
		respondError(c, err)
		return
	}

	if _, err := h.series.Get(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	var points []models.DataPoint
	if latest > 0 {
		points, err = h.series.LatestPoints(c.Request.Context(), id, latest)
	} else {
		points, err = h.series.Points(c.Request.Context(), id, time.Now().UTC().AddDate(0, 0, -days))
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"series_id": id, "points": points, "count": len(points)})
}

// CreateSeries handles POST /api/v1/data-series.
func (h *SeriesHandler) CreateSeries(c *gin.Context) {
	var req models.DataSeriesCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, utils.NewValidationError(err.Error()))
		return
	}
	if !h.catalog.Valid(req.ThesisID) {
		respondError(c, utils.NewValidationErrorf("unknown thesis id: %q", req.ThesisID))
		return
	}

	series, err := h.series.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, series)
}

// UpdateSeries handles PUT /api/v1/data-series/:id.
func (h *SeriesHandler) UpdateSeries(c *gin.Context) {
	var req models.DataSeriesUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, utils.NewValidationError(err.Error()))
		return
	}

	series, err := h.series.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

// DeleteSeries handles DELETE /api/v1/data-series/:id.
func (h *SeriesHandler) DeleteSeries(c *gin.Context) {
	id := c.Param("id")
	if err := h.series.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// FetchSeries handles POST /api/v1/data-series/fetch. With an id query
// parameter it refreshes one series and returns its snapshot; without one
// it runs the full data pipeline.
func (h *SeriesHandler) FetchSeries(c *gin.Context) {
	ctx := c.Request.Context()

	if id := c.Query("id"); id != "" {
		snapshot, err := h.data.FetchSeries(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		h.dashboard.Invalidate()
		c.JSON(http.StatusOK, snapshot)
		return
	}

	summary, err := h.scheduler.TriggerData(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

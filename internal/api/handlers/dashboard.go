package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jamesincognito/signal-dashboard/internal/config"
	"github.com/jamesincognito/signal-dashboard/internal/database"
	"github.com/jamesincognito/signal-dashboard/internal/models"
	"github.com/jamesincognito/signal-dashboard/internal/services"
	"github.com/jamesincognito/signal-dashboard/internal/theses"
	"github.com/jamesincognito/signal-dashboard/internal/utils"
)

const dashboardCacheKey = "dashboard:snapshot"

// DashboardHandler serves computed dashboard views with a short Redis
// cache in front. Only the default window is cached; custom windows are
// computed per request.
type DashboardHandler struct {
	aggregation *services.AggregationService
	catalog     *theses.Catalog
	redis       *database.RedisClient
	cfg         config.AggregationConfig
}

// NewDashboardHandler creates the dashboard handler.
func NewDashboardHandler(aggregation *services.AggregationService, catalog *theses.Catalog, redis *database.RedisClient, cfg config.AggregationConfig) *DashboardHandler {
	return &DashboardHandler{
		aggregation: aggregation,
		catalog:     catalog,
		redis:       redis,
		cfg:         cfg,
	}
}

// GetDashboard handles GET /api/v1/dashboard?days=
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 365 {
			respondError(c, utils.NewValidationErrorf("days must be an integer between 1 and 365, got %q", raw))
			return
		}
		days = parsed
	}

	ctx := c.Request.Context()

	if days == 0 {
		if cached, ok := h.getCached(ctx); ok {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	snapshot, err := h.aggregation.Snapshot(ctx, days)
	if err != nil {
		respondError(c, err)
		return
	}

	if days == 0 {
		h.setCached(ctx, snapshot)
	}
	c.JSON(http.StatusOK, snapshot)
}

// GetThesisDashboard handles GET /api/v1/dashboard/:thesis_id
func (h *DashboardHandler) GetThesisDashboard(c *gin.Context) {
	thesisID := c.Param("thesis_id")
	thesis, ok := h.catalog.Get(thesisID)
	if !ok {
		respondError(c, utils.NewNotFoundError("thesis", thesisID))
		return
	}

	dashboard, err := h.aggregation.ThesisDashboard(c.Request.Context(), thesis, 0)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// ListTheses handles GET /api/v1/theses
func (h *DashboardHandler) ListTheses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"theses": h.catalog.All()})
}

// Invalidate drops the cached snapshot. Called whenever a pipeline run or
// a mutating API call changes the signal store.
func (h *DashboardHandler) Invalidate() {
	if h.redis == nil {
		return
	}
	if err := h.redis.Delete(context.Background(), dashboardCacheKey); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate dashboard cache")
	}
}

func (h *DashboardHandler) getCached(ctx context.Context) (*models.DashboardSnapshot, bool) {
	if h.redis == nil {
		return nil, false
	}
	raw, err := h.redis.Get(ctx, dashboardCacheKey)
	if err != nil {
		return nil, false
	}
	var snapshot models.DashboardSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, false
	}
	return &snapshot, true
}

func (h *DashboardHandler) setCached(ctx context.Context, snapshot *models.DashboardSnapshot) {
	if h.redis == nil {
		return
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, dashboardCacheKey, string(data), config.Duration(h.cfg.DashboardCacheTTL)); err != nil {
		logrus.WithError(err).Warn("Failed to cache dashboard snapshot")
	}
}

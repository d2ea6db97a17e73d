package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jamesincognito/signal-dashboard/internal/database"
	"github.com/jamesincognito/signal-dashboard/internal/models"
	"github.com/jamesincognito/signal-dashboard/internal/theses"
	"github.com/jamesincognito/signal-dashboard/internal/utils"
)

// manualSignalConfidence applies to operator-entered signals. A human
// stating the evidence directly is the highest-trust origin.
const manualSignalConfidence = 1.0

// SignalHandler serves the signal log and manual entry.
type SignalHandler struct {
	signals   *database.SignalRepository
	catalog   *theses.Catalog
	dashboard *DashboardHandler
}

// NewSignalHandler creates the signal handler.
func NewSignalHandler(signals *database.SignalRepository, catalog *theses.Catalog, dashboard *DashboardHandler) *SignalHandler {
	return &SignalHandler{signals: signals, catalog: catalog, dashboard: dashboard}
}

// ListSignals handles GET /api/v1/signals with optional filters.
func (h *SignalHandler) ListSignals(c *gin.Context) {
	filter := models.SignalFilter{
		ThesisID:  c.Query("thesis_id"),
		Direction: c.Query("direction"),
		Origin:    c.Query("origin"),
	}

	if filter.ThesisID != "" && !h.catalog.Valid(filter.ThesisID) {
		respondError(c, utils.NewValidationErrorf("unknown thesis id: %q", filter.ThesisID))
		return
	}
	if filter.Direction != "" {
		if _, err := models.ParseSignalDirection(filter.Direction); err != nil {
			respondError(c, utils.NewValidationError(err.Error()))
			return
		}
	}
	if filter.Origin != "" {
		if _, err := models.ParseSignalOrigin(filter.Origin); err != nil {
			respondError(c, utils.NewValidationError(err.Error()))
			return
		}
	}

	var err error
	if filter.DateFrom, err = parseDateParam(c.Query("date_from")); err != nil {
		respondError(c, err)
		return
	}
	if filter.DateTo, err = parseDateParam(c.Query("date_to")); err != nil {
		respondError(c, err)
		return
	}
	if filter.Limit, err = parseIntParam(c.Query("limit"), 50); err != nil {
		respondError(c, err)
		return
	}
	if filter.Offset, err = parseIntParam(c.Query("offset"), 0); err != nil {
		respondError(c, err)
		return
	}

	signals, err := h.signals.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"signals": signals,
		"count":   len(signals),
	})
}

// CreateManualSignal handles POST /api/v1/signals/manual.
func (h *SignalHandler) CreateManualSignal(c *gin.Context) {
	var req models.ManualSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, utils.NewValidationError(err.Error()))
		return
	}

	if !h.catalog.Valid(req.ThesisID) {
		respondError(c, utils.NewValidationErrorf("unknown thesis id: %q", req.ThesisID))
		return
	}
	direction, err := models.ParseSignalDirection(req.Direction)
	if err != nil {
		respondError(c, utils.NewValidationError(err.Error()))
		return
	}

	signalDate := time.Now().UTC()
	if req.SignalDate != nil && *req.SignalDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.SignalDate)
		if err != nil {
			respondError(c, utils.NewValidationErrorf("signal_date must be YYYY-MM-DD, got %q", *req.SignalDate))
			return
		}
		signalDate = parsed
	}

	signal := &models.Signal{
		ThesisID:      req.ThesisID,
		Origin:        models.OriginManual,
		Direction:     direction,
		Strength:      req.Strength,
		Confidence:    manualSignalConfidence,
		EvidenceQuote: req.EvidenceQuote,
		Reasoning:     req.Reasoning,
		SourceTitle:   req.SourceTitle,
		SourceURL:     req.SourceURL,
		SignalDate:    signalDate,
		IsManual:      true,
	}

	stored, err := h.signals.Insert(c.Request.Context(), signal)
	if err != nil {
		respondError(c, err)
		return
	}

	h.dashboard.Invalidate()
	c.JSON(http.StatusCreated, stored)
}

// DeleteSignal handles DELETE /api/v1/signals/:id.
func (h *SignalHandler) DeleteSignal(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, utils.NewValidationErrorf("signal id must be an integer, got %q", c.Param("id")))
		return
	}

	if err := h.signals.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	h.dashboard.Invalidate()
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func parseDateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, utils.NewValidationErrorf("date must be YYYY-MM-DD, got %q", raw)
	}
	return &t, nil
}

func parseIntParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, utils.NewValidationErrorf("expected a non-negative integer, got %q", raw)
	}
	return v, nil
}

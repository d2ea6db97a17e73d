package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesincognito/signal-dashboard/internal/config"
	"github.com/jamesincognito/signal-dashboard/internal/theses"
)

func testAggregationConfig() config.AggregationConfig {
	return config.AggregationConfig{
		WindowDays:        30,
		LookbackDays:      30,
		DashboardCacheTTL: "60s",
	}
}

// Validation paths reject before any repository call, so nil dependencies
// are safe here.
func validationRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	catalog := theses.Default()
	dashboard := NewDashboardHandler(nil, catalog, nil, testAggregationConfig())
	signals := NewSignalHandler(nil, catalog, dashboard)
	series := NewSeriesHandler(nil, nil, nil, catalog, dashboard)

	router := gin.New()
	router.GET("/dashboard", dashboard.GetDashboard)
	router.GET("/theses", dashboard.ListTheses)
	router.GET("/signals", signals.ListSignals)
	router.POST("/signals/manual", signals.CreateManualSignal)
	router.DELETE("/signals/:id", signals.DeleteSignal)
	router.POST("/data-series", series.CreateSeries)
	router.GET("/data-series/:id/points", series.GetPoints)
	return router
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(w, req)
	return w
}

func TestListTheses(t *testing.T) {
	router := validationRouter()
	w := doJSON(router, http.MethodGet, "/theses", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Theses []theses.Thesis `json:"theses"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Theses, 3)
}

func TestGetDashboard_RejectsBadDays(t *testing.T) {
	router := validationRouter()

	assert.Equal(t, http.StatusBadRequest, doJSON(router, http.MethodGet, "/dashboard?days=soon", "").Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(router, http.MethodGet, "/dashboard?days=0", "").Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(router, http.MethodGet, "/dashboard?days=9999", "").Code)
}

func TestListSignals_RejectsBadFilters(t *testing.T) {
	router := validationRouter()

	assert.Equal(t, http.StatusBadRequest, doJSON(router, http.MethodGet, "/signals?thesis_id=unknown_thesis", "").Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(router, http.MethodGet, "/signals?direction=sideways", "").Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(router, http.MethodGet, "/signals?origin=telepathy", "").Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(router, http.MethodGet, "/signals?date_from=yesterday", "").Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(router, http.MethodGet, "/signals?limit=-5", "").Code)
}

func TestCreateManualSignal_Validation(t *testing.T) {
	router := validationRouter()

	// Missing required fields.
	assert.Equal(t, http.StatusBadRequest,
		doJSON(router, http.MethodPost, "/signals/manual", `{}`).Code)

	// Unknown thesis.
	assert.Equal(t, http.StatusBadRequest, doJSON(router, http.MethodPost, "/signals/manual",
		`{"thesis_id":"nope","direction":"supporting","strength":5,"evidence_quote":"q","reasoning":"r"}`).Code)

	// Bad direction.
	assert.Equal(t, http.StatusBadRequest, doJSON(router, http.MethodPost, "/signals/manual",
		`{"thesis_id":"ai_deflation","direction":"up","strength":5,"evidence_quote":"q","reasoning":"r"}`).Code)

	// Bad date format.
	assert.Equal(t, http.StatusBadRequest, doJSON(router, http.MethodPost, "/signals/manual",
		`{"thesis_id":"ai_deflation","direction":"supporting","strength":5,"evidence_quote":"q","reasoning":"r","signal_date":"20-08-2026"}`).Code)
}

func TestDeleteSignal_RejectsBadID(t *testing.T) {
	router := validationRouter()
	assert.Equal(t, http.StatusBadRequest, doJSON(router, http.MethodDelete, "/signals/abc", "").Code)
}

func TestGetPoints_RejectsBadParams(t *testing.T) {
	router := validationRouter()

	assert.Equal(t, http.StatusBadRequest, doJSON(router, http.MethodGet, "/data-series/fred_icsa/points?days=soon", "").Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(router, http.MethodGet, "/data-series/fred_icsa/points?latest=-1", "").Code)
}

func TestCreateSeries_RejectsUnknownThesis(t *testing.T) {
	router := validationRouter()
	assert.Equal(t, http.StatusBadRequest, doJSON(router, http.MethodPost, "/data-series",
		`{"id":"s1","thesis_id":"nope","name":"n","provider":"fred","config":"{}","direction_logic":"higher_supporting"}`).Code)
}

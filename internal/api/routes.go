package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jamesincognito/signal-dashboard/internal/api/handlers"
	"github.com/jamesincognito/signal-dashboard/internal/config"
	"github.com/jamesincognito/signal-dashboard/internal/database"
	"github.com/jamesincognito/signal-dashboard/internal/middleware"
	"github.com/jamesincognito/signal-dashboard/internal/services"
	"github.com/jamesincognito/signal-dashboard/internal/theses"
)

// HealthResponse reports service health for load balancers and humans.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Services  Services  `json:"services"`
}

type Services struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

// Dependencies carries everything the route table needs.
type Dependencies struct {
	DB          *database.PostgresDB
	Redis       *database.RedisClient
	Sources     *database.SourceRepository
	Articles    *database.ArticleRepository
	Signals     *database.SignalRepository
	Series      *database.SeriesRepository
	Aggregation *services.AggregationService
	Data        *services.DataService
	Ingestion   *services.IngestionService
	Scheduler   *services.Scheduler
	Catalog     *theses.Catalog
	Config      *config.Config
}

// SetupRoutes wires the full route table. Mutating endpoints sit behind the
// API-key gate; reads are open.
func SetupRoutes(router *gin.Engine, deps Dependencies) *handlers.DashboardHandler {
	router.Use(middleware.CORS(deps.Config.Server.AllowedOrigins))

	auth := middleware.NewAuthMiddleware(deps.Config.Server.APIKey)

	dashboardHandler := handlers.NewDashboardHandler(deps.Aggregation, deps.Catalog, deps.Redis, deps.Config.Aggregation)
	signalHandler := handlers.NewSignalHandler(deps.Signals, deps.Catalog, dashboardHandler)
	sourceHandler := handlers.NewSourceHandler(deps.Sources)
	seriesHandler := handlers.NewSeriesHandler(deps.Series, deps.Data, deps.Scheduler, deps.Catalog, dashboardHandler)
	ingestHandler := handlers.NewIngestHandler(deps.Ingestion, deps.Scheduler, deps.Articles)

	router.GET("/health", healthCheck(deps.DB, deps.Redis))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/dashboard", dashboardHandler.GetDashboard)
		v1.GET("/dashboard/:thesis_id", dashboardHandler.GetThesisDashboard)
		v1.GET("/theses", dashboardHandler.ListTheses)

		signals := v1.Group("/signals")
		{
			signals.GET("", signalHandler.ListSignals)
			signals.POST("/manual", auth.RequireAPIKey(), signalHandler.CreateManualSignal)
			signals.DELETE("/:id", auth.RequireAPIKey(), signalHandler.DeleteSignal)
		}

		sources := v1.Group("/sources")
		{
			sources.GET("", sourceHandler.ListSources)
			sources.POST("", auth.RequireAPIKey(), sourceHandler.CreateSource)
			sources.PUT("/:id", auth.RequireAPIKey(), sourceHandler.UpdateSource)
			sources.DELETE("/:id", auth.RequireAPIKey(), sourceHandler.DeleteSource)
		}

		series := v1.Group("/data-series")
		{
			series.GET("", seriesHandler.ListSeries)
			series.GET("/by-thesis/:thesis_id", seriesHandler.ListByThesis)
			series.GET("/:id/points", seriesHandler.GetPoints)
			series.POST("", auth.RequireAPIKey(), seriesHandler.CreateSeries)
			series.PUT("/:id", auth.RequireAPIKey(), seriesHandler.UpdateSeries)
			series.DELETE("/:id", auth.RequireAPIKey(), seriesHandler.DeleteSeries)
			series.POST("/fetch", auth.RequireAPIKey(), seriesHandler.FetchSeries)
		}

		ingest := v1.Group("/ingest")
		{
			ingest.POST("/run", auth.RequireAPIKey(), ingestHandler.RunIngestion)
			ingest.POST("/refresh", auth.RequireAPIKey(), ingestHandler.RefreshAll)
			ingest.GET("/status", ingestHandler.GetStatus)
		}

		v1.GET("/articles", ingestHandler.ListArticles)
	}

	return dashboardHandler
}

func healthCheck(db *database.PostgresDB, redis *database.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now(),
			Version:   "1.0.0",
			Services: Services{
				Database: "ok",
				Redis:    "ok",
			},
		}

		if err := db.HealthCheck(c.Request.Context()); err != nil {
			response.Services.Database = "error"
			response.Status = "degraded"
		}
		if err := redis.HealthCheck(c.Request.Context()); err != nil {
			response.Services.Redis = "error"
			response.Status = "degraded"
		}

		statusCode := http.StatusOK
		if response.Status == "degraded" {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, response)
	}
}

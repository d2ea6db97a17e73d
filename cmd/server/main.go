package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jamesincognito/signal-dashboard/internal/api"
	"github.com/jamesincognito/signal-dashboard/internal/config"
	"github.com/jamesincognito/signal-dashboard/internal/database"
	"github.com/jamesincognito/signal-dashboard/internal/services"
	"github.com/jamesincognito/signal-dashboard/internal/telemetry"
	"github.com/jamesincognito/signal-dashboard/pkg/extractor"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	tp, err := telemetry.Init(cfg.Environment)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(); err != nil {
			logger.WithError(err).Warn("Telemetry shutdown failed")
		}
	}()

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := database.InitSchema(ctx, db.Pool); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := database.SeedSources(ctx, db.Pool); err != nil {
		return fmt.Errorf("failed to seed sources: %w", err)
	}
	if err := database.SeedDataSeries(ctx, db.Pool); err != nil {
		return fmt.Errorf("failed to seed data series: %w", err)
	}

	redis, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redis.Close()

	catalog := cfg.Catalog()

	sourceRepo := database.NewSourceRepository(db.Pool)
	articleRepo := database.NewArticleRepository(db.Pool)
	signalRepo := database.NewSignalRepository(db.Pool)
	seriesRepo := database.NewSeriesRepository(db.Pool)

	extractorClient := extractor.NewClient(extractor.Config{
		APIKey:    cfg.Extraction.APIKey,
		BaseURL:   cfg.Extraction.BaseURL,
		Model:     cfg.Extraction.Model,
		MaxTokens: cfg.Extraction.MaxTokens,
		Timeout:   config.Duration(cfg.Extraction.Timeout),
	})
	if !extractorClient.Enabled() {
		logger.Warn("Extraction API key not configured; articles will stay pending")
	}

	fetchTimeout := config.Duration(cfg.Ingestion.FetchTimeout)
	fetcher := services.NewFeedFetcher(cfg.NewsAPI, fetchTimeout, logger)
	extraction := services.NewExtractionService(extractorClient, catalog, logger)
	ingestion := services.NewIngestionService(sourceRepo, articleRepo, signalRepo, fetcher, extraction, cfg.Ingestion, logger)

	providers := services.NewProviderClients(cfg.Providers, fetchTimeout)
	generator := services.NewDataSignalGenerator(signalRepo, logger)
	dataService := services.NewDataService(seriesRepo, providers, generator, cfg.Ingestion, cfg.Aggregation, logger)

	aggregation := services.NewAggregationService(signalRepo, articleRepo, sourceRepo, catalog, cfg.Aggregation, logger)
	scheduler := services.NewScheduler(ingestion, dataService, cfg.Ingestion, logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(telemetry.ServiceName))

	dashboardHandler := api.SetupRoutes(router, api.Dependencies{
		DB:          db,
		Redis:       redis,
		Sources:     sourceRepo,
		Articles:    articleRepo,
		Signals:     signalRepo,
		Series:      seriesRepo,
		Aggregation: aggregation,
		Data:        dataService,
		Ingestion:   ingestion,
		Scheduler:   scheduler,
		Catalog:     catalog,
		Config:      cfg,
	})

	// Pipeline runs change scores; drop the cached dashboard when one ends.
	scheduler.OnComplete(dashboardHandler.Invalidate)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.WithField("signal", sig.String()).Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

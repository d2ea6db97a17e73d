package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jamesincognito/signal-dashboard/internal/config"
	"github.com/jamesincognito/signal-dashboard/internal/database"
	"github.com/jamesincognito/signal-dashboard/internal/models"
	"github.com/jamesincognito/signal-dashboard/internal/utils"
)

// SeriesResult is the per-series outcome of one data-pipeline run.
type SeriesResult struct {
	SeriesID  string `json:"series_id"`
	Fetched   int    `json:"fetched"`
	NewPoints int    `json:"new_points"`
	Signal    bool   `json:"signal_generated"`
	Error     string `json:"error,omitempty"`
}

// DataRunSummary reports one full data-pipeline run.
type DataRunSummary struct {
	RunID          string         `json:"run_id"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
	Series         []SeriesResult `json:"series"`
	PointsUpserted int            `json:"points_upserted"`
	SignalsCreated int            `json:"signals_created"`
	Errors         int            `json:"errors"`
}

// DataService runs the structured-data pipeline: fetch every enabled series
// from its provider, upsert observations, then derive signals from the
// normalized movement.
type DataService struct {
	series    *database.SeriesRepository
	providers map[models.DataProvider]DataProviderClient
	generator *DataSignalGenerator
	ingestCfg config.IngestionConfig
	aggCfg    config.AggregationConfig
	logger    *logrus.Logger
}

// NewDataService wires the data pipeline together.
func NewDataService(
	series *database.SeriesRepository,
	providers map[models.DataProvider]DataProviderClient,
	generator *DataSignalGenerator,
	ingestCfg config.IngestionConfig,
	aggCfg config.AggregationConfig,
	logger *logrus.Logger,
) *DataService {
	return &DataService{
		series:    series,
		providers: providers,
		generator: generator,
		ingestCfg: ingestCfg,
		aggCfg:    aggCfg,
		logger:    logger,
	}
}

// Run executes one pipeline pass across every enabled series. Provider
// failures are isolated per series, exactly like source failures in the
// news pipeline.
func (s *DataService) Run(ctx context.Context) (*DataRunSummary, error) {
	summary := &DataRunSummary{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}

	log := s.logger.WithField("run_id", summary.RunID)
	log.Info("Starting data run")

	list, err := s.series.List(ctx, "", true)
	if err != nil {
		return nil, err
	}

	results := make([]SeriesResult, len(list))
	sem := make(chan struct{}, s.ingestCfg.Concurrency)
	done := make(chan int, len(list))

	for i := range list {
		go func(idx int) {
			sem <- struct{}{}
			defer func() {
				<-sem
				done <- idx
			}()
			results[idx] = s.refreshSeries(ctx, list[idx])
		}(i)
	}
	for range list {
		<-done
	}

	for _, r := range results {
		summary.Series = append(summary.Series, r)
		summary.PointsUpserted += r.NewPoints
		if r.Signal {
			summary.SignalsCreated++
		}
		if r.Error != "" {
			summary.Errors++
		}
	}

	summary.FinishedAt = time.Now().UTC()
	log.WithFields(logrus.Fields{
		"series":          len(summary.Series),
		"points_upserted": summary.PointsUpserted,
		"signals_created": summary.SignalsCreated,
		"errors":          summary.Errors,
		"duration":        summary.FinishedAt.Sub(summary.StartedAt).String(),
	}).Info("Data run complete")

	return summary, nil
}

// FetchSeries refreshes a single series on demand and returns its fresh
// snapshot. This backs the API's per-series fetch trigger.
func (s *DataService) FetchSeries(ctx context.Context, id string) (*models.SeriesSnapshot, error) {
	series, err := s.series.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if result := s.refreshSeries(ctx, *series); result.Error != "" {
		return nil, utils.NewFetchError(id, contextualError{result.Error})
	}
	return s.Snapshot(ctx, id)
}

// Snapshot returns the normalized view of a series from stored points only,
// without touching the provider.
func (s *DataService) Snapshot(ctx context.Context, id string) (*models.SeriesSnapshot, error) {
	series, err := s.series.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	points, err := s.series.Points(ctx, id, time.Now().UTC().Add(-observationHistory))
	if err != nil {
		return nil, err
	}
	snap := BuildSnapshot(*series, points, s.aggCfg.LookbackDays)
	return &snap, nil
}

// SnapshotsForThesis returns the normalized view of every series bound to
// one thesis.
func (s *DataService) SnapshotsForThesis(ctx context.Context, thesisID string) ([]models.SeriesSnapshot, error) {
	list, err := s.series.List(ctx, thesisID, false)
	if err != nil {
		return nil, err
	}
	snapshots := make([]models.SeriesSnapshot, 0, len(list))
	for _, series := range list {
		points, err := s.series.Points(ctx, series.ID, time.Now().UTC().Add(-observationHistory))
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, BuildSnapshot(series, points, s.aggCfg.LookbackDays))
	}
	return snapshots, nil
}

func (s *DataService) refreshSeries(ctx context.Context, series models.DataSeries) SeriesResult {
	result := SeriesResult{SeriesID: series.ID}

	provider, ok := s.providers[series.Provider]
	if !ok {
		result.Error = "no client registered for provider " + string(series.Provider)
		return result
	}

	fetchCtx, cancel := context.WithTimeout(ctx, config.Duration(s.ingestCfg.FetchTimeout))
	defer cancel()

	observations, err := provider.FetchObservations(fetchCtx, series)
	if err != nil {
		result.Error = err.Error()
		s.logger.WithFields(logrus.Fields{
			"series": series.ID,
			"error":  err,
		}).Warn("Series fetch failed")
		return result
	}

	result.Fetched = len(observations)
	for _, obs := range observations {
		inserted, err := s.series.UpsertPoint(ctx, series.ID, obs.Date, obs.Value)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		if inserted {
			result.NewPoints++
		}
	}

	if err := s.series.MarkFetched(ctx, series.ID, time.Now().UTC()); err != nil {
		s.logger.WithField("series", series.ID).WithError(err).Warn("Failed to mark series fetched")
	}

	points, err := s.series.Points(ctx, series.ID, time.Now().UTC().Add(-observationHistory))
	if err != nil {
		result.Error = err.Error()
		return result
	}

	snap := BuildSnapshot(series, points, s.aggCfg.LookbackDays)
	sig, err := s.generator.Generate(ctx, snap)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Signal = sig != nil
	return result
}

// contextualError carries a stringified per-series error back out of a
// SeriesResult.
type contextualError struct {
	msg string
}

func (e contextualError) Error() string {
	return e.msg
}

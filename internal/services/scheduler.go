package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jamesincognito/signal-dashboard/internal/config"
	"github.com/jamesincognito/signal-dashboard/internal/utils"
)

// Scheduler drives the two batch pipelines on independent intervals. Each
// pipeline is guarded by its own mutex so a manual API trigger and a timer
// tick can never run the same pipeline concurrently; the later caller gets
// a conflict instead of a queued duplicate run.
type Scheduler struct {
	ingestion *IngestionService
	data      *DataService
	cfg       config.IngestionConfig
	logger    *logrus.Logger

	newsMu sync.Mutex
	dataMu sync.Mutex

	cancel context.CancelFunc
	wg     sync.WaitGroup

	// onComplete runs after any pipeline finishes, successful or not.
	// The API layer hooks cache invalidation here.
	onComplete func()
}

// NewScheduler creates a scheduler over the two pipelines.
func NewScheduler(ingestion *IngestionService, data *DataService, cfg config.IngestionConfig, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		ingestion: ingestion,
		data:      data,
		cfg:       cfg,
		logger:    logger,
	}
}

// OnComplete registers a callback invoked after every pipeline run.
func (s *Scheduler) OnComplete(fn func()) {
	s.onComplete = fn
}

// Start launches the timer loops. Both pipelines also run once at startup
// so a fresh deployment has data before the first interval elapses.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(2)
	go s.loop(ctx, "news", config.Duration(s.cfg.NewsInterval), s.runNews)
	go s.loop(ctx, "data", config.Duration(s.cfg.DataInterval), s.runData)

	s.logger.WithFields(logrus.Fields{
		"news_interval": s.cfg.NewsInterval,
		"data_interval": s.cfg.DataInterval,
	}).Info("Scheduler started")
}

// Stop cancels the loops and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, run func(context.Context) error) {
	defer s.wg.Done()

	if err := run(ctx); err != nil && ctx.Err() == nil {
		s.logger.WithField("pipeline", name).WithError(err).Error("Initial pipeline run failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := run(ctx); err != nil && ctx.Err() == nil {
				s.logger.WithField("pipeline", name).WithError(err).Error("Pipeline run failed")
			}
		}
	}
}

func (s *Scheduler) runNews(ctx context.Context) error {
	_, err := s.TriggerNews(ctx)
	if utils.IsConflictError(err) {
		return nil
	}
	return err
}

func (s *Scheduler) runData(ctx context.Context) error {
	_, err := s.TriggerData(ctx)
	if utils.IsConflictError(err) {
		return nil
	}
	return err
}

// TriggerNews runs the news pipeline now. Manual triggers and timer ticks
// share this path. Returns a conflict when a run is already in flight.
func (s *Scheduler) TriggerNews(ctx context.Context) (*RunSummary, error) {
	if !s.newsMu.TryLock() {
		return nil, utils.NewConflictErrorf("news pipeline is already running")
	}
	defer s.newsMu.Unlock()
	defer s.notifyComplete()

	return s.ingestion.Run(ctx)
}

// TriggerData runs the data pipeline now, under the same single-flight rule.
func (s *Scheduler) TriggerData(ctx context.Context) (*DataRunSummary, error) {
	if !s.dataMu.TryLock() {
		return nil, utils.NewConflictErrorf("data pipeline is already running")
	}
	defer s.dataMu.Unlock()
	defer s.notifyComplete()

	return s.data.Run(ctx)
}

// RefreshAll runs both pipelines concurrently under one deadline. This
// backs the API's full-refresh trigger.
func (s *Scheduler) RefreshAll(ctx context.Context) (*RunSummary, *DataRunSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, config.Duration(s.cfg.RefreshTimeout))
	defer cancel()

	var (
		wg          sync.WaitGroup
		news        *RunSummary
		data        *DataRunSummary
		newsErr     error
		dataErr     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		news, newsErr = s.TriggerNews(ctx)
	}()
	go func() {
		defer wg.Done()
		data, dataErr = s.TriggerData(ctx)
	}()
	wg.Wait()

	if newsErr != nil {
		return news, data, newsErr
	}
	return news, data, dataErr
}

func (s *Scheduler) notifyComplete() {
	if s.onComplete != nil {
		s.onComplete()
	}
}

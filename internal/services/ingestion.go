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

// SourceResult is the per-source outcome of one ingestion run.
type SourceResult struct {
	SourceID   int64  `json:"source_id"`
	SourceName string `json:"source_name"`
	Fetched    int    `json:"fetched"`
	New        int    `json:"new"`
	Duplicate  int    `json:"duplicate"`
	Error      string `json:"error,omitempty"`
}

// RunSummary reports one full news-pipeline run: fetch, dedup, analysis.
type RunSummary struct {
	RunID            string         `json:"run_id"`
	StartedAt        time.Time      `json:"started_at"`
	FinishedAt       time.Time      `json:"finished_at"`
	Sources          []SourceResult `json:"sources"`
	ArticlesNew      int            `json:"articles_new"`
	ArticlesAnalyzed int            `json:"articles_analyzed"`
	ArticlesPruned   int64          `json:"articles_pruned"`
	SignalsCreated   int            `json:"signals_created"`
	Errors           int            `json:"errors"`
}

// IngestionService runs the news pipeline: fetch every enabled source,
// persist new articles, then analyze the pending backlog into signals.
type IngestionService struct {
	sources    *database.SourceRepository
	articles   *database.ArticleRepository
	signals    *database.SignalRepository
	fetcher    *FeedFetcher
	extraction *ExtractionService
	cfg        config.IngestionConfig
	logger     *logrus.Logger
}

// NewIngestionService wires the news pipeline together.
func NewIngestionService(
	sources *database.SourceRepository,
	articles *database.ArticleRepository,
	signals *database.SignalRepository,
	fetcher *FeedFetcher,
	extraction *ExtractionService,
	cfg config.IngestionConfig,
	logger *logrus.Logger,
) *IngestionService {
	return &IngestionService{
		sources:    sources,
		articles:   articles,
		signals:    signals,
		fetcher:    fetcher,
		extraction: extraction,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run executes one full pipeline pass. Source failures are isolated: a feed
// that is down is recorded in the summary and the rest of the run proceeds.
func (s *IngestionService) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}

	log := s.logger.WithField("run_id", summary.RunID)
	log.Info("Starting ingestion run")

	if err := s.fetchSources(ctx, summary); err != nil {
		return nil, err
	}
	if err := s.analyzePending(ctx, summary); err != nil {
		return nil, err
	}
	s.pruneArticles(ctx, summary)

	summary.FinishedAt = time.Now().UTC()
	log.WithFields(logrus.Fields{
		"articles_new":      summary.ArticlesNew,
		"articles_analyzed": summary.ArticlesAnalyzed,
		"articles_pruned":   summary.ArticlesPruned,
		"signals_created":   summary.SignalsCreated,
		"errors":            summary.Errors,
		"duration":          summary.FinishedAt.Sub(summary.StartedAt).String(),
	}).Info("Ingestion run complete")

	return summary, nil
}

// fetchSources pulls every enabled source with bounded concurrency and
// records one SourceResult each.
func (s *IngestionService) fetchSources(ctx context.Context, summary *RunSummary) error {
	sources, err := s.sources.List(ctx, true)
	if err != nil {
		return err
	}

	results := make([]SourceResult, len(sources))
	sem := make(chan struct{}, s.cfg.Concurrency)
	done := make(chan int, len(sources))

	for i := range sources {
		go func(idx int) {
			sem <- struct{}{}
			defer func() {
				<-sem
				done <- idx
			}()
			results[idx] = s.fetchOne(ctx, sources[idx])
		}(i)
	}
	for range sources {
		<-done
	}

	for _, r := range results {
		summary.Sources = append(summary.Sources, r)
		summary.ArticlesNew += r.New
		if r.Error != "" {
			summary.Errors++
		}
	}
	return nil
}

func (s *IngestionService) fetchOne(ctx context.Context, source models.Source) SourceResult {
	result := SourceResult{SourceID: source.ID, SourceName: source.Name}

	fetchCtx, cancel := context.WithTimeout(ctx, config.Duration(s.cfg.FetchTimeout))
	defer cancel()

	items, err := s.fetcher.Fetch(fetchCtx, source)
	if err != nil {
		result.Error = err.Error()
		s.logger.WithFields(logrus.Fields{
			"source": source.Name,
			"error":  err,
		}).Warn("Source fetch failed")
		return result
	}

	result.Fetched = len(items)
	for _, item := range items {
		externalID := database.ExternalID(source.ID, item)
		_, inserted, err := s.articles.Insert(ctx, source.ID, externalID, item)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		if inserted {
			result.New++
		} else {
			result.Duplicate++
		}
	}

	if err := s.sources.MarkFetched(ctx, source.ID, time.Now().UTC()); err != nil {
		s.logger.WithField("source", source.Name).WithError(err).Warn("Failed to mark source fetched")
	}
	return result
}

// analyzePending drains up to one batch of the pending-article backlog
// through the extraction capability. Disabled extraction leaves the backlog
// untouched for a later run.
func (s *IngestionService) analyzePending(ctx context.Context, summary *RunSummary) error {
	if !s.extraction.Enabled() {
		s.logger.Debug("Extraction capability not configured, leaving backlog pending")
		return nil
	}

	pending, err := s.articles.ListPending(ctx, s.cfg.AnalysisBatch)
	if err != nil {
		return err
	}

	for i := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		article := &pending[i]

		signals, err := s.extraction.AnalyzeArticle(ctx, article)
		if err != nil {
			// Unreachable capability or unparseable output means zero
			// signals from this item, not a failed run.
			summary.Errors++
			s.logger.WithFields(logrus.Fields{
				"article_id": article.ID,
				"error":      err,
			}).Warn("Article analysis failed")
			if setErr := s.articles.SetStatus(ctx, article.ID, models.ArticleError); setErr != nil {
				return setErr
			}
			continue
		}

		for j := range signals {
			if _, err := s.signals.Insert(ctx, &signals[j]); err != nil {
				if utils.IsValidationError(err) {
					summary.Errors++
					s.logger.WithError(err).Warn("Dropping invalid extracted signal")
					continue
				}
				return err
			}
			summary.SignalsCreated++
		}

		if err := s.articles.SetStatus(ctx, article.ID, models.ArticleAnalyzed); err != nil {
			return err
		}
		summary.ArticlesAnalyzed++
	}
	return nil
}

// pruneArticles drops processed articles past the retention horizon.
// Retention failure never fails a run: the next pass retries.
func (s *IngestionService) pruneArticles(ctx context.Context, summary *RunSummary) {
	cutoff := time.Now().UTC().Add(-config.Duration(s.cfg.ArticleRetention))
	pruned, err := s.articles.PruneOlderThan(ctx, cutoff)
	if err != nil {
		summary.Errors++
		s.logger.WithError(err).Warn("Article retention pass failed")
		return
	}
	summary.ArticlesPruned = pruned
	if pruned > 0 {
		s.logger.WithField("pruned", pruned).Info("Pruned articles past retention horizon")
	}
}

// Status summarizes the backlog for the API.
func (s *IngestionService) Status(ctx context.Context) (*models.IngestionStatus, error) {
	total, pending, analyzed, err := s.articles.Counts(ctx)
	if err != nil {
		return nil, err
	}
	enabled, err := s.sources.CountEnabled(ctx)
	if err != nil {
		return nil, err
	}
	lastRun, err := s.sources.LastFetchTime(ctx)
	if err != nil {
		return nil, err
	}
	return &models.IngestionStatus{
		LastRun:          lastRun,
		ArticlesTotal:    total,
		ArticlesPending:  pending,
		ArticlesAnalyzed: analyzed,
		SourcesEnabled:   enabled,
	}, nil
}

package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jamesincognito/signal-dashboard/internal/config"
	"github.com/jamesincognito/signal-dashboard/internal/database"
	"github.com/jamesincognito/signal-dashboard/internal/models"
	"github.com/jamesincognito/signal-dashboard/internal/theses"
)

const (
	// NeutralScore is the resting composite for a thesis with no evidence.
	NeutralScore = 5.5

	// trendDeadBand keeps routine score wobble from flapping the trend
	// classification.
	trendDeadBand = 0.3

	recentSignalLimit = 10
)

// CompositeScore folds a window of signals into a 1-10 conviction score.
// Each signal contributes strength x confidence, signed by direction; the
// mean contribution shifts the neutral midpoint and the result clamps to
// the scale. An empty window scores exactly neutral.
func CompositeScore(signals []models.Signal) float64 {
	if len(signals) == 0 {
		return NeutralScore
	}
	var sum float64
	for i := range signals {
		sum += signals[i].Weight()
	}
	mean := sum / float64(len(signals))
	return clampScore(NeutralScore + mean/2)
}

func clampScore(score float64) float64 {
	if score < 1 {
		return 1
	}
	if score > 10 {
		return 10
	}
	return score
}

// ClassifyTrend compares the current score against the prior-window score.
// Without a prior score the trend is stable, and moves inside the dead
// band are stable too.
func ClassifyTrend(current float64, previous *float64) models.TrendDirection {
	if previous == nil {
		return models.TrendStable
	}
	diff := current - *previous
	switch {
	case diff > trendDeadBand:
		return models.TrendRising
	case diff < -trendDeadBand:
		return models.TrendFalling
	default:
		return models.TrendStable
	}
}

// DailyTrendSeries produces the running score curve across a window. For
// each day that received at least one signal, the point holds the score of
// every signal up to and including that day, so the curve shows conviction
// building rather than isolated daily readings. Input must be ascending by
// signal date.
func DailyTrendSeries(signals []models.Signal) []models.TrendPoint {
	if len(signals) == 0 {
		return nil
	}

	var series []models.TrendPoint
	var runningSum float64
	count := 0
	i := 0
	for i < len(signals) {
		day := signals[i].SignalDate.UTC().Format("2006-01-02")
		for i < len(signals) && signals[i].SignalDate.UTC().Format("2006-01-02") == day {
			runningSum += signals[i].Weight()
			count++
			i++
		}
		series = append(series, models.TrendPoint{
			Date:  day,
			Score: clampScore(NeutralScore + runningSum/float64(count)/2),
			Count: count,
		})
	}
	return series
}

// AggregationService assembles dashboard views. Scores are a pure function
// of the signal store at query time; nothing computed here is written back.
type AggregationService struct {
	signals  *database.SignalRepository
	articles *database.ArticleRepository
	sources  *database.SourceRepository
	catalog  *theses.Catalog
	cfg      config.AggregationConfig
	logger   *logrus.Logger
}

// NewAggregationService creates the dashboard assembler.
func NewAggregationService(
	signals *database.SignalRepository,
	articles *database.ArticleRepository,
	sources *database.SourceRepository,
	catalog *theses.Catalog,
	cfg config.AggregationConfig,
	logger *logrus.Logger,
) *AggregationService {
	return &AggregationService{
		signals:  signals,
		articles: articles,
		sources:  sources,
		catalog:  catalog,
		cfg:      cfg,
		logger:   logger,
	}
}

// ThesisDashboard computes the full per-thesis view as of now. A
// non-positive days falls back to the configured window.
func (s *AggregationService) ThesisDashboard(ctx context.Context, thesis theses.Thesis, days int) (*models.ThesisDashboard, error) {
	if days <= 0 {
		days = s.cfg.WindowDays
	}
	now := time.Now().UTC()
	windowStart := now.AddDate(0, 0, -days)

	window, err := s.signals.WindowForThesis(ctx, thesis.ID, windowStart, now)
	if err != nil {
		return nil, err
	}
	currentScore := CompositeScore(window)

	// The prior window is the scoring window shifted back by its own size.
	priorStart := now.AddDate(0, 0, -2*days)
	prior, err := s.signals.WindowForThesis(ctx, thesis.ID, priorStart, windowStart.Add(-time.Nanosecond))
	if err != nil {
		return nil, err
	}
	var previousScore *float64
	if len(prior) > 0 {
		score := CompositeScore(prior)
		previousScore = &score
	}

	recent, err := s.signals.RecentForThesis(ctx, thesis.ID, now.Add(-24*time.Hour), recentSignalLimit)
	if err != nil {
		return nil, err
	}
	counts24h, err := s.signals.CountsByOrigin(ctx, thesis.ID, now.Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}
	counts7d, err := s.signals.CountsByOrigin(ctx, thesis.ID, now.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	supportingPct, err := s.signals.SupportingPct(ctx, thesis.ID)
	if err != nil {
		return nil, err
	}

	return &models.ThesisDashboard{
		ThesisID:          thesis.ID,
		ThesisName:        thesis.Name,
		ThesisDescription: thesis.Description,
		CurrentScore:      currentScore,
		PreviousScore:     previousScore,
		Trend:             ClassifyTrend(currentScore, previousScore),
		TrendSeries:       DailyTrendSeries(window),
		RecentSignals:     recent,
		SignalCount24h:    counts24h,
		SignalCount7d:     counts7d,
		SupportingPct:     supportingPct,
	}, nil
}

// Snapshot computes the full dashboard across every cataloged thesis.
func (s *AggregationService) Snapshot(ctx context.Context, days int) (*models.DashboardSnapshot, error) {
	if days <= 0 {
		days = s.cfg.WindowDays
	}
	snapshot := &models.DashboardSnapshot{
		WindowDays:  days,
		GeneratedAt: time.Now().UTC(),
	}

	for _, thesis := range s.catalog.All() {
		td, err := s.ThesisDashboard(ctx, thesis, days)
		if err != nil {
			return nil, err
		}
		snapshot.Theses = append(snapshot.Theses, *td)
	}

	totalArticles, _, _, err := s.articles.Counts(ctx)
	if err != nil {
		return nil, err
	}
	snapshot.TotalArticles = totalArticles

	totalSignals, err := s.signals.Total(ctx)
	if err != nil {
		return nil, err
	}
	snapshot.TotalSignals = totalSignals

	lastIngestion, err := s.sources.LastFetchTime(ctx)
	if err != nil {
		return nil, err
	}
	snapshot.LastIngestion = lastIngestion

	return snapshot, nil
}

package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesincognito/signal-dashboard/internal/models"
)

func makeSignal(direction models.SignalDirection, strength int, confidence float64, date time.Time) models.Signal {
	return models.Signal{
		ThesisID:   "ai_deflation",
		Origin:     models.OriginNews,
		Direction:  direction,
		Strength:   strength,
		Confidence: confidence,
		SignalDate: date,
	}
}

func TestCompositeScore_EmptyWindow(t *testing.T) {
	assert.Equal(t, NeutralScore, CompositeScore(nil))
	assert.Equal(t, NeutralScore, CompositeScore([]models.Signal{}))
}

func TestCompositeScore_SingleSupporting(t *testing.T) {
	now := time.Now()
	score := CompositeScore([]models.Signal{
		makeSignal(models.DirectionSupporting, 6, 1.0, now),
	})
	// 5.5 + 6/2
	assert.InDelta(t, 8.5, score, 1e-9)
}

func TestCompositeScore_MixedDirections(t *testing.T) {
	now := time.Now()
	signals := []models.Signal{
		makeSignal(models.DirectionSupporting, 8, 1.0, now),
		makeSignal(models.DirectionSupporting, 8, 1.0, now),
		makeSignal(models.DirectionWeakening, 4, 0.5, now),
		makeSignal(models.DirectionWeakening, 4, 0.5, now),
	}
	// weights +8 +8 -2 -2, mean 3, score 5.5 + 1.5
	assert.InDelta(t, 7.0, CompositeScore(signals), 1e-9)
}

func TestCompositeScore_ConfidenceScalesContribution(t *testing.T) {
	now := time.Now()
	full := CompositeScore([]models.Signal{makeSignal(models.DirectionSupporting, 10, 1.0, now)})
	half := CompositeScore([]models.Signal{makeSignal(models.DirectionSupporting, 10, 0.5, now)})
	assert.Greater(t, full, half)
	assert.InDelta(t, 8.0, half, 1e-9)
}

func TestCompositeScore_ClampsToScale(t *testing.T) {
	now := time.Now()
	var strong, weak []models.Signal
	for i := 0; i < 5; i++ {
		strong = append(strong, makeSignal(models.DirectionSupporting, 10, 1.0, now))
		weak = append(weak, makeSignal(models.DirectionWeakening, 10, 1.0, now))
	}
	assert.Equal(t, 10.0, CompositeScore(strong))
	assert.Equal(t, 1.0, CompositeScore(weak))
}

func TestClassifyTrend(t *testing.T) {
	prev := func(v float64) *float64 { return &v }

	assert.Equal(t, models.TrendStable, ClassifyTrend(7.0, nil))
	assert.Equal(t, models.TrendStable, ClassifyTrend(7.0, prev(7.0)))
	assert.Equal(t, models.TrendStable, ClassifyTrend(7.3, prev(7.0)))
	assert.Equal(t, models.TrendStable, ClassifyTrend(6.7, prev(7.0)))
	assert.Equal(t, models.TrendRising, ClassifyTrend(7.31, prev(7.0)))
	assert.Equal(t, models.TrendFalling, ClassifyTrend(6.69, prev(7.0)))
}

func TestDailyTrendSeries_Empty(t *testing.T) {
	assert.Nil(t, DailyTrendSeries(nil))
}

func TestDailyTrendSeries_RunningCounts(t *testing.T) {
	day1 := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 3, 15, 0, 0, 0, time.UTC)
	signals := []models.Signal{
		makeSignal(models.DirectionSupporting, 6, 1.0, day1),
		makeSignal(models.DirectionSupporting, 4, 1.0, day1),
		makeSignal(models.DirectionWeakening, 2, 1.0, day2),
	}

	series := DailyTrendSeries(signals)
	require.Len(t, series, 2)

	assert.Equal(t, "2026-08-01", series[0].Date)
	assert.Equal(t, 2, series[0].Count)
	// weights +6 +4, mean 5
	assert.InDelta(t, 8.0, series[0].Score, 1e-9)

	assert.Equal(t, "2026-08-03", series[1].Date)
	assert.Equal(t, 3, series[1].Count)
	// weights +6 +4 -2, mean 8/3
	assert.InDelta(t, 5.5+8.0/3.0/2.0, series[1].Score, 1e-9)
}

func TestDailyTrendSeries_LastPointMatchesWindowScore(t *testing.T) {
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	var signals []models.Signal
	for i := 0; i < 10; i++ {
		dir := models.DirectionSupporting
		if i%3 == 0 {
			dir = models.DirectionWeakening
		}
		signals = append(signals, makeSignal(dir, 1+i%10, 0.9, base.AddDate(0, 0, i)))
	}

	series := DailyTrendSeries(signals)
	require.NotEmpty(t, series)

	last := series[len(series)-1]
	assert.Equal(t, len(signals), last.Count)
	assert.InDelta(t, CompositeScore(signals), last.Score, 1e-9)

	// Counts only grow along the curve.
	for i := 1; i < len(series); i++ {
		assert.Greater(t, series[i].Count, series[i-1].Count)
	}
}

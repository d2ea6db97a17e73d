package services

import (
	"math"
	"time"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"

	"github.com/jamesincognito/signal-dashboard/internal/models"
)

// smaPeriod smooths noisy weekly series for presentation.
const smaPeriod = 5

// BuildSnapshot normalizes a series for presentation: the latest value, a
// comparison value from roughly lookbackDays earlier, the percentage change
// between them, and a smoothed curve. The comparison value is the nearest
// actual observation to the lookback horizon, never an interpolation, so a
// monthly series compared over 30 days lines up with its real prior print.
func BuildSnapshot(series models.DataSeries, points []models.DataPoint, lookbackDays int) models.SeriesSnapshot {
	snap := models.SeriesSnapshot{Series: series, Points: points}
	if len(points) == 0 {
		return snap
	}

	latest := points[len(points)-1]
	latestValue, _ := latest.Value.Float64()
	snap.LatestValue = &latestValue

	if prev, ok := nearestTo(points[:len(points)-1], latest.Date.AddDate(0, 0, -lookbackDays)); ok {
		prevValue, _ := prev.Value.Float64()
		snap.PreviousValue = &prevValue
		if prevValue != 0 {
			change := (latestValue - prevValue) / math.Abs(prevValue) * 100
			snap.ChangePct = &change
		}
	}

	if len(points) >= smaPeriod {
		values := make([]float64, len(points))
		for i, p := range points {
			values[i], _ = p.Value.Float64()
		}
		sma := trend.NewSmaWithPeriod[float64](smaPeriod)
		snap.SMA = helper.ChanToSlice(sma.Compute(helper.SliceToChan(values)))
	}

	return snap
}

// nearestTo returns the observation closest in time to the target date.
func nearestTo(points []models.DataPoint, target time.Time) (models.DataPoint, bool) {
	if len(points) == 0 {
		return models.DataPoint{}, false
	}
	best := points[0]
	bestGap := absDuration(points[0].Date.Sub(target))
	for _, p := range points[1:] {
		if gap := absDuration(p.Date.Sub(target)); gap < bestGap {
			best, bestGap = p, gap
		}
	}
	return best, true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

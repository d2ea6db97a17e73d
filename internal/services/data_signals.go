package services

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jamesincognito/signal-dashboard/internal/database"
	"github.com/jamesincognito/signal-dashboard/internal/models"
)

// dataSignalConfidence applies to every signal derived from structured
// data. Provider numbers are authoritative but the mapping from a single
// percentage move to thesis evidence is mechanical, so confidence sits
// below manual entry.
const dataSignalConfidence = 0.8

var titleCaser = cases.Title(language.English)

// DataSignalGenerator turns normalized series movement into signals. At
// most one signal per data point: once the latest observation has produced
// a signal, re-running the pipeline is a no-op until a newer point lands.
type DataSignalGenerator struct {
	signals *database.SignalRepository
	logger  *logrus.Logger
}

// NewDataSignalGenerator creates a generator writing through the signal store.
func NewDataSignalGenerator(signals *database.SignalRepository, logger *logrus.Logger) *DataSignalGenerator {
	return &DataSignalGenerator{signals: signals, logger: logger}
}

// Generate inspects one series snapshot and persists a signal when the
// movement is determinate and not yet recorded. Returns the created signal
// or nil when nothing was generated.
func (g *DataSignalGenerator) Generate(ctx context.Context, snap models.SeriesSnapshot) (*models.Signal, error) {
	direction, ok := snap.Series.DirectionLogic.Interpret(snap.ChangePct)
	if !ok {
		// Flat or single-point series carry no directional evidence.
		return nil, nil
	}

	latest := snap.Points[len(snap.Points)-1]
	exists, err := g.signals.ExistsForDataPoint(ctx, latest.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	change := *snap.ChangePct
	strength := strengthForChange(change)

	changeWord := "decreased"
	if change > 0 {
		changeWord = "increased"
	}

	evidence := fmt.Sprintf("%s %s %.1f%% to %s over the trailing window",
		snap.Series.Name, changeWord, math.Abs(change), formatValue(*snap.LatestValue, snap.Series.Unit))

	reasoning := fmt.Sprintf("%s reading is %s evidence: the series is configured as %s for this thesis.",
		titleCaser.String(changeWord), direction, snap.Series.DirectionLogic)

	name := snap.Series.Name
	sig := &models.Signal{
		ThesisID:      snap.Series.ThesisID,
		DataPointID:   &latest.ID,
		Origin:        models.OriginData,
		Direction:     direction,
		Strength:      strength,
		Confidence:    dataSignalConfidence,
		EvidenceQuote: evidence,
		Reasoning:     reasoning,
		SourceTitle:   &name,
		SignalDate:    latest.Date,
	}

	stored, err := g.signals.Insert(ctx, sig)
	if err != nil {
		return nil, err
	}

	g.logger.WithFields(logrus.Fields{
		"series":     snap.Series.ID,
		"thesis_id":  stored.ThesisID,
		"direction":  stored.Direction,
		"strength":   stored.Strength,
		"change_pct": change,
	}).Info("Generated data signal")

	return stored, nil
}

// strengthForChange maps the magnitude of a percentage move onto the
// signal strength scale. Small moves are routine prints; double-digit
// moves in macro series are notable events.
func strengthForChange(changePct float64) int {
	abs := math.Abs(changePct)
	switch {
	case abs >= 20:
		return 9
	case abs >= 10:
		return 8
	case abs >= 5:
		return 7
	case abs >= 3:
		return 6
	case abs >= 1:
		return 5
	default:
		return 3
	}
}

func formatValue(v float64, unit string) string {
	if unit == "" {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.2f %s", v, unit)
}

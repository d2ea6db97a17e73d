package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DataProvider identifies a structured-data backend.
type DataProvider string

const (
	ProviderFRED     DataProvider = "fred"
	ProviderBLS      DataProvider = "bls"
	ProviderSECEdgar DataProvider = "sec_edgar"
)

// ParseDataProvider validates a raw provider string.
func ParseDataProvider(s string) (DataProvider, error) {
	switch DataProvider(s) {
	case ProviderFRED, ProviderBLS, ProviderSECEdgar:
		return DataProvider(s), nil
	}
	return "", fmt.Errorf("invalid data provider: %q", s)
}

// DirectionLogic maps raw series movement onto thesis evidence. A rising
// unemployment-claims series is higher_supporting for a displacement thesis;
// a falling software-price index is lower_supporting for a deflation thesis.
type DirectionLogic string

const (
	HigherSupporting DirectionLogic = "higher_supporting"
	LowerSupporting  DirectionLogic = "lower_supporting"
)

// ParseDirectionLogic validates a raw direction-logic string.
func ParseDirectionLogic(s string) (DirectionLogic, error) {
	switch DirectionLogic(s) {
	case HigherSupporting, LowerSupporting:
		return DirectionLogic(s), nil
	}
	return "", fmt.Errorf("invalid direction logic: %q", s)
}

// Interpret maps a percentage change onto evidence direction. A nil change
// is indeterminate and yields no direction.
func (dl DirectionLogic) Interpret(changePct *float64) (SignalDirection, bool) {
	if changePct == nil || *changePct == 0 {
		return "", false
	}
	rising := *changePct > 0
	if dl == HigherSupporting {
		if rising {
			return DirectionSupporting, true
		}
		return DirectionWeakening, true
	}
	if rising {
		return DirectionWeakening, true
	}
	return DirectionSupporting, true
}

// DataSeries is a registered structured-data query bound to one thesis.
type DataSeries struct {
	ID             string         `json:"id" db:"id"`
	ThesisID       string         `json:"thesis_id" db:"thesis_id"`
	Name           string         `json:"name" db:"name"`
	Description    string         `json:"description" db:"description"`
	Provider       DataProvider   `json:"provider" db:"provider"`
	Config         string         `json:"config" db:"config"`
	Unit           string         `json:"unit" db:"unit"`
	DirectionLogic DirectionLogic `json:"direction_logic" db:"direction_logic"`
	Enabled        bool           `json:"enabled" db:"enabled"`
	LastFetchedAt  *time.Time     `json:"last_fetched_at,omitempty" db:"last_fetched_at"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}

// DataPoint is one (date, value) observation. Date is the natural key:
// at most one value per day per series, re-fetching replaces.
type DataPoint struct {
	ID       int64           `json:"id" db:"id"`
	SeriesID string          `json:"series_id" db:"series_id"`
	Date     time.Time       `json:"date" db:"date"`
	Value    decimal.Decimal `json:"value" db:"value"`
}

// DataSeriesCreateRequest registers a new series definition.
type DataSeriesCreateRequest struct {
	ID             string `json:"id" binding:"required"`
	ThesisID       string `json:"thesis_id" binding:"required"`
	Name           string `json:"name" binding:"required"`
	Description    string `json:"description"`
	Provider       string `json:"provider" binding:"required"`
	Config         string `json:"config" binding:"required"`
	Unit           string `json:"unit"`
	DirectionLogic string `json:"direction_logic" binding:"required"`
	Enabled        *bool  `json:"enabled"`
}

// DataSeriesUpdateRequest is a partial patch of a series definition.
// Direction logic is deliberately not patchable: it is an invariant set at
// registration time and reinterpreting historical movement would silently
// flip the meaning of already-generated signals.
type DataSeriesUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Config      *string `json:"config"`
	Unit        *string `json:"unit"`
	Enabled     *bool   `json:"enabled"`
}

// SeriesSnapshot is a normalized series plus its short-horizon change, as
// served to the presentation layer.
type SeriesSnapshot struct {
	Series        DataSeries  `json:"series"`
	Points        []DataPoint `json:"points"`
	LatestValue   *float64    `json:"latest_value"`
	PreviousValue *float64    `json:"previous_value"`
	ChangePct     *float64    `json:"change_pct"`
	SMA           []float64   `json:"sma,omitempty"`
}

package models

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// SignalDirection says whether a piece of evidence supports or weakens a thesis.
type SignalDirection string

const (
	DirectionSupporting SignalDirection = "supporting"
	DirectionWeakening  SignalDirection = "weakening"
)

// ParseSignalDirection validates a raw direction string.
func ParseSignalDirection(s string) (SignalDirection, error) {
	switch SignalDirection(s) {
	case DirectionSupporting, DirectionWeakening:
		return SignalDirection(s), nil
	}
	return "", fmt.Errorf("invalid signal direction: %q", s)
}

// Sign returns +1 for supporting evidence, -1 for weakening evidence.
func (d SignalDirection) Sign() float64 {
	if d == DirectionSupporting {
		return 1.0
	}
	return -1.0
}

// SignalOrigin identifies which pipeline produced a signal.
type SignalOrigin string

const (
	OriginNews   SignalOrigin = "news"
	OriginData   SignalOrigin = "data"
	OriginManual SignalOrigin = "manual"
)

// ParseSignalOrigin validates a raw origin string.
func ParseSignalOrigin(s string) (SignalOrigin, error) {
	switch SignalOrigin(s) {
	case OriginNews, OriginData, OriginManual:
		return SignalOrigin(s), nil
	}
	return "", fmt.Errorf("invalid signal origin: %q", s)
}

const (
	MinStrength = 1
	MaxStrength = 10

	// Evidence quotes and reasoning are truncated to this length before storage.
	MaxExcerptLen = 500
)

// Signal is one discrete piece of directional evidence attached to a thesis.
// Signals are append-only: they are never edited in place, only created and
// deleted.
type Signal struct {
	ID            int64           `json:"id" db:"id"`
	ThesisID      string          `json:"thesis_id" db:"thesis_id"`
	ArticleID     *int64          `json:"article_id,omitempty" db:"article_id"`
	DataPointID   *int64          `json:"data_point_id,omitempty" db:"data_point_id"`
	Origin        SignalOrigin    `json:"origin" db:"origin"`
	Direction     SignalDirection `json:"direction" db:"direction"`
	Strength      int             `json:"strength" db:"strength"`
	Confidence    float64         `json:"confidence" db:"confidence"`
	EvidenceQuote string          `json:"evidence_quote" db:"evidence_quote"`
	Reasoning     string          `json:"reasoning" db:"reasoning"`
	SourceTitle   *string         `json:"source_title,omitempty" db:"source_title"`
	SourceURL     *string         `json:"source_url,omitempty" db:"source_url"`
	SignalDate    time.Time       `json:"signal_date" db:"signal_date"`
	IsManual      bool            `json:"is_manual" db:"is_manual"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// Validate enforces range invariants on a signal before it is persisted.
// Thesis-id validation happens against the catalog, not here.
func (s *Signal) Validate() error {
	if _, err := ParseSignalDirection(string(s.Direction)); err != nil {
		return err
	}
	if _, err := ParseSignalOrigin(string(s.Origin)); err != nil {
		return err
	}
	if s.Strength < MinStrength || s.Strength > MaxStrength {
		return fmt.Errorf("strength must be between %d and %d, got %d", MinStrength, MaxStrength, s.Strength)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("confidence must be between 0 and 1, got %v", s.Confidence)
	}
	return nil
}

// Weight is the signed contribution of this signal to a composite score.
func (s *Signal) Weight() float64 {
	return float64(s.Strength) * s.Confidence * s.Direction.Sign()
}

// ManualSignalRequest is the payload for operator-entered signals.
type ManualSignalRequest struct {
	ThesisID      string  `json:"thesis_id" binding:"required"`
	Direction     string  `json:"direction" binding:"required"`
	Strength      int     `json:"strength" binding:"required"`
	EvidenceQuote string  `json:"evidence_quote" binding:"required"`
	Reasoning     string  `json:"reasoning" binding:"required"`
	SourceTitle   *string `json:"source_title"`
	SourceURL     *string `json:"source_url"`
	SignalDate    *string `json:"signal_date"`
}

// SignalFilter narrows signal listings.
type SignalFilter struct {
	ThesisID  string
	Direction string
	Origin    string
	DateFrom  *time.Time
	DateTo    *time.Time
	Limit     int
	Offset    int
}

// Truncate clamps a string to the storage limit for excerpts, backing off
// to a rune boundary so the cut never produces invalid UTF-8.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jamesincognito/signal-dashboard/internal/models"
	"github.com/jamesincognito/signal-dashboard/internal/utils"
)

// SignalRepository is the append-only store for signals. Rows are written
// atomically as whole records and never edited in place.
type SignalRepository struct {
	pool Pool
}

// NewSignalRepository creates a new signal repository.
func NewSignalRepository(pool Pool) *SignalRepository {
	return &SignalRepository{pool: pool}
}

const signalColumns = `id, thesis_id, article_id, data_point_id, origin, direction, strength,
	confidence, evidence_quote, reasoning, source_title, source_url, signal_date, is_manual, created_at`

func scanSignal(row pgx.Row) (*models.Signal, error) {
	var s models.Signal
	err := row.Scan(&s.ID, &s.ThesisID, &s.ArticleID, &s.DataPointID, &s.Origin, &s.Direction,
		&s.Strength, &s.Confidence, &s.EvidenceQuote, &s.Reasoning, &s.SourceTitle, &s.SourceURL,
		&s.SignalDate, &s.IsManual, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Insert persists one validated signal and returns the stored row.
func (r *SignalRepository) Insert(ctx context.Context, s *models.Signal) (*models.Signal, error) {
	if err := s.Validate(); err != nil {
		return nil, utils.NewValidationError(err.Error())
	}

	stored, err := scanSignal(r.pool.QueryRow(ctx,
		`INSERT INTO signals (thesis_id, article_id, data_point_id, origin, direction, strength,
		                      confidence, evidence_quote, reasoning, source_title, source_url, signal_date, is_manual)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING `+signalColumns,
		s.ThesisID, s.ArticleID, s.DataPointID, string(s.Origin), string(s.Direction), s.Strength,
		s.Confidence, models.Truncate(s.EvidenceQuote, models.MaxExcerptLen),
		models.Truncate(s.Reasoning, models.MaxExcerptLen),
		s.SourceTitle, s.SourceURL, s.SignalDate, s.IsManual))
	if err != nil {
		return nil, fmt.Errorf("failed to insert signal: %w", err)
	}
	return stored, nil
}

// List returns signals matching a filter, newest first.
func (r *SignalRepository) List(ctx context.Context, f models.SignalFilter) ([]models.Signal, error) {
	query := "SELECT " + signalColumns + " FROM signals WHERE 1=1"
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.ThesisID != "" {
		query += " AND thesis_id = " + arg(f.ThesisID)
	}
	if f.Direction != "" {
		query += " AND direction = " + arg(f.Direction)
	}
	if f.Origin != "" {
		query += " AND origin = " + arg(f.Origin)
	}
	if f.DateFrom != nil {
		query += " AND signal_date >= " + arg(*f.DateFrom)
	}
	if f.DateTo != nil {
		query += " AND signal_date <= " + arg(*f.DateTo)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY signal_date DESC, created_at DESC LIMIT " + arg(limit) + " OFFSET " + arg(f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list signals: %w", err)
	}
	defer rows.Close()

	var signals []models.Signal
	for rows.Next() {
		s, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, *s)
	}
	return signals, rows.Err()
}

// WindowForThesis returns every signal for a thesis with a signal date
// inside [from, to], all origins, oldest first. This is the aggregation
// engine's read path; one query yields one consistent snapshot.
func (r *SignalRepository) WindowForThesis(ctx context.Context, thesisID string, from, to time.Time) ([]models.Signal, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+signalColumns+` FROM signals
		 WHERE thesis_id = $1 AND signal_date >= $2 AND signal_date <= $3
		 ORDER BY signal_date ASC, id ASC`,
		thesisID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query signal window: %w", err)
	}
	defer rows.Close()

	var signals []models.Signal
	for rows.Next() {
		s, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, *s)
	}
	return signals, rows.Err()
}

// RecentForThesis returns the strongest signals created within the trailing
// 24 hours, for the dashboard's recent-evidence list.
func (r *SignalRepository) RecentForThesis(ctx context.Context, thesisID string, since time.Time, limit int) ([]models.Signal, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+signalColumns+` FROM signals
		 WHERE thesis_id = $1 AND created_at >= $2
		 ORDER BY strength DESC, confidence DESC
		 LIMIT $3`,
		thesisID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent signals: %w", err)
	}
	defer rows.Close()

	var signals []models.Signal
	for rows.Next() {
		s, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, *s)
	}
	return signals, rows.Err()
}

// CountsByOrigin returns per-origin signal counts for a thesis since a
// cutoff date.
func (r *SignalRepository) CountsByOrigin(ctx context.Context, thesisID string, since time.Time) (models.OriginCounts, error) {
	var counts models.OriginCounts
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE origin = 'news'),
		        COUNT(*) FILTER (WHERE origin = 'data'),
		        COUNT(*) FILTER (WHERE origin = 'manual')
		 FROM signals WHERE thesis_id = $1 AND signal_date >= $2`,
		thesisID, since).Scan(&counts.News, &counts.Data, &counts.Manual)
	if err != nil {
		return counts, fmt.Errorf("failed to count signals by origin: %w", err)
	}
	return counts, nil
}

// SupportingPct returns the all-time percentage of supporting signals for
// a thesis; 50 when the thesis has no signals at all.
func (r *SignalRepository) SupportingPct(ctx context.Context, thesisID string) (float64, error) {
	var total, supporting int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE direction = 'supporting')
		 FROM signals WHERE thesis_id = $1`, thesisID).Scan(&total, &supporting)
	if err != nil {
		return 0, fmt.Errorf("failed to compute supporting percentage: %w", err)
	}
	if total == 0 {
		return 50.0, nil
	}
	return float64(supporting) / float64(total) * 100, nil
}

// Total returns the all-time signal count.
func (r *SignalRepository) Total(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM signals").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count signals: %w", err)
	}
	return count, nil
}

// Delete hard-deletes one signal by id.
func (r *SignalRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM signals WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete signal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return utils.NewNotFoundError("signal", strconv.FormatInt(id, 10))
	}
	return nil
}

// ExistsForDataPoint reports whether a data-derived signal was already
// generated for a data point. This is the data pipeline's dedup check.
func (r *SignalRepository) ExistsForDataPoint(ctx context.Context, dataPointID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM signals WHERE data_point_id = $1)", dataPointID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check data point signal: %w", err)
	}
	return exists, nil
}

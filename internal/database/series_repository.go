package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jamesincognito/signal-dashboard/internal/models"
	"github.com/jamesincognito/signal-dashboard/internal/utils"
)

// SeriesRepository handles database operations for data-series definitions
// and their observation points.
type SeriesRepository struct {
	pool Pool
}

// NewSeriesRepository creates a new series repository.
func NewSeriesRepository(pool Pool) *SeriesRepository {
	return &SeriesRepository{pool: pool}
}

const seriesColumns = "id, thesis_id, name, description, provider, config, unit, direction_logic, enabled, last_fetched_at, created_at"

func scanSeries(row pgx.Row) (*models.DataSeries, error) {
	var s models.DataSeries
	err := row.Scan(&s.ID, &s.ThesisID, &s.Name, &s.Description, &s.Provider, &s.Config,
		&s.Unit, &s.DirectionLogic, &s.Enabled, &s.LastFetchedAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns series definitions, optionally filtered by thesis and/or
// restricted to enabled ones.
func (r *SeriesRepository) List(ctx context.Context, thesisID string, enabledOnly bool) ([]models.DataSeries, error) {
	query := "SELECT " + seriesColumns + " FROM data_series WHERE 1=1"
	args := []interface{}{}
	if thesisID != "" {
		args = append(args, thesisID)
		query += fmt.Sprintf(" AND thesis_id = $%d", len(args))
	}
	if enabledOnly {
		query += " AND enabled = TRUE"
	}
	query += " ORDER BY thesis_id, name"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list data series: %w", err)
	}
	defer rows.Close()

	var list []models.DataSeries
	for rows.Next() {
		s, err := scanSeries(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan data series: %w", err)
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

// Get returns one series definition by id.
func (r *SeriesRepository) Get(ctx context.Context, id string) (*models.DataSeries, error) {
	s, err := scanSeries(r.pool.QueryRow(ctx,
		"SELECT "+seriesColumns+" FROM data_series WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, utils.NewNotFoundError("data series", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get data series: %w", err)
	}
	return s, nil
}

// Create registers a new series definition.
func (r *SeriesRepository) Create(ctx context.Context, req models.DataSeriesCreateRequest) (*models.DataSeries, error) {
	provider, err := models.ParseDataProvider(req.Provider)
	if err != nil {
		return nil, utils.NewValidationError(err.Error())
	}
	logic, err := models.ParseDirectionLogic(req.DirectionLogic)
	if err != nil {
		return nil, utils.NewValidationError(err.Error())
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	s, err := scanSeries(r.pool.QueryRow(ctx,
		`INSERT INTO data_series (id, thesis_id, name, description, provider, config, unit, direction_logic, enabled)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO NOTHING
		 RETURNING `+seriesColumns,
		req.ID, req.ThesisID, req.Name, req.Description, string(provider), req.Config, req.Unit, string(logic), enabled))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, utils.NewConflictErrorf("data series %q already exists", req.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create data series: %w", err)
	}
	return s, nil
}

// Update applies a partial patch. Direction logic is immutable after
// registration; provider and thesis binding likewise.
func (r *SeriesRepository) Update(ctx context.Context, id string, req models.DataSeriesUpdateRequest) (*models.DataSeries, error) {
	s, err := scanSeries(r.pool.QueryRow(ctx,
		`UPDATE data_series SET
		     name        = COALESCE($2, name),
		     description = COALESCE($3, description),
		     config      = COALESCE($4, config),
		     unit        = COALESCE($5, unit),
		     enabled     = COALESCE($6, enabled)
		 WHERE id = $1
		 RETURNING `+seriesColumns,
		id, req.Name, req.Description, req.Config, req.Unit, req.Enabled))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, utils.NewNotFoundError("data series", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update data series: %w", err)
	}
	return s, nil
}

// Delete removes a series definition and (by cascade) its points. Signals
// already generated from those points are kept; their data_point reference
// becomes null.
func (r *SeriesRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM data_series WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete data series: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return utils.NewNotFoundError("data series", id)
	}
	return nil
}

// MarkFetched advances the series' last-fetched timestamp.
func (r *SeriesRepository) MarkFetched(ctx context.Context, id string, at time.Time) error {
	_, err := r.pool.Exec(ctx, "UPDATE data_series SET last_fetched_at = $2 WHERE id = $1", id, at)
	if err != nil {
		return fmt.Errorf("failed to mark series fetched: %w", err)
	}
	return nil
}

// UpsertPoint writes one observation. Date is the natural key: re-fetching
// the same date replaces the value rather than appending a duplicate.
func (r *SeriesRepository) UpsertPoint(ctx context.Context, seriesID string, date time.Time, value decimal.Decimal) (inserted bool, err error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO data_points (series_id, date, value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (series_id, date) DO UPDATE SET value = EXCLUDED.value
		 WHERE data_points.value IS DISTINCT FROM EXCLUDED.value`,
		seriesID, date, value)
	if err != nil {
		return false, fmt.Errorf("failed to upsert data point: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Points returns observations for a series from a start date onward, in
// ascending date order.
func (r *SeriesRepository) Points(ctx context.Context, seriesID string, from time.Time) ([]models.DataPoint, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, series_id, date, value FROM data_points
		 WHERE series_id = $1 AND date >= $2
		 ORDER BY date ASC`, seriesID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to query data points: %w", err)
	}
	defer rows.Close()

	var points []models.DataPoint
	for rows.Next() {
		var p models.DataPoint
		if err := rows.Scan(&p.ID, &p.SeriesID, &p.Date, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan data point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// LatestPoints returns the newest n observations for a series, newest first.
func (r *SeriesRepository) LatestPoints(ctx context.Context, seriesID string, n int) ([]models.DataPoint, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, series_id, date, value FROM data_points
		 WHERE series_id = $1 ORDER BY date DESC LIMIT $2`, seriesID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest points: %w", err)
	}
	defer rows.Close()

	var points []models.DataPoint
	for rows.Next() {
		var p models.DataPoint
		if err := rows.Scan(&p.ID, &p.SeriesID, &p.Date, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan data point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

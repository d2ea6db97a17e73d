package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jamesincognito/signal-dashboard/internal/models"
	"github.com/jamesincognito/signal-dashboard/internal/utils"
)

// SourceRepository handles database operations for news sources.
type SourceRepository struct {
	pool Pool
}

// NewSourceRepository creates a new source repository.
func NewSourceRepository(pool Pool) *SourceRepository {
	return &SourceRepository{pool: pool}
}

const sourceColumns = "id, name, kind, url, config, enabled, last_fetched_at, created_at"

func scanSource(row pgx.Row) (*models.Source, error) {
	var s models.Source
	err := row.Scan(&s.ID, &s.Name, &s.Kind, &s.URL, &s.Config, &s.Enabled, &s.LastFetchedAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns all sources, optionally restricted to enabled ones.
func (r *SourceRepository) List(ctx context.Context, enabledOnly bool) ([]models.Source, error) {
	query := "SELECT " + sourceColumns + " FROM sources"
	if enabledOnly {
		query += " WHERE enabled = TRUE"
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []models.Source
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, *s)
	}
	return sources, rows.Err()
}

// Get returns one source by id.
func (r *SourceRepository) Get(ctx context.Context, id int64) (*models.Source, error) {
	s, err := scanSource(r.pool.QueryRow(ctx,
		"SELECT "+sourceColumns+" FROM sources WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, utils.NewNotFoundError("source", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	return s, nil
}

// Create registers a new source. Non-manual kinds require a name and URL.
func (r *SourceRepository) Create(ctx context.Context, req models.SourceCreateRequest) (*models.Source, error) {
	kind, err := models.ParseSourceKind(req.Kind)
	if err != nil {
		return nil, utils.NewValidationError(err.Error())
	}
	if req.Name == "" {
		return nil, utils.NewValidationError("source name must not be empty")
	}
	if kind != models.SourceKindManual && (req.URL == nil || *req.URL == "") {
		return nil, utils.NewValidationErrorf("source of kind %q requires a url", kind)
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	s, err := scanSource(r.pool.QueryRow(ctx,
		`INSERT INTO sources (name, kind, url, config, enabled)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+sourceColumns,
		req.Name, string(kind), req.URL, req.Config, enabled))
	if err != nil {
		return nil, fmt.Errorf("failed to create source: %w", err)
	}
	return s, nil
}

// Update applies a partial patch; nil fields keep their prior values.
func (r *SourceRepository) Update(ctx context.Context, id int64, req models.SourceUpdateRequest) (*models.Source, error) {
	if req.Name != nil && *req.Name == "" {
		return nil, utils.NewValidationError("source name must not be empty")
	}

	s, err := scanSource(r.pool.QueryRow(ctx,
		`UPDATE sources SET
		     name    = COALESCE($2, name),
		     url     = COALESCE($3, url),
		     config  = COALESCE($4, config),
		     enabled = COALESCE($5, enabled)
		 WHERE id = $1
		 RETURNING `+sourceColumns,
		id, req.Name, req.URL, req.Config, req.Enabled))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, utils.NewNotFoundError("source", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update source: %w", err)
	}
	return s, nil
}

// Delete removes the registry row only. Signals derived from the source
// keep their provenance fields and are not touched.
func (r *SourceRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM sources WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return utils.NewNotFoundError("source", strconv.FormatInt(id, 10))
	}
	return nil
}

// MarkFetched advances the last-fetched timestamp. Called on every
// successful fetch, whether or not any new items were found.
func (r *SourceRepository) MarkFetched(ctx context.Context, id int64, at time.Time) error {
	_, err := r.pool.Exec(ctx, "UPDATE sources SET last_fetched_at = $2 WHERE id = $1", id, at)
	if err != nil {
		return fmt.Errorf("failed to mark source fetched: %w", err)
	}
	return nil
}

// LastFetchTime returns the most recent fetch time across all sources.
func (r *SourceRepository) LastFetchTime(ctx context.Context) (*time.Time, error) {
	var last *time.Time
	err := r.pool.QueryRow(ctx,
		"SELECT MAX(last_fetched_at) FROM sources").Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("failed to query last fetch time: %w", err)
	}
	return last, nil
}

// CountEnabled returns the number of enabled sources.
func (r *SourceRepository) CountEnabled(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM sources WHERE enabled = TRUE").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count enabled sources: %w", err)
	}
	return count, nil
}

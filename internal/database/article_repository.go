package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jamesincognito/signal-dashboard/internal/models"
)

// ArticleRepository handles database operations for ingested news items.
type ArticleRepository struct {
	pool Pool
}

// NewArticleRepository creates a new article repository.
func NewArticleRepository(pool Pool) *ArticleRepository {
	return &ArticleRepository{pool: pool}
}

// ExternalID derives the dedup key for a raw item. Items with a URL are
// keyed by (source, url); URL-less items fall back to (source, normalized
// title, published date).
func ExternalID(sourceID int64, item models.RawItem) string {
	key := item.URL
	if key == "" {
		key = strings.ToLower(strings.TrimSpace(item.Title))
		if item.PublishedAt != nil {
			key += "|" + item.PublishedAt.UTC().Format("2006-01-02")
		}
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s", sourceID, key)))
	return hex.EncodeToString(sum[:])[:32]
}

// Insert stores a new article. Returns (nil, false, nil) when an article
// with the same external id already exists; duplicates are not an error.
func (r *ArticleRepository) Insert(ctx context.Context, sourceID int64, externalID string, item models.RawItem) (*models.Article, bool, error) {
	var a models.Article
	var author, url *string
	if item.Author != "" {
		author = &item.Author
	}
	if item.URL != "" {
		url = &item.URL
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO articles (source_id, external_id, title, url, author, content, published_at, analysis_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending')
		 ON CONFLICT (external_id) DO NOTHING
		 RETURNING id, source_id, external_id, title, url, author, content, published_at, ingested_at, analysis_status`,
		sourceID, externalID, item.Title, url, author, item.Content, item.PublishedAt,
	).Scan(&a.ID, &a.SourceID, &a.ExternalID, &a.Title, &a.URL, &a.Author, &a.Content, &a.PublishedAt, &a.IngestedAt, &a.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert article: %w", err)
	}
	return &a, true, nil
}

// ListPending returns up to limit pending articles with a usable title,
// oldest first. Articles whose title is too short to analyze are marked
// skipped in the same pass.
func (r *ArticleRepository) ListPending(ctx context.Context, limit int) ([]models.Article, error) {
	if _, err := r.pool.Exec(ctx,
		`UPDATE articles SET analysis_status = 'skipped'
		 WHERE analysis_status = 'pending' AND length(title) <= 10`); err != nil {
		return nil, fmt.Errorf("failed to skip short articles: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, source_id, external_id, title, url, author, content, published_at, ingested_at, analysis_status
		 FROM articles
		 WHERE analysis_status = 'pending' AND length(title) > 10
		 ORDER BY ingested_at ASC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending articles: %w", err)
	}
	defer rows.Close()

	var articles []models.Article
	for rows.Next() {
		var a models.Article
		if err := rows.Scan(&a.ID, &a.SourceID, &a.ExternalID, &a.Title, &a.URL, &a.Author, &a.Content, &a.PublishedAt, &a.IngestedAt, &a.Status); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// SetStatus transitions an article through the extraction lifecycle.
func (r *ArticleRepository) SetStatus(ctx context.Context, id int64, status models.ArticleStatus) error {
	_, err := r.pool.Exec(ctx, "UPDATE articles SET analysis_status = $2 WHERE id = $1", id, string(status))
	if err != nil {
		return fmt.Errorf("failed to set article status: %w", err)
	}
	return nil
}

// ListRecent returns recent articles for the API, newest first.
func (r *ArticleRepository) ListRecent(ctx context.Context, limit, offset int) ([]models.Article, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, source_id, external_id, title, url, author, content, published_at, ingested_at, analysis_status
		 FROM articles ORDER BY ingested_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var articles []models.Article
	for rows.Next() {
		var a models.Article
		if err := rows.Scan(&a.ID, &a.SourceID, &a.ExternalID, &a.Title, &a.URL, &a.Author, &a.Content, &a.PublishedAt, &a.IngestedAt, &a.Status); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// Counts returns total/pending/analyzed article counts for status reporting.
func (r *ArticleRepository) Counts(ctx context.Context) (total, pending, analyzed int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE analysis_status = 'pending'),
		        COUNT(*) FILTER (WHERE analysis_status = 'analyzed')
		 FROM articles`).Scan(&total, &pending, &analyzed)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return total, pending, analyzed, nil
}

// PruneOlderThan removes analyzed articles past the retention horizon.
// Signals reference articles with ON DELETE SET NULL, so evidence survives.
func (r *ArticleRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		"DELETE FROM articles WHERE analysis_status <> 'pending' AND ingested_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune articles: %w", err)
	}
	return tag.RowsAffected(), nil
}

package models

import (
	"fmt"
	"time"
)

// SourceKind identifies how a news source is fetched.
type SourceKind string

const (
	SourceKindRSS     SourceKind = "rss"
	SourceKindNewsAPI SourceKind = "newsapi"
	SourceKindManual  SourceKind = "manual"
)

// ParseSourceKind validates a raw source kind string.
func ParseSourceKind(s string) (SourceKind, error) {
	switch SourceKind(s) {
	case SourceKindRSS, SourceKindNewsAPI, SourceKindManual:
		return SourceKind(s), nil
	}
	return "", fmt.Errorf("invalid source kind: %q", s)
}

// Source is a registered origin of news content. Deleting a source does not
// cascade to signals already derived from it; provenance is by reference.
type Source struct {
	ID            int64      `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	Kind          SourceKind `json:"kind" db:"kind"`
	URL           *string    `json:"url,omitempty" db:"url"`
	Config        *string    `json:"config,omitempty" db:"config"`
	Enabled       bool       `json:"enabled" db:"enabled"`
	LastFetchedAt *time.Time `json:"last_fetched_at,omitempty" db:"last_fetched_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// SourceCreateRequest is the payload for registering a source.
type SourceCreateRequest struct {
	Name    string  `json:"name" binding:"required"`
	Kind    string  `json:"kind" binding:"required"`
	URL     *string `json:"url"`
	Config  *string `json:"config"`
	Enabled *bool   `json:"enabled"`
}

// SourceUpdateRequest is a partial patch; nil fields keep their prior values.
type SourceUpdateRequest struct {
	Name    *string `json:"name"`
	URL     *string `json:"url"`
	Config  *string `json:"config"`
	Enabled *bool   `json:"enabled"`
}

// ArticleStatus tracks an ingested item through the extraction lifecycle.
type ArticleStatus string

const (
	ArticlePending  ArticleStatus = "pending"
	ArticleAnalyzed ArticleStatus = "analyzed"
	ArticleSkipped  ArticleStatus = "skipped"
	ArticleError    ArticleStatus = "error"
)

// Article is one raw news item pulled from a source. The external id is a
// hash of (source, url-or-title) and is the dedup key: an article that was
// already ingested is skipped silently on re-fetch.
type Article struct {
	ID          int64         `json:"id" db:"id"`
	SourceID    *int64        `json:"source_id,omitempty" db:"source_id"`
	ExternalID  string        `json:"external_id" db:"external_id"`
	Title       string        `json:"title" db:"title"`
	URL         *string       `json:"url,omitempty" db:"url"`
	Author      *string       `json:"author,omitempty" db:"author"`
	Content     string        `json:"-" db:"content"`
	PublishedAt *time.Time    `json:"published_at,omitempty" db:"published_at"`
	IngestedAt  time.Time     `json:"ingested_at" db:"ingested_at"`
	Status      ArticleStatus `json:"analysis_status" db:"analysis_status"`
}

// RawItem is what a content fetcher recovers from a remote source before
// the item is persisted as an Article.
type RawItem struct {
	Title       string
	URL         string
	Author      string
	Content     string
	PublishedAt *time.Time
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"

	"github.com/jamesincognito/signal-dashboard/internal/config"
	"github.com/jamesincognito/signal-dashboard/internal/models"
	"github.com/jamesincognito/signal-dashboard/internal/utils"
)

const newsAPIBaseURL = "https://newsapi.org/v2"

// FeedFetcher pulls raw news items from registered sources. It understands
// RSS/Atom feeds and the NewsAPI everything endpoint; manual sources have
// nothing to fetch.
type FeedFetcher struct {
	httpClient *http.Client
	parser     *gofeed.Parser
	newsAPI    config.NewsAPIConfig
	logger     *logrus.Logger
}

// NewFeedFetcher creates a fetcher with a shared HTTP client.
func NewFeedFetcher(cfg config.NewsAPIConfig, timeout time.Duration, logger *logrus.Logger) *FeedFetcher {
	client := &http.Client{Timeout: timeout}
	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = "signal-dashboard/1.0"

	return &FeedFetcher{
		httpClient: client,
		parser:     parser,
		newsAPI:    cfg,
		logger:     logger,
	}
}

// Fetch retrieves the current items for one source. Manual sources yield an
// empty list. Remote failures come back as FetchError so the caller can
// record them without aborting the rest of the run.
func (f *FeedFetcher) Fetch(ctx context.Context, source models.Source) ([]models.RawItem, error) {
	switch source.Kind {
	case models.SourceKindRSS:
		return f.fetchRSS(ctx, source)
	case models.SourceKindNewsAPI:
		return f.fetchNewsAPI(ctx, source)
	case models.SourceKindManual:
		return nil, nil
	}
	return nil, utils.NewValidationErrorf("source %q has unknown kind %q", source.Name, source.Kind)
}

func (f *FeedFetcher) fetchRSS(ctx context.Context, source models.Source) ([]models.RawItem, error) {
	if source.URL == nil || *source.URL == "" {
		return nil, utils.NewValidationErrorf("rss source %q has no url", source.Name)
	}

	feed, err := f.parser.ParseURLWithContext(*source.URL, ctx)
	if err != nil {
		return nil, utils.NewFetchError(source.Name, err)
	}

	items := make([]models.RawItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry == nil || strings.TrimSpace(entry.Title) == "" {
			continue
		}

		item := models.RawItem{
			Title:   strings.TrimSpace(entry.Title),
			URL:     strings.TrimSpace(entry.Link),
			Content: stripHTML(firstNonEmpty(entry.Content, entry.Description)),
		}
		if entry.PublishedParsed != nil {
			t := entry.PublishedParsed.UTC()
			item.PublishedAt = &t
		} else if entry.UpdatedParsed != nil {
			t := entry.UpdatedParsed.UTC()
			item.PublishedAt = &t
		}
		if len(entry.Authors) > 0 && entry.Authors[0] != nil {
			item.Author = strings.TrimSpace(entry.Authors[0].Name)
		}
		items = append(items, item)
	}

	f.logger.WithFields(logrus.Fields{
		"source": source.Name,
		"items":  len(items),
	}).Debug("Fetched RSS feed")

	return items, nil
}

// newsAPIResponse is the subset of the NewsAPI everything response we read.
type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string     `json:"title"`
		URL         string     `json:"url"`
		Author      string     `json:"author"`
		Description string     `json:"description"`
		Content     string     `json:"content"`
		PublishedAt *time.Time `json:"publishedAt"`
	} `json:"articles"`
}

// newsAPISourceConfig is the per-source JSON config for NewsAPI sources.
type newsAPISourceConfig struct {
	Query    string `json:"query"`
	Language string `json:"language"`
}

func (f *FeedFetcher) fetchNewsAPI(ctx context.Context, source models.Source) ([]models.RawItem, error) {
	if f.newsAPI.APIKey == "" {
		f.logger.WithField("source", source.Name).Debug("NewsAPI key not configured, skipping source")
		return nil, nil
	}

	var cfg newsAPISourceConfig
	if source.Config != nil && *source.Config != "" {
		if err := json.Unmarshal([]byte(*source.Config), &cfg); err != nil {
			return nil, utils.NewValidationErrorf("newsapi source %q has invalid config: %v", source.Name, err)
		}
	}
	if cfg.Query == "" {
		return nil, utils.NewValidationErrorf("newsapi source %q has no query configured", source.Name)
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}

	params := url.Values{}
	params.Set("q", cfg.Query)
	params.Set("language", cfg.Language)
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", fmt.Sprintf("%d", f.newsAPI.PageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		newsAPIBaseURL+"/everything?"+params.Encode(), nil)
	if err != nil {
		return nil, utils.NewFetchError(source.Name, err)
	}
	req.Header.Set("X-Api-Key", f.newsAPI.APIKey)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, utils.NewFetchError(source.Name, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var body newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, utils.NewFetchError(source.Name, fmt.Errorf("decode response: %w", err))
	}
	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		return nil, utils.NewFetchError(source.Name,
			fmt.Errorf("newsapi status %d (%s): %s", resp.StatusCode, body.Code, body.Message))
	}

	items := make([]models.RawItem, 0, len(body.Articles))
	for _, a := range body.Articles {
		title := strings.TrimSpace(a.Title)
		if title == "" || title == "[Removed]" {
			continue
		}
		items = append(items, models.RawItem{
			Title:       title,
			URL:         a.URL,
			Author:      strings.TrimSpace(a.Author),
			Content:     stripHTML(firstNonEmpty(a.Content, a.Description)),
			PublishedAt: a.PublishedAt,
		})
	}

	f.logger.WithFields(logrus.Fields{
		"source": source.Name,
		"items":  len(items),
	}).Debug("Fetched NewsAPI source")

	return items, nil
}

var (
	tagRe        = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// stripHTML reduces feed markup to plain text. Feed descriptions routinely
// embed full HTML fragments; only the text matters for analysis.
func stripHTML(s string) string {
	s = tagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

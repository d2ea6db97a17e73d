package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesincognito/signal-dashboard/internal/config"
	"github.com/jamesincognito/signal-dashboard/internal/database"
	"github.com/jamesincognito/signal-dashboard/internal/theses"
	"github.com/jamesincognito/signal-dashboard/pkg/extractor"
)

func rssServer(t *testing.T, title string) *httptest.Server {
	t.Helper()
	body := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <item>
      <title>%s</title>
      <link>https://example.com/%d</link>
      <description>Body text long enough to analyze.</description>
      <pubDate>Mon, 24 Aug 2026 09:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`, title, time.Now().UnixNano())
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

// One source being down must not abort the run: the summary records the
// failure and the remaining sources are fetched, analyzed, and persisted.
func TestIngestionRun_IsolatesSourceFailures(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	// Concurrent source fetches complete in no particular order.
	mockPool.MatchExpectationsInOrder(false)

	good1 := rssServer(t, "Vendor announces major layoffs tied to automation")
	good2 := rssServer(t, "Enterprise software prices fall for third quarter")
	good3 := rssServer(t, "Datacenter operator misses debt covenant")
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(bad.Close)

	now := time.Now().UTC()
	sourceRows := pgxmock.NewRows([]string{
		"id", "name", "kind", "url", "config", "enabled", "last_fetched_at", "created_at",
	})
	for i, s := range []struct {
		name string
		url  string
	}{
		{"good-1", good1.URL},
		{"good-2", good2.URL},
		{"good-3", good3.URL},
		{"bad", bad.URL},
	} {
		sourceRows.AddRow(int64(i+1), s.name, "rss", &s.url, nil, true, nil, now)
	}
	mockPool.ExpectQuery("FROM sources WHERE enabled").WillReturnRows(sourceRows)

	articleColumns := []string{
		"id", "source_id", "external_id", "title", "url", "author", "content",
		"published_at", "ingested_at", "analysis_status",
	}
	published := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		sourceID := int64(i + 1)
		mockPool.ExpectQuery("INSERT INTO articles").
			WithArgs(
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			).
			WillReturnRows(pgxmock.NewRows(articleColumns).AddRow(
				int64(101+i), &sourceID, fmt.Sprintf("ext-%d", i), "A headline long enough to analyze",
				nil, nil, "body", &published, now, "pending"))
		mockPool.ExpectExec("UPDATE sources SET last_fetched_at").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	}

	mockPool.ExpectExec("analysis_status = 'skipped'").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	pendingRows := pgxmock.NewRows(articleColumns)
	for i := 0; i < 3; i++ {
		sourceID := int64(i + 1)
		pendingRows.AddRow(
			int64(101+i), &sourceID, fmt.Sprintf("ext-%d", i), "A headline long enough to analyze",
			nil, nil, "body", &published, now, "pending")
	}
	mockPool.ExpectQuery("analysis_status = 'pending' AND length\\(title\\) > 10").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pendingRows)

	for i := 0; i < 3; i++ {
		mockPool.ExpectQuery("INSERT INTO signals").
			WithArgs(
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(),
			).
			WillReturnRows(pgxmock.NewRows([]string{
				"id", "thesis_id", "article_id", "data_point_id", "origin", "direction", "strength",
				"confidence", "evidence_quote", "reasoning", "source_title", "source_url",
				"signal_date", "is_manual", "created_at",
			}).AddRow(
				int64(1000+i), "ai_deflation", nil, nil, "news", "supporting", 6,
				0.9, "q", "r", nil, nil, published, false, now))
		mockPool.ExpectExec("UPDATE articles SET analysis_status = \\$2").
			WithArgs(pgxmock.AnyArg(), "analyzed").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	}

	mockPool.ExpectExec("DELETE FROM articles WHERE analysis_status").
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	fake := &fakeExtractor{result: &extractor.AnalysisResult{
		Signals: []extractor.Candidate{
			{ThesisID: "ai_deflation", IsRelevant: true, Direction: "supporting", Strength: 6, Confidence: 0.9},
		},
	}}

	cfg := testIngestionConfig()
	cfg.Concurrency = 1

	svc := NewIngestionService(
		database.NewSourceRepository(mockPool),
		database.NewArticleRepository(mockPool),
		database.NewSignalRepository(mockPool),
		NewFeedFetcher(config.NewsAPIConfig{}, 5*time.Second, quietLogger()),
		NewExtractionService(fake, theses.Default(), quietLogger()),
		cfg,
		quietLogger(),
	)

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.NotEmpty(t, summary.RunID)
	assert.Len(t, summary.Sources, 4)
	assert.Equal(t, 3, summary.ArticlesNew)
	assert.Equal(t, 3, summary.ArticlesAnalyzed)
	assert.Equal(t, 3, summary.SignalsCreated)
	assert.Equal(t, int64(2), summary.ArticlesPruned)
	assert.Equal(t, 1, summary.Errors)

	for _, r := range summary.Sources {
		if r.SourceName == "bad" {
			assert.NotEmpty(t, r.Error)
			assert.Zero(t, r.New)
		} else {
			assert.Empty(t, r.Error)
			assert.Equal(t, 1, r.Fetched)
			assert.Equal(t, 1, r.New)
		}
	}

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

package models

import "time"

// TrendDirection classifies how a thesis score moved between windows.
type TrendDirection string

const (
	TrendRising  TrendDirection = "rising"
	TrendFalling TrendDirection = "falling"
	TrendStable  TrendDirection = "stable"
)

// TrendPoint is one day on a thesis score curve. Count is the number of
// signals contributing up to and including that day.
type TrendPoint struct {
	Date  string  `json:"date"`
	Score float64 `json:"score"`
	Count int     `json:"count"`
}

// OriginCounts breaks down signal counts by producing pipeline.
type OriginCounts struct {
	News   int `json:"news"`
	Data   int `json:"data"`
	Manual int `json:"manual"`
}

// ThesisDashboard is the per-thesis slice of the dashboard snapshot.
type ThesisDashboard struct {
	ThesisID          string         `json:"thesis_id"`
	ThesisName        string         `json:"thesis_name"`
	ThesisDescription string         `json:"thesis_description"`
	CurrentScore      float64        `json:"current_score"`
	PreviousScore     *float64       `json:"previous_score"`
	Trend             TrendDirection `json:"trend"`
	TrendSeries       []TrendPoint   `json:"trend_series"`
	RecentSignals     []Signal       `json:"recent_signals"`
	SignalCount24h    OriginCounts   `json:"signal_count_24h"`
	SignalCount7d     OriginCounts   `json:"signal_count_7d"`
	SupportingPct     float64        `json:"supporting_pct"`
}

// DashboardSnapshot is the full computed dashboard. It is a pure function
// of the signal store as of the query; nothing here is persisted as truth.
type DashboardSnapshot struct {
	Theses        []ThesisDashboard `json:"theses"`
	TotalArticles int               `json:"total_articles"`
	TotalSignals  int               `json:"total_signals"`
	LastIngestion *time.Time        `json:"last_ingestion"`
	WindowDays    int               `json:"window_days"`
	GeneratedAt   time.Time         `json:"generated_at"`
}

// IngestionStatus summarizes the state of the news pipeline backlog.
type IngestionStatus struct {
	LastRun          *time.Time `json:"last_run"`
	ArticlesTotal    int        `json:"articles_total"`
	ArticlesPending  int        `json:"articles_pending"`
	ArticlesAnalyzed int        `json:"articles_analyzed"`
	SourcesEnabled   int        `json:"sources_enabled"`
}

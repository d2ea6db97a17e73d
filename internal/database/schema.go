package database

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sources (
    id              BIGSERIAL PRIMARY KEY,
    name            TEXT NOT NULL,
    kind            TEXT NOT NULL,
    url             TEXT,
    config          TEXT,
    enabled         BOOLEAN NOT NULL DEFAULT TRUE,
    last_fetched_at TIMESTAMPTZ,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS articles (
    id              BIGSERIAL PRIMARY KEY,
    source_id       BIGINT REFERENCES sources(id) ON DELETE SET NULL,
    external_id     TEXT NOT NULL UNIQUE,
    title           TEXT NOT NULL,
    url             TEXT,
    author          TEXT,
    content         TEXT NOT NULL DEFAULT '',
    published_at    TIMESTAMPTZ,
    ingested_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    analysis_status TEXT NOT NULL DEFAULT 'pending'
);

CREATE TABLE IF NOT EXISTS data_series (
    id              TEXT PRIMARY KEY,
    thesis_id       TEXT NOT NULL,
    name            TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    provider        TEXT NOT NULL,
    config          TEXT NOT NULL,
    unit            TEXT NOT NULL DEFAULT '',
    direction_logic TEXT NOT NULL,
    enabled         BOOLEAN NOT NULL DEFAULT TRUE,
    last_fetched_at TIMESTAMPTZ,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS data_points (
    id        BIGSERIAL PRIMARY KEY,
    series_id TEXT NOT NULL REFERENCES data_series(id) ON DELETE CASCADE,
    date      DATE NOT NULL,
    value     NUMERIC NOT NULL,
    UNIQUE (series_id, date)
);

CREATE TABLE IF NOT EXISTS signals (
    id             BIGSERIAL PRIMARY KEY,
    thesis_id      TEXT NOT NULL,
    article_id     BIGINT REFERENCES articles(id) ON DELETE SET NULL,
    data_point_id  BIGINT REFERENCES data_points(id) ON DELETE SET NULL,
    origin         TEXT NOT NULL,
    direction      TEXT NOT NULL,
    strength       INTEGER NOT NULL CHECK (strength BETWEEN 1 AND 10),
    confidence     DOUBLE PRECISION NOT NULL CHECK (confidence BETWEEN 0 AND 1),
    evidence_quote TEXT NOT NULL,
    reasoning      TEXT NOT NULL,
    source_title   TEXT,
    source_url     TEXT,
    signal_date    DATE NOT NULL,
    is_manual      BOOLEAN NOT NULL DEFAULT FALSE,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_articles_status ON articles(analysis_status);
CREATE INDEX IF NOT EXISTS idx_signals_thesis_date ON signals(thesis_id, signal_date);
CREATE INDEX IF NOT EXISTS idx_signals_data_point ON signals(data_point_id);
CREATE INDEX IF NOT EXISTS idx_data_points_series_date ON data_points(series_id, date);
`

// InitSchema creates all tables and indexes if they do not exist yet.
func InitSchema(ctx context.Context, pool Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	logrus.Info("Database schema initialized")
	return nil
}

type seedSource struct {
	name string
	kind string
	url  string
}

var seedSources = []seedSource{
	// AI Job Displacement feeds
	{
		name: "Google News — AI Layoffs & Job Displacement",
		kind: "rss",
		url: "https://news.google.com/rss/search?" +
			"q=%22AI+layoffs%22+OR+%22AI+replacing+jobs%22+OR+" +
			"%22AI+automation+workforce%22+OR+%22AI+job+losses%22" +
			"&hl=en-US&gl=US&ceid=US:en",
	},
	{
		name: "Google News — AI Workforce Reduction",
		kind: "rss",
		url: "https://news.google.com/rss/search?" +
			"q=%22workforce+reduction+AI%22+OR+%22AI+hiring+freeze%22+OR+" +
			"%22white+collar+automation%22+OR+%22AI+headcount%22" +
			"&hl=en-US&gl=US&ceid=US:en",
	},
	// AI Deflation feeds
	{
		name: "Google News — AI Deflation & Price Disruption",
		kind: "rss",
		url: "https://news.google.com/rss/search?" +
			"q=%22AI+deflation%22+OR+%22AI+price+disruption%22+OR+" +
			"%22SaaS+AI+competition%22+OR+%22AI+cost+reduction%22" +
			"&hl=en-US&gl=US&ceid=US:en",
	},
	{
		name: "Google News — AI Software Pricing Pressure",
		kind: "rss",
		url: "https://news.google.com/rss/search?" +
			"q=%22software+pricing+pressure+AI%22+OR+%22AI+margin+compression%22+OR+" +
			"%22cheaper+AI+tools%22+OR+%22AI+disrupting+SaaS%22" +
			"&hl=en-US&gl=US&ceid=US:en",
	},
	// Datacenter Credit Crisis feeds
	{
		name: "Google News — Datacenter Overbuilding & Credit",
		kind: "rss",
		url: "https://news.google.com/rss/search?" +
			"q=%22datacenter+overbuilding%22+OR+%22AI+capex%22+OR+" +
			"%22datacenter+credit%22+OR+%22datacenter+debt%22" +
			"&hl=en-US&gl=US&ceid=US:en",
	},
	{
		name: "Google News — GPU Obsolescence & Stranded Assets",
		kind: "rss",
		url: "https://news.google.com/rss/search?" +
			"q=%22GPU+obsolescence%22+OR+%22stranded+datacenter+assets%22+OR+" +
			"%22AI+infrastructure+spending%22+OR+%22datacenter+financing%22" +
			"&hl=en-US&gl=US&ceid=US:en",
	},
	// Broad AI / tech feeds
	{name: "TechCrunch — AI", kind: "rss", url: "https://techcrunch.com/category/artificial-intelligence/feed/"},
	{name: "Ars Technica — AI", kind: "rss", url: "https://feeds.arstechnica.com/arstechnica/technology-lab"},
	{name: "The Verge — AI", kind: "rss", url: "https://www.theverge.com/rss/ai-artificial-intelligence/index.xml"},
}

type seedSeries struct {
	id, thesisID, name, description, provider, config, unit, directionLogic string
}

var seedDataSeries = []seedSeries{
	{
		id:             "fred_icsa",
		thesisID:       "ai_job_displacement",
		name:           "Initial Jobless Claims",
		description:    "Weekly initial unemployment insurance claims (ICSA).",
		provider:       "fred",
		config:         `{"series_id": "ICSA"}`,
		unit:           "claims",
		directionLogic: "higher_supporting",
	},
	{
		id:             "fred_unrate",
		thesisID:       "ai_job_displacement",
		name:           "Unemployment Rate",
		description:    "Civilian unemployment rate (UNRATE).",
		provider:       "fred",
		config:         `{"series_id": "UNRATE"}`,
		unit:           "%",
		directionLogic: "higher_supporting",
	},
	{
		id:             "bls_software_ppi",
		thesisID:       "ai_deflation",
		name:           "Software Publishers PPI",
		description:    "Producer price index for software publishers.",
		provider:       "bls",
		config:         `{"series_id": "PCU511210511210"}`,
		unit:           "index",
		directionLogic: "lower_supporting",
	},
	{
		id:             "sec_msft_capex",
		thesisID:       "datacenter_credit_crisis",
		name:           "Microsoft Quarterly Capex",
		description:    "Payments to acquire property, plant and equipment from 10-Q/10-K filings.",
		provider:       "sec_edgar",
		config:         `{"cik": "0000789019", "ticker": "MSFT"}`,
		unit:           "$B",
		directionLogic: "higher_supporting",
	},
	{
		id:             "fred_bbb_spread",
		thesisID:       "datacenter_credit_crisis",
		name:           "BBB Corporate Spread",
		description:    "ICE BofA BBB US corporate index option-adjusted spread.",
		provider:       "fred",
		config:         `{"series_id": "BAMLC0A4CBBB"}`,
		unit:           "%",
		directionLogic: "higher_supporting",
	},
}

// SeedSources inserts the default feed list when the sources table is
// empty. Operator-configured sources are never re-seeded over.
func SeedSources(ctx context.Context, pool Pool) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM sources").Scan(&count); err != nil {
		return fmt.Errorf("failed to count sources: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, s := range seedSources {
		if _, err := pool.Exec(ctx,
			"INSERT INTO sources (name, kind, url, enabled) VALUES ($1, $2, $3, TRUE)",
			s.name, s.kind, s.url); err != nil {
			return fmt.Errorf("failed to seed source %q: %w", s.name, err)
		}
	}
	logrus.Infof("Seeded %d default sources", len(seedSources))
	return nil
}

// SeedDataSeries inserts the default data-series definitions, skipping ids
// that already exist.
func SeedDataSeries(ctx context.Context, pool Pool) error {
	for _, s := range seedDataSeries {
		if _, err := pool.Exec(ctx,
			`INSERT INTO data_series (id, thesis_id, name, description, provider, config, unit, direction_logic, enabled)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
			 ON CONFLICT (id) DO NOTHING`,
			s.id, s.thesisID, s.name, s.description, s.provider, s.config, s.unit, s.directionLogic); err != nil {
			return fmt.Errorf("failed to seed data series %q: %w", s.id, err)
		}
	}
	logrus.Infof("Seeded %d data series definitions", len(seedDataSeries))
	return nil
}

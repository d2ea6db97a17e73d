package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jamesincognito/signal-dashboard/internal/theses"
)

type Config struct {
	Environment string           `mapstructure:"environment"`
	LogLevel    string           `mapstructure:"log_level"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Redis       RedisConfig      `mapstructure:"redis"`
	Extraction  ExtractionConfig `mapstructure:"extraction"`
	NewsAPI     NewsAPIConfig    `mapstructure:"newsapi"`
	Providers   ProvidersConfig  `mapstructure:"providers"`
	Ingestion   IngestionConfig  `mapstructure:"ingestion"`
	Aggregation AggregationConfig `mapstructure:"aggregation"`
	Theses      []theses.Thesis  `mapstructure:"theses"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	APIKey         string   `mapstructure:"api_key" json:"-" yaml:"-"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ExtractionConfig points at the external signal-extraction capability.
type ExtractionConfig struct {
	APIKey    string `mapstructure:"api_key" json:"-" yaml:"-"`
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
	Timeout   string `mapstructure:"timeout"`
}

type NewsAPIConfig struct {
	APIKey   string `mapstructure:"api_key" json:"-" yaml:"-"`
	PageSize int    `mapstructure:"page_size"`
}

// ProvidersConfig carries credentials for structured-data backends. FRED
// and BLS work without keys at reduced limits; SEC EDGAR only needs a
// descriptive User-Agent.
type ProvidersConfig struct {
	FREDAPIKey   string `mapstructure:"fred_api_key" json:"-" yaml:"-"`
	BLSAPIKey    string `mapstructure:"bls_api_key" json:"-" yaml:"-"`
	SECUserAgent string `mapstructure:"sec_user_agent"`
}

type IngestionConfig struct {
	NewsInterval     string `mapstructure:"news_interval"`
	DataInterval     string `mapstructure:"data_interval"`
	FetchTimeout     string `mapstructure:"fetch_timeout"`
	RefreshTimeout   string `mapstructure:"refresh_timeout"`
	Concurrency      int    `mapstructure:"concurrency"`
	AnalysisBatch    int    `mapstructure:"analysis_batch"`
	ArticleRetention string `mapstructure:"article_retention"`
}

type AggregationConfig struct {
	WindowDays       int    `mapstructure:"window_days"`
	LookbackDays     int    `mapstructure:"lookback_days"`
	DashboardCacheTTL string `mapstructure:"dashboard_cache_ttl"`
}

func Load() (*Config, error) {
	// .env first so viper's AutomaticEnv sees the keys
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("extraction.api_key", "ANTHROPIC_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind ANTHROPIC_API_KEY: %w", err)
	}
	if err := viper.BindEnv("newsapi.api_key", "NEWSAPI_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind NEWSAPI_KEY: %w", err)
	}
	if err := viper.BindEnv("providers.fred_api_key", "FRED_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind FRED_API_KEY: %w", err)
	}
	if err := viper.BindEnv("providers.bls_api_key", "BLS_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind BLS_API_KEY: %w", err)
	}
	if err := viper.BindEnv("server.api_key", "DASHBOARD_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind DASHBOARD_API_KEY: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	for _, key := range []struct{ name, value string }{
		{"ingestion.news_interval", config.Ingestion.NewsInterval},
		{"ingestion.data_interval", config.Ingestion.DataInterval},
		{"ingestion.fetch_timeout", config.Ingestion.FetchTimeout},
		{"ingestion.refresh_timeout", config.Ingestion.RefreshTimeout},
		{"ingestion.article_retention", config.Ingestion.ArticleRetention},
		{"extraction.timeout", config.Extraction.Timeout},
		{"aggregation.dashboard_cache_ttl", config.Aggregation.DashboardCacheTTL},
	} {
		if _, err := time.ParseDuration(key.value); err != nil {
			return nil, fmt.Errorf("invalid duration for %s: %w", key.name, err)
		}
	}

	if config.Ingestion.Concurrency < 1 {
		return nil, fmt.Errorf("ingestion concurrency must be at least 1, got %d", config.Ingestion.Concurrency)
	}
	if config.Aggregation.WindowDays < 1 {
		return nil, fmt.Errorf("aggregation window must be at least 1 day, got %d", config.Aggregation.WindowDays)
	}

	return &config, nil
}

// Duration returns a parsed duration that Load has already validated.
func Duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// Catalog returns the configured thesis catalog, falling back to the
// built-in set when the config file names none.
func (c *Config) Catalog() *theses.Catalog {
	if len(c.Theses) == 0 {
		return theses.Default()
	}
	return theses.NewCatalog(c.Theses)
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	viper.SetDefault("server.api_key", "")

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "signal_dashboard")
	viper.SetDefault("database.sslmode", "disable")

	// Redis
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Extraction capability
	viper.SetDefault("extraction.api_key", "")
	viper.SetDefault("extraction.base_url", "https://api.anthropic.com")
	viper.SetDefault("extraction.model", "claude-haiku-4-5-20251001")
	viper.SetDefault("extraction.max_tokens", 2048)
	viper.SetDefault("extraction.timeout", "60s")

	// NewsAPI
	viper.SetDefault("newsapi.api_key", "")
	viper.SetDefault("newsapi.page_size", 20)

	// Structured-data providers
	viper.SetDefault("providers.fred_api_key", "")
	viper.SetDefault("providers.bls_api_key", "")
	viper.SetDefault("providers.sec_user_agent", "SignalDashboard admin@signaldashboard.app")

	// Ingestion
	viper.SetDefault("ingestion.news_interval", "2h")
	viper.SetDefault("ingestion.data_interval", "6h")
	viper.SetDefault("ingestion.fetch_timeout", "30s")
	viper.SetDefault("ingestion.refresh_timeout", "5m")
	viper.SetDefault("ingestion.concurrency", 4)
	viper.SetDefault("ingestion.analysis_batch", 50)
	viper.SetDefault("ingestion.article_retention", "2160h") // 90 days

	// Aggregation
	viper.SetDefault("aggregation.window_days", 30)
	viper.SetDefault("aggregation.lookback_days", 30)
	viper.SetDefault("aggregation.dashboard_cache_ttl", "60s")
}

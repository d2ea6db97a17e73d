package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadClean(t *testing.T) *Config {
	t.Helper()
	viper.Reset()
	cfg, err := Load()
	require.NoError(t, err)
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := loadClean(t)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "signal_dashboard", cfg.Database.DBName)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, "https://api.anthropic.com", cfg.Extraction.BaseURL)
	assert.Equal(t, "2h", cfg.Ingestion.NewsInterval)
	assert.Equal(t, "6h", cfg.Ingestion.DataInterval)
	assert.Equal(t, 4, cfg.Ingestion.Concurrency)
	assert.Equal(t, "2160h", cfg.Ingestion.ArticleRetention)
	assert.Equal(t, 30, cfg.Aggregation.WindowDays)
	assert.Equal(t, 30, cfg.Aggregation.LookbackDays)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("DASHBOARD_API_KEY", "gate")

	cfg := loadClean(t)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "sk-test", cfg.Extraction.APIKey)
	assert.Equal(t, "gate", cfg.Server.APIKey)
}

func TestLoadRejectsBadDurations(t *testing.T) {
	t.Setenv("INGESTION_NEWS_INTERVAL", "every other tuesday")
	viper.Reset()
	_, err := Load()
	assert.Error(t, err)
}

func TestCatalogFallsBackToBuiltin(t *testing.T) {
	cfg := loadClean(t)
	catalog := cfg.Catalog()
	assert.Equal(t, 3, catalog.Len())
	assert.True(t, catalog.Valid("datacenter_credit_crisis"))
}

func TestDuration(t *testing.T) {
	assert.Equal(t, "2h0m0s", Duration("2h").String())
}

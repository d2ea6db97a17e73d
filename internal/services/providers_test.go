package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesincognito/signal-dashboard/internal/config"
	"github.com/jamesincognito/signal-dashboard/internal/models"
	"github.com/jamesincognito/signal-dashboard/internal/utils"
)

func TestParseObservation(t *testing.T) {
	obs, ok := parseObservation("2026-08-15", "247000")
	require.True(t, ok)
	assert.Equal(t, 2026, obs.Date.Year())
	assert.Equal(t, "247000", obs.Value.String())

	// FRED uses "." for missing values.
	_, ok = parseObservation("2026-08-15", ".")
	assert.False(t, ok)

	_, ok = parseObservation("2026-08-15", "")
	assert.False(t, ok)

	_, ok = parseObservation("15/08/2026", "1")
	assert.False(t, ok)

	_, ok = parseObservation("2026-08-15", "not-a-number")
	assert.False(t, ok)
}

func TestNewProviderClients_CoversAllProviders(t *testing.T) {
	clients := NewProviderClients(config.ProvidersConfig{
		SECUserAgent: "test agent@example.com",
	}, 5*time.Second)

	for _, provider := range []models.DataProvider{
		models.ProviderFRED, models.ProviderBLS, models.ProviderSECEdgar,
	} {
		assert.Contains(t, clients, provider)
	}
}

func TestProviderConfigValidation(t *testing.T) {
	client := &http.Client{Timeout: time.Second}
	ctx := context.Background()

	fred := &fredClient{httpClient: client}
	_, err := fred.FetchObservations(ctx, models.DataSeries{ID: "s", Config: "not json"})
	assert.True(t, utils.IsValidationError(err))
	_, err = fred.FetchObservations(ctx, models.DataSeries{ID: "s", Config: "{}"})
	assert.True(t, utils.IsValidationError(err))

	bls := &blsClient{httpClient: client}
	_, err = bls.FetchObservations(ctx, models.DataSeries{ID: "s", Config: "{}"})
	assert.True(t, utils.IsValidationError(err))

	sec := &secEdgarClient{httpClient: client, userAgent: "t"}
	_, err = sec.FetchObservations(ctx, models.DataSeries{ID: "s", Config: "{}"})
	assert.True(t, utils.IsValidationError(err))
}

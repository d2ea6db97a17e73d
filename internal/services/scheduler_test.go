package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesincognito/signal-dashboard/internal/config"
	"github.com/jamesincognito/signal-dashboard/internal/utils"
)

func testIngestionConfig() config.IngestionConfig {
	return config.IngestionConfig{
		NewsInterval:     "2h",
		DataInterval:     "6h",
		FetchTimeout:     "5s",
		RefreshTimeout:   "1m",
		Concurrency:      2,
		AnalysisBatch:    10,
		ArticleRetention: "2160h",
	}
}

func TestTriggerNews_SingleFlight(t *testing.T) {
	s := NewScheduler(nil, nil, testIngestionConfig(), quietLogger())

	// Hold the pipeline lock as if a run were in flight.
	s.newsMu.Lock()
	defer s.newsMu.Unlock()

	_, err := s.TriggerNews(context.Background())
	require.Error(t, err)
	assert.True(t, utils.IsConflictError(err))
}

func TestTriggerData_SingleFlight(t *testing.T) {
	s := NewScheduler(nil, nil, testIngestionConfig(), quietLogger())

	s.dataMu.Lock()
	defer s.dataMu.Unlock()

	_, err := s.TriggerData(context.Background())
	require.Error(t, err)
	assert.True(t, utils.IsConflictError(err))
}

func TestRunLoops_SwallowConflicts(t *testing.T) {
	s := NewScheduler(nil, nil, testIngestionConfig(), quietLogger())

	s.newsMu.Lock()
	defer s.newsMu.Unlock()

	// A tick that loses the race against a manual trigger is not an error.
	assert.NoError(t, s.runNews(context.Background()))
}

func TestOnComplete_FiresAfterConflictFreePath(t *testing.T) {
	s := NewScheduler(nil, nil, testIngestionConfig(), quietLogger())

	fired := false
	s.OnComplete(func() { fired = true })
	s.notifyComplete()
	assert.True(t, fired)
}

package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	validation := NewValidationErrorf("strength must be between %d and %d", 1, 10)
	assert.True(t, IsValidationError(validation))
	assert.False(t, IsNotFoundError(validation))
	assert.Equal(t, "strength must be between 1 and 10", validation.Error())

	notFound := NewNotFoundError("signal", "42")
	assert.True(t, IsNotFoundError(notFound))
	assert.Equal(t, "signal not found: 42", notFound.Error())

	conflict := NewConflictErrorf("data series %q already exists", "fred_icsa")
	assert.True(t, IsConflictError(conflict))

	cause := errors.New("connection refused")
	fetch := NewFetchError("Tech Wire", cause)
	assert.True(t, IsFetchError(fetch))
	assert.ErrorIs(t, fetch, cause)

	extraction := NewExtractionError(cause)
	assert.True(t, IsExtractionError(extraction))
	assert.ErrorIs(t, extraction, cause)
}

func TestTaxonomySurvivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("running pipeline: %w", NewFetchError("feed", errors.New("timeout")))
	assert.True(t, IsFetchError(wrapped))
	assert.False(t, IsExtractionError(wrapped))
}

package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jamesincognito/signal-dashboard/internal/models"
)

func TestStrengthForChange(t *testing.T) {
	cases := []struct {
		change   float64
		expected int
	}{
		{0.5, 3},
		{-0.9, 3},
		{1, 5},
		{-2.9, 5},
		{3, 6},
		{-4.9, 6},
		{5, 7},
		{-9.9, 7},
		{10, 8},
		{-19.9, 8},
		{20, 9},
		{-80, 9},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, strengthForChange(tc.change), "change %.1f%%", tc.change)
	}
}

func TestDirectionLogicInterpret(t *testing.T) {
	pct := func(v float64) *float64 { return &v }

	dir, ok := models.HigherSupporting.Interpret(pct(12))
	assert.True(t, ok)
	assert.Equal(t, models.DirectionSupporting, dir)

	dir, ok = models.HigherSupporting.Interpret(pct(-12))
	assert.True(t, ok)
	assert.Equal(t, models.DirectionWeakening, dir)

	dir, ok = models.LowerSupporting.Interpret(pct(-12))
	assert.True(t, ok)
	assert.Equal(t, models.DirectionSupporting, dir)

	dir, ok = models.LowerSupporting.Interpret(pct(12))
	assert.True(t, ok)
	assert.Equal(t, models.DirectionWeakening, dir)

	_, ok = models.HigherSupporting.Interpret(nil)
	assert.False(t, ok)

	_, ok = models.HigherSupporting.Interpret(pct(0))
	assert.False(t, ok)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "247.00 thousands", formatValue(247, "thousands"))
	assert.Equal(t, "1.25", formatValue(1.25, ""))
}

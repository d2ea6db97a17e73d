package models

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSignalValidate(t *testing.T) {
	valid := Signal{
		ThesisID:   "ai_deflation",
		Origin:     OriginNews,
		Direction:  DirectionSupporting,
		Strength:   5,
		Confidence: 0.8,
	}
	assert.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*Signal)
	}{
		{"strength too low", func(s *Signal) { s.Strength = 0 }},
		{"strength too high", func(s *Signal) { s.Strength = 11 }},
		{"confidence negative", func(s *Signal) { s.Confidence = -0.1 }},
		{"confidence above one", func(s *Signal) { s.Confidence = 1.1 }},
		{"bad direction", func(s *Signal) { s.Direction = "sideways" }},
		{"bad origin", func(s *Signal) { s.Origin = "telepathy" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := valid
			tc.mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestSignalWeight(t *testing.T) {
	supporting := Signal{Direction: DirectionSupporting, Strength: 8, Confidence: 0.5}
	assert.InDelta(t, 4.0, supporting.Weight(), 1e-9)

	weakening := Signal{Direction: DirectionWeakening, Strength: 8, Confidence: 0.5}
	assert.InDelta(t, -4.0, weakening.Weight(), 1e-9)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", MaxExcerptLen))

	long := strings.Repeat("x", MaxExcerptLen+100)
	assert.Len(t, Truncate(long, MaxExcerptLen), MaxExcerptLen)

	// The cut must land on a rune boundary: 200 euro signs are 600 bytes,
	// and 500 falls mid-rune.
	euros := strings.Repeat("€", 200)
	cut := Truncate(euros, MaxExcerptLen)
	assert.True(t, utf8.ValidString(cut))
	assert.Len(t, cut, 498)
}

func TestParseEnums(t *testing.T) {
	_, err := ParseSignalDirection("supporting")
	assert.NoError(t, err)
	_, err = ParseSignalDirection("Supporting")
	assert.Error(t, err)

	_, err = ParseSignalOrigin("data")
	assert.NoError(t, err)
	_, err = ParseSignalOrigin("")
	assert.Error(t, err)

	_, err = ParseSourceKind("newsapi")
	assert.NoError(t, err)
	_, err = ParseSourceKind("atom")
	assert.Error(t, err)

	_, err = ParseDataProvider("sec_edgar")
	assert.NoError(t, err)
	_, err = ParseDataProvider("edgar")
	assert.Error(t, err)
}

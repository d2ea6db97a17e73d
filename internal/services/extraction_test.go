package services

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesincognito/signal-dashboard/internal/models"
	"github.com/jamesincognito/signal-dashboard/internal/theses"
	"github.com/jamesincognito/signal-dashboard/internal/utils"
	"github.com/jamesincognito/signal-dashboard/pkg/extractor"
)

type fakeExtractor struct {
	result *extractor.AnalysisResult
	err    error
}

func (f *fakeExtractor) Analyze(_ context.Context, _ extractor.Item, _ []extractor.Thesis) (*extractor.AnalysisResult, error) {
	return f.result, f.err
}

func (f *fakeExtractor) Enabled() bool { return true }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testArticle() *models.Article {
	url := "https://example.com/story"
	published := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	return &models.Article{
		ID:          42,
		Title:       "Major software vendor cuts prices citing AI competition",
		URL:         &url,
		PublishedAt: &published,
	}
}

func TestAnalyzeArticle_ValidCandidates(t *testing.T) {
	fake := &fakeExtractor{result: &extractor.AnalysisResult{
		Signals: []extractor.Candidate{
			{
				ThesisID:      "ai_deflation",
				IsRelevant:    true,
				Direction:     "supporting",
				Strength:      7,
				Confidence:    0.9,
				EvidenceQuote: "cuts prices citing AI competition",
				Reasoning:     "Direct evidence of AI-driven price pressure.",
			},
			{ThesisID: "ai_job_displacement", IsRelevant: false},
		},
	}}

	svc := NewExtractionService(fake, theses.Default(), quietLogger())
	article := testArticle()

	signals, err := svc.AnalyzeArticle(context.Background(), article)
	require.NoError(t, err)
	require.Len(t, signals, 1)

	sig := signals[0]
	assert.Equal(t, "ai_deflation", sig.ThesisID)
	assert.Equal(t, models.OriginNews, sig.Origin)
	assert.Equal(t, models.DirectionSupporting, sig.Direction)
	assert.Equal(t, 7, sig.Strength)
	assert.InDelta(t, 0.9, sig.Confidence, 1e-9)
	require.NotNil(t, sig.ArticleID)
	assert.Equal(t, article.ID, *sig.ArticleID)
	assert.Equal(t, article.PublishedAt.UTC(), sig.SignalDate)
	require.NotNil(t, sig.SourceTitle)
	assert.Equal(t, article.Title, *sig.SourceTitle)
}

func TestAnalyzeArticle_DropsInvalidCandidatesIndividually(t *testing.T) {
	fake := &fakeExtractor{result: &extractor.AnalysisResult{
		Signals: []extractor.Candidate{
			{ThesisID: "made_up_thesis", IsRelevant: true, Direction: "supporting", Strength: 5, Confidence: 0.8},
			{ThesisID: "ai_deflation", IsRelevant: true, Direction: "sideways", Strength: 5, Confidence: 0.8},
			{ThesisID: "ai_deflation", IsRelevant: true, Direction: "supporting", Strength: 99, Confidence: 0.8},
			{ThesisID: "ai_deflation", IsRelevant: true, Direction: "supporting", Strength: -3, Confidence: 0.8},
			{ThesisID: "ai_deflation", IsRelevant: true, Direction: "supporting", Strength: 5, Confidence: 1.8},
			{ThesisID: "datacenter_credit_crisis", IsRelevant: true, Direction: "weakening", Strength: 4, Confidence: 0.6},
		},
	}}

	svc := NewExtractionService(fake, theses.Default(), quietLogger())
	signals, err := svc.AnalyzeArticle(context.Background(), testArticle())
	require.NoError(t, err)

	// One bad entry never discards the rest.
	require.Len(t, signals, 1)
	assert.Equal(t, "datacenter_credit_crisis", signals[0].ThesisID)
}

func TestAnalyzeArticle_DefaultsForZeroedFields(t *testing.T) {
	// Absent strength/confidence come through as zero values and get
	// conservative defaults; anything explicitly out of range is dropped.
	fake := &fakeExtractor{result: &extractor.AnalysisResult{
		Signals: []extractor.Candidate{
			{ThesisID: "ai_deflation", IsRelevant: true, Direction: "supporting"},
		},
	}}

	svc := NewExtractionService(fake, theses.Default(), quietLogger())
	signals, err := svc.AnalyzeArticle(context.Background(), testArticle())
	require.NoError(t, err)
	require.Len(t, signals, 1)

	assert.Equal(t, models.MinStrength, signals[0].Strength)
	assert.InDelta(t, defaultCandidateConfidence, signals[0].Confidence, 1e-9)
}

func TestAnalyzeArticle_DropsNegativeStrength(t *testing.T) {
	fake := &fakeExtractor{result: &extractor.AnalysisResult{
		Signals: []extractor.Candidate{
			{ThesisID: "ai_deflation", IsRelevant: true, Direction: "supporting", Strength: -3, Confidence: 0.8},
		},
	}}

	svc := NewExtractionService(fake, theses.Default(), quietLogger())
	signals, err := svc.AnalyzeArticle(context.Background(), testArticle())
	require.NoError(t, err)
	assert.Empty(t, signals)
}

func TestAnalyzeArticle_CapabilityFailure(t *testing.T) {
	fake := &fakeExtractor{err: assert.AnError}
	svc := NewExtractionService(fake, theses.Default(), quietLogger())

	_, err := svc.AnalyzeArticle(context.Background(), testArticle())
	require.Error(t, err)
	assert.True(t, utils.IsExtractionError(err))
}

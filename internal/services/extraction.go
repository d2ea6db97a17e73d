package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jamesincognito/signal-dashboard/internal/models"
	"github.com/jamesincognito/signal-dashboard/internal/theses"
	"github.com/jamesincognito/signal-dashboard/internal/utils"
	"github.com/jamesincognito/signal-dashboard/pkg/extractor"
)

// headlineOnlyConfidence is assumed when the capability omits a confidence
// for a relevant candidate.
const defaultCandidateConfidence = 0.5

// ExtractionService turns raw articles into validated signals by way of the
// external extraction capability. The capability's output is untrusted:
// every candidate is checked against the catalog and the range invariants,
// and invalid candidates are dropped individually rather than failing the
// article.
type ExtractionService struct {
	extractor extractor.Service
	catalog   *theses.Catalog
	logger    *logrus.Logger
}

// NewExtractionService creates an extraction service bound to one catalog.
func NewExtractionService(svc extractor.Service, catalog *theses.Catalog, logger *logrus.Logger) *ExtractionService {
	return &ExtractionService{extractor: svc, catalog: catalog, logger: logger}
}

// Enabled reports whether the underlying capability is configured.
func (s *ExtractionService) Enabled() bool {
	return s.extractor.Enabled()
}

// AnalyzeArticle evaluates one article against every cataloged thesis and
// returns the signals worth persisting. An empty slice is a normal outcome.
// Failures of the capability itself come back as ExtractionError.
func (s *ExtractionService) AnalyzeArticle(ctx context.Context, article *models.Article) ([]models.Signal, error) {
	item := extractor.Item{
		Title:   article.Title,
		Content: article.Content,
	}
	if article.URL != nil {
		item.URL = *article.URL
	}
	if article.PublishedAt != nil {
		item.PublishedAt = article.PublishedAt.UTC().Format("2006-01-02")
	}

	catalogSlice := make([]extractor.Thesis, 0, s.catalog.Len())
	for _, t := range s.catalog.All() {
		catalogSlice = append(catalogSlice, extractor.Thesis{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
		})
	}

	result, err := s.extractor.Analyze(ctx, item, catalogSlice)
	if err != nil {
		return nil, utils.NewExtractionError(err)
	}

	signalDate := time.Now().UTC()
	if article.PublishedAt != nil {
		signalDate = article.PublishedAt.UTC()
	}

	var signals []models.Signal
	for _, c := range result.Signals {
		sig, ok := s.validateCandidate(c, article, signalDate)
		if !ok {
			continue
		}
		signals = append(signals, sig)
	}
	return signals, nil
}

// validateCandidate converts one capability candidate into a persistable
// signal, or rejects it. Rejection is per-candidate: one bad entry never
// discards the rest of the article's output.
func (s *ExtractionService) validateCandidate(c extractor.Candidate, article *models.Article, signalDate time.Time) (models.Signal, bool) {
	if !c.IsRelevant {
		return models.Signal{}, false
	}
	if !s.catalog.Valid(c.ThesisID) {
		s.logger.WithFields(logrus.Fields{
			"thesis_id":  c.ThesisID,
			"article_id": article.ID,
		}).Warn("Dropping candidate with unknown thesis id")
		return models.Signal{}, false
	}

	direction, err := models.ParseSignalDirection(c.Direction)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"direction":  c.Direction,
			"article_id": article.ID,
		}).Warn("Dropping candidate with invalid direction")
		return models.Signal{}, false
	}

	strength := c.Strength
	if strength == 0 {
		// Zero value means the field was absent, not a claimed strength.
		strength = models.MinStrength
	}
	if strength < models.MinStrength || strength > models.MaxStrength {
		s.logger.WithFields(logrus.Fields{
			"strength":   c.Strength,
			"article_id": article.ID,
		}).Warn("Dropping candidate with out-of-range strength")
		return models.Signal{}, false
	}

	confidence := c.Confidence
	if confidence == 0 {
		confidence = defaultCandidateConfidence
	}
	if confidence < 0 || confidence > 1 {
		s.logger.WithFields(logrus.Fields{
			"confidence": c.Confidence,
			"article_id": article.ID,
		}).Warn("Dropping candidate with out-of-range confidence")
		return models.Signal{}, false
	}

	title := article.Title
	return models.Signal{
		ThesisID:      c.ThesisID,
		ArticleID:     &article.ID,
		Origin:        models.OriginNews,
		Direction:     direction,
		Strength:      strength,
		Confidence:    confidence,
		EvidenceQuote: models.Truncate(c.EvidenceQuote, models.MaxExcerptLen),
		Reasoning:     models.Truncate(c.Reasoning, models.MaxExcerptLen),
		SourceTitle:   &title,
		SourceURL:     article.URL,
		SignalDate:    signalDate,
	}, true
}

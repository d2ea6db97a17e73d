package extractor

import "context"

// Thesis is the slice of the catalog the capability needs for prompting.
type Thesis struct {
	ID          string
	Name        string
	Description string
}

// Item is one news item to analyze. Content may be empty or identical to
// the title; headline-only items are expected and scored with reduced
// confidence by the capability.
type Item struct {
	Title       string
	URL         string
	PublishedAt string
	Content     string
}

// Candidate is one proposed signal for one thesis, exactly as the
// capability returned it. Candidates are unvalidated: the extraction
// adapter checks thesis ids and ranges before anything is persisted.
type Candidate struct {
	ThesisID      string  `json:"thesis_id"`
	IsRelevant    bool    `json:"is_relevant"`
	Direction     string  `json:"direction"`
	Strength      int     `json:"strength"`
	Confidence    float64 `json:"confidence"`
	EvidenceQuote string  `json:"evidence_quote"`
	Reasoning     string  `json:"reasoning"`
}

// AnalysisResult is the capability's full response for one item.
type AnalysisResult struct {
	Signals []Candidate `json:"signals"`
	Summary string      `json:"summary"`
}

// Service is the contract for the external signal-extraction capability.
type Service interface {
	// Analyze evaluates one item against the thesis catalog. An empty
	// candidate list is a normal outcome, not an error.
	Analyze(ctx context.Context, item Item, catalog []Thesis) (*AnalysisResult, error)
	// Enabled reports whether the capability is configured at all.
	Enabled() bool
}

// messagesRequest is the Anthropic Messages API request shape.
type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the subset of the Messages API response we read.
type messagesResponse struct {
	Content []contentBlock `json:"content"`
	Error   *apiError      `json:"error,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const anthropicVersion = "2023-06-01"

// Config holds the connection settings for the extraction capability.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Client calls the Anthropic Messages API to extract candidate signals
// from news items.
type Client struct {
	HTTPClient *http.Client
	cfg        Config
}

// NewClient creates a new extraction client instance.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	return &Client{
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != ""
}

// Analyze evaluates one item against the thesis catalog and returns the
// capability's candidate signals.
func (c *Client) Analyze(ctx context.Context, item Item, catalog []Thesis) (*AnalysisResult, error) {
	req := messagesRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		System:    buildSystemPrompt(catalog),
		Messages:  []message{{Role: "user", Content: buildUserContent(item)}},
	}

	var resp messagesResponse
	if err := c.makeRequest(ctx, "/v1/messages", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("extraction API error (%s): %s", resp.Error.Type, resp.Error.Message)
	}
	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("extraction API returned no content")
	}

	return parseResult(resp.Content[0].Text)
}

var codeFenceRe = regexp.MustCompile("^```(?:json)?\\s*|\\s*```$")

// parseResult decodes the model's JSON output, tolerating markdown code
// fences around it.
func parseResult(text string) (*AnalysisResult, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = codeFenceRe.ReplaceAllString(text, "")
	}

	var result AnalysisResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("failed to parse extraction output: %w", err)
	}
	return &result, nil
}

func (c *Client) makeRequest(ctx context.Context, path string, body interface{}, result interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("extraction API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

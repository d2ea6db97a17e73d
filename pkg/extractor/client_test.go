package extractor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCatalog = []Thesis{
	{ID: "ai_deflation", Name: "AI Deflation", Description: "Deflationary effects of AI."},
}

func TestAnalyze_ParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.System, "ai_deflation")
		require.Len(t, req.Messages, 1)
		assert.Contains(t, req.Messages[0].Content, "Vendor cuts prices")

		resp := messagesResponse{Content: []contentBlock{{
			Type: "text",
			Text: `{"signals":[{"thesis_id":"ai_deflation","is_relevant":true,"direction":"supporting","strength":6,"confidence":0.7,"evidence_quote":"cuts prices","reasoning":"price pressure"}],"summary":"Vendor price cut."}`,
		}}}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL, Model: "test-model"})
	result, err := client.Analyze(context.Background(), Item{Title: "Vendor cuts prices"}, testCatalog)
	require.NoError(t, err)

	require.Len(t, result.Signals, 1)
	assert.Equal(t, "ai_deflation", result.Signals[0].ThesisID)
	assert.Equal(t, 6, result.Signals[0].Strength)
	assert.Equal(t, "Vendor price cut.", result.Summary)
}

func TestAnalyze_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(messagesResponse{
			Error: &apiError{Type: "overloaded_error", Message: "try again"},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	_, err := client.Analyze(context.Background(), Item{Title: "t"}, testCatalog)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded_error")
}

func TestAnalyze_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"type":"authentication_error"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad-key", BaseURL: server.URL})
	_, err := client.Analyze(context.Background(), Item{Title: "t"}, testCatalog)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestParseResult_ToleratesCodeFences(t *testing.T) {
	fenced := "```json\n{\"signals\":[],\"summary\":\"nothing\"}\n```"
	result, err := parseResult(fenced)
	require.NoError(t, err)
	assert.Equal(t, "nothing", result.Summary)

	bare := `{"signals":[],"summary":"plain"}`
	result, err = parseResult(bare)
	require.NoError(t, err)
	assert.Equal(t, "plain", result.Summary)

	_, err = parseResult("the model rambled instead of emitting JSON")
	assert.Error(t, err)
}

func TestEnabled(t *testing.T) {
	assert.False(t, NewClient(Config{}).Enabled())
	assert.True(t, NewClient(Config{APIKey: "k"}).Enabled())
}

func TestBuildUserContent_HeadlineOnly(t *testing.T) {
	content := buildUserContent(Item{Title: "Just a headline"})
	assert.Contains(t, content, "Headline only")

	content = buildUserContent(Item{Title: "Title", Content: "Title"})
	assert.Contains(t, content, "Headline only")

	long := make([]byte, 5000)
	for i := range long {
		long[i] = 'a'
	}
	content = buildUserContent(Item{Title: "Title", Content: string(long)})
	assert.Less(t, len(content), 4500)
}

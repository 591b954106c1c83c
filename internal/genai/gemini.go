// Package genai calls the text-generation backend. All backend failure
// detail stays inside this package; callers only ever see
// errs.ErrUpstreamUnavailable.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/studioverse/tutormind/internal/errs"
	"github.com/studioverse/tutormind/internal/logger"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// FallbackAnswer is returned when the backend responds successfully but
// produces no usable candidate.
const FallbackAnswer = "I wasn't able to come up with an answer to that. Could you try rephrasing your question?"

// Result is the outcome of one generation call.
type Result struct {
	Text         string
	PromptTokens int
	OutputTokens int
}

// GeminiClient sends generateContent requests with a bounded timeout.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiClient creates a generation client. The timeout bounds each call
// independently of the caller's deadline.
func NewGeminiClient(apiKey, model string, timeout time.Duration) *GeminiClient {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GeminiClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithBaseURL points the client at a different endpoint. Used by tests.
func (c *GeminiClient) WithBaseURL(url string) *GeminiClient {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// Generate sends the assembled prompt to the backend. A non-empty
// apiKeyOverride replaces the client's default credential for this call
// (per-tenant key isolation).
func (c *GeminiClient) Generate(ctx context.Context, prompt, apiKeyOverride string) (*Result, error) {
	key := c.apiKey
	if apiKeyOverride != "" {
		key = apiKeyOverride
	}
	if key == "" {
		logger.Error("Generation call attempted without an API key")
		return nil, errs.ErrUpstreamUnavailable
	}

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		logger.Error("Failed to marshal generation request: %v", err)
		return nil, errs.ErrUpstreamUnavailable
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		logger.Error("Failed to create generation request: %v", err)
		return nil, errs.ErrUpstreamUnavailable
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Covers transport errors and the client timeout.
		logger.Error("Generation request failed: %v", err)
		return nil, errs.ErrUpstreamUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("Failed to read generation response: %v", err)
		return nil, errs.ErrUpstreamUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		// Provider error bodies are logged here and go no further.
		logger.Error("Generation API status %d: %s", resp.StatusCode, truncateForLog(body))
		return nil, errs.ErrUpstreamUnavailable
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		logger.Error("Failed to decode generation response: %v", err)
		return nil, errs.ErrUpstreamUnavailable
	}

	text := ""
	if len(out.Candidates) > 0 {
		var b strings.Builder
		for _, p := range out.Candidates[0].Content.Parts {
			b.WriteString(p.Text)
		}
		text = strings.TrimSpace(b.String())
	}
	if text == "" {
		logger.Warn("Generation API returned no candidates, using fallback answer")
		text = FallbackAnswer
	}

	return &Result{
		Text:         text,
		PromptTokens: out.UsageMetadata.PromptTokenCount,
		OutputTokens: out.UsageMetadata.CandidatesTokenCount,
	}, nil
}

func truncateForLog(body []byte) string {
	const max = 500
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

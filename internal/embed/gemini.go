// Package embed wraps the remote embedding API used to vectorize lesson
// chunks and retrieval queries.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/studioverse/tutormind/internal/logger"
)

// DefaultDim is the output dimension of the text-embedding-004 model.
const DefaultDim = 768

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// GeminiEmbedder calls the Gemini embedContent endpoint. Every failure mode
// (missing key, transport error, malformed response) comes back as a plain
// error so callers can skip retrieval instead of failing the chat turn.
type GeminiEmbedder struct {
	apiKey     string
	model      string
	baseURL    string
	dim        int
	httpClient *http.Client
}

// NewGeminiEmbedder creates an embedding client with a bounded request
// timeout.
func NewGeminiEmbedder(apiKey, model string, dim int, timeout time.Duration) *GeminiEmbedder {
	if model == "" {
		model = "text-embedding-004"
	}
	if dim <= 0 {
		dim = DefaultDim
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GeminiEmbedder{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		dim:     dim,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithBaseURL points the client at a different endpoint. Used by tests.
func (e *GeminiEmbedder) WithBaseURL(url string) *GeminiEmbedder {
	e.baseURL = strings.TrimSuffix(url, "/")
	return e
}

// Dimension returns the embedding dimension this client produces.
func (e *GeminiEmbedder) Dimension() int {
	return e.dim
}

type embedRequest struct {
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
}

type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// Embed returns the embedding vector for text. Empty or whitespace-only
// input short-circuits without a network call.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("empty text")
	}
	if e.apiKey == "" {
		return nil, errors.New("no embedding API key configured")
	}

	var reqBody embedRequest
	reqBody.Content.Parts = []struct {
		Text string `json:"text"`
	}{{Text: text}}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:embedContent?key=%s", e.baseURL, e.model, e.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		logger.Debug("Embedding request failed: %v", err)
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embed response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		logger.Debug("Embedding API returned status %d: %s", resp.StatusCode, body)
		return nil, fmt.Errorf("embedding API status %d", resp.StatusCode)
	}

	var out embedResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(out.Embedding.Values) == 0 {
		return nil, errors.New("embedding API returned no values")
	}
	if len(out.Embedding.Values) != e.dim {
		return nil, fmt.Errorf("embedding dimension %d, want %d", len(out.Embedding.Values), e.dim)
	}
	return out.Embedding.Values, nil
}

package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/studioverse/tutormind/internal/errs"
)

func genServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func candidateResponse(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
		"usageMetadata": map[string]any{
			"promptTokenCount":     120,
			"candidatesTokenCount": 40,
		},
	}
}

func TestGenerate_Success(t *testing.T) {
	srv := genServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(candidateResponse("Photosynthesis converts light into chemical energy."))
	})

	c := NewGeminiClient("key", "", time.Second).WithBaseURL(srv.URL)
	res, err := c.Generate(context.Background(), "explain photosynthesis", "")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if res.Text != "Photosynthesis converts light into chemical energy." {
		t.Errorf("unexpected text: %q", res.Text)
	}
	if res.PromptTokens != 120 || res.OutputTokens != 40 {
		t.Errorf("unexpected usage: %+v", res)
	}
}

func TestGenerate_EmptyCandidatesFallback(t *testing.T) {
	srv := genServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	})

	c := NewGeminiClient("key", "", time.Second).WithBaseURL(srv.URL)
	res, err := c.Generate(context.Background(), "hello", "")
	if err != nil {
		t.Fatalf("empty candidates should not error: %v", err)
	}
	if res.Text != FallbackAnswer {
		t.Errorf("expected fallback answer, got %q", res.Text)
	}
}

func TestGenerate_ServerErrorsMasked(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		srv := genServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error": {"message": "internal provider detail"}}`, status)
		})

		c := NewGeminiClient("key", "", time.Second).WithBaseURL(srv.URL)
		_, err := c.Generate(context.Background(), "hello", "")
		if !errors.Is(err, errs.ErrUpstreamUnavailable) {
			t.Errorf("status %d: got %v, want ErrUpstreamUnavailable", status, err)
		}
	}
}

func TestGenerate_MissingKey(t *testing.T) {
	c := NewGeminiClient("", "", time.Second)
	if _, err := c.Generate(context.Background(), "hello", ""); !errors.Is(err, errs.ErrUpstreamUnavailable) {
		t.Errorf("got %v, want ErrUpstreamUnavailable", err)
	}
}

func TestGenerate_KeyOverrideUsed(t *testing.T) {
	var seenKey string
	srv := genServer(t, func(w http.ResponseWriter, r *http.Request) {
		seenKey = r.URL.Query().Get("key")
		json.NewEncoder(w).Encode(candidateResponse("ok"))
	})

	c := NewGeminiClient("default-key", "", time.Second).WithBaseURL(srv.URL)
	if _, err := c.Generate(context.Background(), "hello", "tenant-key"); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if seenKey != "tenant-key" {
		t.Errorf("request used key %q, want tenant override", seenKey)
	}
}

func TestGenerate_TimeoutMasked(t *testing.T) {
	srv := genServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(candidateResponse("too late"))
	})

	c := NewGeminiClient("key", "", 50*time.Millisecond).WithBaseURL(srv.URL)
	if _, err := c.Generate(context.Background(), "hello", ""); !errors.Is(err, errs.ErrUpstreamUnavailable) {
		t.Errorf("got %v, want ErrUpstreamUnavailable on timeout", err)
	}
}

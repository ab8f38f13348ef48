package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantryplan/backend/config"
)

func generationConfig(url string, timeout time.Duration) *config.Config {
	return &config.Config{
		GenerationAPIURL:    url,
		GenerationAPIKey:    "test-api-key",
		GenerationModel:     "test-model",
		GenerationMaxTokens: 1024,
		GenerationTimeout:   timeout,
	}
}

func generationReply(text string) map[string]any {
	return map[string]any{
		"content": []map[string]any{{"type": "text", "text": text}},
		"usage":   map[string]any{"input_tokens": 100, "output_tokens": 50},
	}
}

func TestGenerationClient_Generate(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(generationReply("the reply"))
	}))
	defer srv.Close()

	c := NewGenerationClient(generationConfig(srv.URL, 5*time.Second))

	text, err := c.Generate(context.Background(), "system prompt", "user prompt")
	require.NoError(t, err)
	assert.Equal(t, "the reply", text)

	assert.Equal(t, "test-model", gotBody["model"])
	assert.Equal(t, float64(1024), gotBody["max_tokens"])
	assert.Equal(t, "system prompt", gotBody["system"])
	messages := gotBody["messages"].([]any)
	require.Len(t, messages, 1)
	assert.Equal(t, "user prompt", messages[0].(map[string]any)["content"])
}

func TestGenerationClient_ConcatenatesTextBlocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": "part one "},
				{"type": "tool_use", "text": "ignored"},
				{"type": "text", "text": "part two"},
			},
		})
	}))
	defer srv.Close()

	c := NewGenerationClient(generationConfig(srv.URL, 5*time.Second))

	text, err := c.Generate(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "part one part two", text)
}

func TestGenerationClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		json.NewEncoder(w).Encode(generationReply("late"))
	}))
	defer srv.Close()

	c := NewGenerationClient(generationConfig(srv.URL, 50*time.Millisecond))

	_, err := c.Generate(context.Background(), "s", "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamTimeout)
}

func TestGenerationClient_ClassifiesFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
	}{
		{"bad request", http.StatusBadRequest},
		{"auth misconfiguration", http.StatusUnauthorized},
		{"forbidden", http.StatusForbidden},
		{"rate limited upstream", http.StatusTooManyRequests},
		{"overloaded", 529},
		{"server error", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(`{"error": {"type": "secret-internal-detail"}}`))
			}))
			defer srv.Close()

			c := NewGenerationClient(generationConfig(srv.URL, 5*time.Second))

			_, err := c.Generate(context.Background(), "s", "u")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUpstreamUnavailable)
			// Upstream detail must not leak through the error chain.
			assert.NotContains(t, err.Error(), "secret-internal-detail")
		})
	}
}

func TestGenerationClient_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"content": []any{}})
	}))
	defer srv.Close()

	c := NewGenerationClient(generationConfig(srv.URL, 5*time.Second))

	_, err := c.Generate(context.Background(), "s", "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

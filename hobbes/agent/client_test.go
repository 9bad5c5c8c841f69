package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientComplete(t *testing.T) {
	var gotPath, gotAuth, gotReferer string
	var gotBody chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotReferer = r.Header.Get("HTTP-Referer")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "<commands>\na\n</commands>"}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Model:   "openai/gpt-4o",
		Referer: "example.com/stream",
	})

	msg, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil)
	require.NoError(t, err)

	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "example.com/stream", gotReferer)
	assert.Equal(t, "openai/gpt-4o", gotBody.Model)
	assert.Equal(t, "<commands>\na\n</commands>", msg.Content)
}

func TestClientCompleteErrors(t *testing.T) {
	t.Run("http error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := NewClient(ClientConfig{BaseURL: server.URL})
		_, err := client.Complete(context.Background(), nil, nil)
		assert.ErrorContains(t, err, "429")
	})

	t.Run("api error payload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "bad model"}})
		}))
		defer server.Close()

		client := NewClient(ClientConfig{BaseURL: server.URL})
		_, err := client.Complete(context.Background(), nil, nil)
		assert.ErrorContains(t, err, "bad model")
	})

	t.Run("no choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
		}))
		defer server.Close()

		client := NewClient(ClientConfig{BaseURL: server.URL})
		_, err := client.Complete(context.Background(), nil, nil)
		assert.ErrorContains(t, err, "no choices")
	})
}

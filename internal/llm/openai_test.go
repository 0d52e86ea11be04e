package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docquery/document-query-api/internal/utils"
)

func TestChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Model != "gpt-4o-mini" {
			t.Errorf("model = %q", req.Model)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "hello"}},
			},
		})
	}))
	defer srv.Close()

	client := NewOpenAIClient("test-key", srv.URL, "text-embedding-3-small", utils.NewLogger("error"))

	answer, err := client.Chat(context.Background(), "gpt-4o-mini", []Message{
		{Role: "user", Content: "hi"},
	})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if answer != "hello" {
		t.Errorf("answer = %q, want %q", answer, "hello")
	}
}

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}

		var req embeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}

		// Return out of order to exercise index handling
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float32{0, 1}},
				{"index": 0, "embedding": []float32{1, 0}},
			},
		})
	}))
	defer srv.Close()

	client := NewOpenAIClient("test-key", srv.URL, "text-embedding-3-small", utils.NewLogger("error"))

	vectors, err := client.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vectors))
	}
	if vectors[0][0] != 1 || vectors[1][1] != 1 {
		t.Errorf("vectors not ordered by index: %v", vectors)
	}
}

func TestChatAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient("test-key", srv.URL, "text-embedding-3-small", utils.NewLogger("error"))

	if _, err := client.Chat(context.Background(), "gpt-4o-mini", nil); err == nil {
		t.Errorf("non-200 response did not error")
	}
}

func TestEmbedEmptyInput(t *testing.T) {
	client := NewOpenAIClient("test-key", "http://unused", "text-embedding-3-small", utils.NewLogger("error"))

	vectors, err := client.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("embed of no texts failed: %v", err)
	}
	if vectors != nil {
		t.Errorf("expected nil vectors for empty input")
	}
}

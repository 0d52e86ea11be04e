// Package llm talks to the language-model API: chat completions for
// answering and embeddings for indexing.
package llm

import (
	"context"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Client interface {
	// Chat sends a conversation to the named model and returns the
	// assistant's reply.
	Chat(ctx context.Context, model string, messages []Message) (string, error)

	// Embed returns one vector per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

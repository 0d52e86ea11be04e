// Package index maintains the searchable vector index over document
// chunks. The core only pushes chunks in and asks for nearest
// neighbours; it never inspects index internals.
package index

import (
	"context"
)

// Hit is one chunk matched by a similarity search.
type Hit struct {
	Fingerprint string  `json:"fingerprint"`
	Text        string  `json:"text"`
	Score       float32 `json:"score"`
}

type Index interface {
	// Upsert replaces all chunks for a document. chunks and vectors
	// are parallel slices.
	Upsert(ctx context.Context, fingerprint string, chunks []string, vectors [][]float32) error

	// Remove drops every chunk belonging to a document.
	Remove(ctx context.Context, fingerprint string) error

	// RemoveAll empties the index.
	RemoveAll(ctx context.Context) error

	// Search returns up to limit hits ordered by descending score.
	Search(ctx context.Context, vector []float32, limit int) ([]Hit, error)

	Close() error
}

// ChunkText splits text into fixed-size windows with overlap, so a
// sentence cut at a boundary still appears whole in one chunk.
func ChunkText(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		return nil
	}
	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}

	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
	}
	return chunks
}

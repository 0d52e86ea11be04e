package index

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/docquery/document-query-api/internal/utils"
)

const memoryIndexFile = "vector_index.json"

type memPoint struct {
	Fingerprint string    `json:"fingerprint"`
	Text        string    `json:"text"`
	Vector      []float32 `json:"vector"`
}

// memoryIndex is a brute-force cosine-similarity index persisted to a
// JSON file alongside the other collections. Fine for the single-node
// document counts this service handles; Qdrant covers the rest.
type memoryIndex struct {
	mu     sync.Mutex
	path   string
	points []memPoint
}

func NewMemoryIndex(dir string, logger *utils.Logger) (Index, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	idx := &memoryIndex{path: filepath.Join(dir, memoryIndexFile)}

	data, err := os.ReadFile(idx.path)
	if err == nil {
		if err := json.Unmarshal(data, &idx.points); err != nil {
			logger.Warn("Vector index file is corrupt, starting empty", "path", idx.path, "error", err)
			idx.points = nil
		}
	} else if !os.IsNotExist(err) {
		logger.Warn("Failed to read vector index file, starting empty", "path", idx.path, "error", err)
	}

	return idx, nil
}

func (m *memoryIndex) persist() error {
	data, err := json.Marshal(m.points)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.path), memoryIndexFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp index file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write index file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close index file: %w", err)
	}

	if err := os.Rename(tmp.Name(), m.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace index file: %w", err)
	}
	return nil
}

func (m *memoryIndex) Upsert(ctx context.Context, fingerprint string, chunks []string, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.points[:0]
	for _, p := range m.points {
		if p.Fingerprint != fingerprint {
			kept = append(kept, p)
		}
	}
	m.points = kept

	for i, chunk := range chunks {
		m.points = append(m.points, memPoint{
			Fingerprint: fingerprint,
			Text:        chunk,
			Vector:      vectors[i],
		})
	}

	return m.persist()
}

func (m *memoryIndex) Remove(ctx context.Context, fingerprint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.points[:0]
	for _, p := range m.points {
		if p.Fingerprint != fingerprint {
			kept = append(kept, p)
		}
	}
	m.points = kept

	return m.persist()
}

func (m *memoryIndex) RemoveAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.points = nil
	return m.persist()
}

func (m *memoryIndex) Search(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hits := make([]Hit, 0, len(m.points))
	for _, p := range m.points {
		score := cosineSimilarity(vector, p.Vector)
		hits = append(hits, Hit{
			Fingerprint: p.Fingerprint,
			Text:        p.Text,
			Score:       score,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m *memoryIndex) Close() error {
	return nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/docquery/document-query-api/internal/models"
	"github.com/docquery/document-query-api/internal/utils"
)

// File names match the layout the store has always used, so an existing
// data directory keeps working.
const (
	documentsFile = "documents_meta.json"
	historyFile   = "query_history.json"
)

// loadJSON reads a collection file into v. A missing or unreadable file
// is not an error: the collection starts empty and the problem is
// logged, so a corrupted store never takes the service down.
func loadJSON(path string, v any, logger *utils.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to read store file, starting empty", "path", path, "error", err)
		}
		return
	}

	if err := json.Unmarshal(data, v); err != nil {
		logger.Warn("Store file is corrupt, starting empty", "path", path, "error", err)
	}
}

// saveJSON replaces the collection file atomically: write to a temp
// file in the same directory, then rename over the target. A crash
// mid-write leaves the previous content intact.
func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal collection: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace store file: %w", err)
	}

	return nil
}

// fileDocumentRepo keeps the registry in memory as an ordered slice and
// rewrites the JSON file after every mutation. A slice rather than a
// map because listing order must be the insertion order of the file.
type fileDocumentRepo struct {
	mu   sync.Mutex
	path string
	docs []models.DocumentRecord
}

func NewFileDocumentRepository(dir string, logger *utils.Logger) (DocumentRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create persist directory: %w", err)
	}

	r := &fileDocumentRepo{path: filepath.Join(dir, documentsFile)}
	loadJSON(r.path, &r.docs, logger)
	return r, nil
}

func (r *fileDocumentRepo) List(ctx context.Context) ([]models.DocumentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.DocumentRecord, len(r.docs))
	copy(out, r.docs)
	return out, nil
}

func (r *fileDocumentRepo) GetByFingerprint(ctx context.Context, fingerprint string) (*models.DocumentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.docs {
		if r.docs[i].Fingerprint == fingerprint {
			rec := r.docs[i]
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fileDocumentRepo) Create(ctx context.Context, rec models.DocumentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.docs = append(r.docs, rec)
	if err := saveJSON(r.path, r.docs); err != nil {
		r.docs = r.docs[:len(r.docs)-1]
		return err
	}
	return nil
}

func (r *fileDocumentRepo) UpdateStatus(ctx context.Context, fingerprint string, status models.DocumentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.docs {
		if r.docs[i].Fingerprint == fingerprint {
			prev := r.docs[i].Status
			r.docs[i].Status = status
			if err := saveJSON(r.path, r.docs); err != nil {
				r.docs[i].Status = prev
				return err
			}
			return nil
		}
	}
	return ErrNotFound
}

func (r *fileDocumentRepo) Touch(ctx context.Context, fingerprint string, uploadedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.docs {
		if r.docs[i].Fingerprint == fingerprint {
			prev := r.docs[i].UploadedAt
			r.docs[i].UploadedAt = uploadedAt
			if err := saveJSON(r.path, r.docs); err != nil {
				r.docs[i].UploadedAt = prev
				return err
			}
			return nil
		}
	}
	return ErrNotFound
}

func (r *fileDocumentRepo) Delete(ctx context.Context, fingerprint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.docs {
		if r.docs[i].Fingerprint == fingerprint {
			r.docs = append(r.docs[:i], r.docs[i+1:]...)
			return saveJSON(r.path, r.docs)
		}
	}
	return ErrNotFound
}

func (r *fileDocumentRepo) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.docs = nil
	return saveJSON(r.path, []models.DocumentRecord{})
}

// fileHistoryRepo mirrors fileDocumentRepo for the query ledger.
type fileHistoryRepo struct {
	mu      sync.Mutex
	path    string
	entries []models.QueryHistoryEntry
}

func NewFileHistoryRepository(dir string, logger *utils.Logger) (HistoryRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create persist directory: %w", err)
	}

	r := &fileHistoryRepo{path: filepath.Join(dir, historyFile)}
	loadJSON(r.path, &r.entries, logger)
	return r, nil
}

func (r *fileHistoryRepo) List(ctx context.Context) ([]models.QueryHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.QueryHistoryEntry, len(r.entries))
	copy(out, r.entries)
	return out, nil
}

func (r *fileHistoryRepo) Append(ctx context.Context, entry models.QueryHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)
	if err := saveJSON(r.path, r.entries); err != nil {
		r.entries = r.entries[:len(r.entries)-1]
		return err
	}
	return nil
}

func (r *fileHistoryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.entries {
		if r.entries[i].ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return saveJSON(r.path, r.entries)
		}
	}
	return ErrNotFound
}

func (r *fileHistoryRepo) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
	return saveJSON(r.path, []models.QueryHistoryEntry{})
}

func (r *fileHistoryRepo) Trim(ctx context.Context, max int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if max < 0 || len(r.entries) <= max {
		return nil
	}
	r.entries = append([]models.QueryHistoryEntry(nil), r.entries[len(r.entries)-max:]...)
	return saveJSON(r.path, r.entries)
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/docquery/document-query-api/internal/models"
)

// ErrNotFound is returned when an operation references a fingerprint or
// history entry id that is not in the store.
var ErrNotFound = errors.New("not found")

// DocumentRepository persists the document registry. List returns
// records in insertion order; that order is the store's order and the
// registry exposes it unchanged.
type DocumentRepository interface {
	List(ctx context.Context) ([]models.DocumentRecord, error)
	GetByFingerprint(ctx context.Context, fingerprint string) (*models.DocumentRecord, error)
	Create(ctx context.Context, rec models.DocumentRecord) error
	UpdateStatus(ctx context.Context, fingerprint string, status models.DocumentStatus) error
	Touch(ctx context.Context, fingerprint string, uploadedAt time.Time) error
	Delete(ctx context.Context, fingerprint string) error
	DeleteAll(ctx context.Context) error
}

// HistoryRepository persists the query history ledger in insertion
// order. Trim drops the oldest entries so at most max remain.
type HistoryRepository interface {
	List(ctx context.Context) ([]models.QueryHistoryEntry, error)
	Append(ctx context.Context, entry models.QueryHistoryEntry) error
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Trim(ctx context.Context, max int) error
}

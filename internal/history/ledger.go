// Package history keeps the append-and-delete log of past queries and
// their answers.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docquery/document-query-api/internal/models"
	"github.com/docquery/document-query-api/internal/repository"
)

type Ledger struct {
	repo repository.HistoryRepository
	// limit caps the number of retained entries; oldest are dropped on
	// append. Zero or negative means unlimited.
	limit int
}

func NewLedger(repo repository.HistoryRepository, limit int) *Ledger {
	return &Ledger{repo: repo, limit: limit}
}

// Append records a completed query. The entry is immutable once
// created; the model identifier recorded here is whatever produced the
// response, regardless of later configuration changes.
func (l *Ledger) Append(ctx context.Context, question, response, modelUsed string) (models.QueryHistoryEntry, error) {
	entry := models.QueryHistoryEntry{
		ID:        uuid.NewString(),
		Question:  question,
		Response:  response,
		ModelUsed: modelUsed,
		Timestamp: time.Now().UTC(),
	}

	if err := l.repo.Append(ctx, entry); err != nil {
		return models.QueryHistoryEntry{}, fmt.Errorf("failed to persist history entry: %w", err)
	}

	if l.limit > 0 {
		if err := l.repo.Trim(ctx, l.limit); err != nil {
			return models.QueryHistoryEntry{}, fmt.Errorf("failed to trim history: %w", err)
		}
	}

	return entry, nil
}

// Delete removes one entry, returning repository.ErrNotFound if the id
// is unknown.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	return l.repo.Delete(ctx, id)
}

// Clear removes every entry. Clearing an empty ledger succeeds.
func (l *Ledger) Clear(ctx context.Context) error {
	return l.repo.Clear(ctx)
}

// List returns entries most-recent-first, the order a history display
// wants them in.
func (l *Ledger) List(ctx context.Context) ([]models.QueryHistoryEntry, error) {
	entries, err := l.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.QueryHistoryEntry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out, nil
}

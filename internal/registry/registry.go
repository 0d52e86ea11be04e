// Package registry owns the mapping from content fingerprint to
// document metadata and enforces at-most-one-record-per-unique-content.
package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/docquery/document-query-api/internal/models"
	"github.com/docquery/document-query-api/internal/repository"
)

// Fingerprint returns the stable identity of a document's bytes:
// identical content always produces the same value.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DuplicatePolicy decides what a re-upload of identical bytes does to
// the existing record.
type DuplicatePolicy string

const (
	// DuplicateIgnore leaves the existing record untouched.
	DuplicateIgnore DuplicatePolicy = "ignore"
	// DuplicateRefresh bumps UploadedAt on the existing record. The
	// filename is never changed either way.
	DuplicateRefresh DuplicatePolicy = "refresh"
)

type Registry struct {
	repo   repository.DocumentRepository
	policy DuplicatePolicy
}

func New(repo repository.DocumentRepository, policy DuplicatePolicy) *Registry {
	if policy == "" {
		policy = DuplicateIgnore
	}
	return &Registry{repo: repo, policy: policy}
}

// Register fingerprints the content and creates a pending record for
// it. If the fingerprint is already registered the existing record is
// returned with duplicate=true and no new record is created; the
// configured DuplicatePolicy decides whether UploadedAt is refreshed.
func (r *Registry) Register(ctx context.Context, data []byte, filename, contentType string) (models.DocumentRecord, bool, error) {
	fp := Fingerprint(data)

	existing, err := r.repo.GetByFingerprint(ctx, fp)
	if err == nil {
		if r.policy == DuplicateRefresh {
			now := time.Now().UTC()
			if err := r.repo.Touch(ctx, fp, now); err != nil {
				return models.DocumentRecord{}, false, fmt.Errorf("failed to refresh upload time: %w", err)
			}
			existing.UploadedAt = now
		}
		return *existing, true, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return models.DocumentRecord{}, false, fmt.Errorf("failed to check for existing document: %w", err)
	}

	rec := models.DocumentRecord{
		Fingerprint: fp,
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		Status:      models.StatusPending,
		UploadedAt:  time.Now().UTC(),
	}

	if err := r.repo.Create(ctx, rec); err != nil {
		return models.DocumentRecord{}, false, fmt.Errorf("failed to persist document record: %w", err)
	}

	return rec, false, nil
}

// MarkStatus advances the extraction/indexing lifecycle of a document.
func (r *Registry) MarkStatus(ctx context.Context, fingerprint string, status models.DocumentStatus) error {
	if !models.ValidStatus(status) {
		return fmt.Errorf("invalid document status %q", status)
	}
	return r.repo.UpdateStatus(ctx, fingerprint, status)
}

// Get returns the record for a fingerprint, or repository.ErrNotFound.
func (r *Registry) Get(ctx context.Context, fingerprint string) (*models.DocumentRecord, error) {
	return r.repo.GetByFingerprint(ctx, fingerprint)
}

// Remove deletes one record. Removal is not idempotent: removing an
// unknown fingerprint returns repository.ErrNotFound.
func (r *Registry) Remove(ctx context.Context, fingerprint string) error {
	return r.repo.Delete(ctx, fingerprint)
}

// RemoveAll empties the registry.
func (r *Registry) RemoveAll(ctx context.Context) error {
	return r.repo.DeleteAll(ctx)
}

// List returns all records in insertion order.
func (r *Registry) List(ctx context.Context) ([]models.DocumentRecord, error) {
	return r.repo.List(ctx)
}

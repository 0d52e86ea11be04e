package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/docquery/document-query-api/internal/blob"
	"github.com/docquery/document-query-api/internal/config"
	"github.com/docquery/document-query-api/internal/extractor"
	"github.com/docquery/document-query-api/internal/index"
	"github.com/docquery/document-query-api/internal/llm"
	"github.com/docquery/document-query-api/internal/models"
	"github.com/docquery/document-query-api/internal/registry"
	"github.com/docquery/document-query-api/internal/repository"
	"github.com/docquery/document-query-api/internal/utils"
)

type DocumentService interface {
	UploadDocument(ctx context.Context, req *models.UploadRequest) (*models.UploadResponse, error)
	ListDocuments(ctx context.Context) ([]models.DocumentRecord, error)
	RemoveDocument(ctx context.Context, fingerprint string) error
	RemoveAllDocuments(ctx context.Context) error
}

type documentService struct {
	registry *registry.Registry
	blobs    blob.Store
	index    index.Index
	llm      llm.Client
	logger   *utils.Logger

	chunkSize    int
	chunkOverlap int
}

func NewDocumentService(reg *registry.Registry, blobs blob.Store, idx index.Index, llmClient llm.Client, cfg *config.Config, logger *utils.Logger) DocumentService {
	return &documentService{
		registry:     reg,
		blobs:        blobs,
		index:        idx,
		llm:          llmClient,
		logger:       logger,
		chunkSize:    cfg.ChunkSize,
		chunkOverlap: cfg.ChunkOverlap,
	}
}

// UploadDocument registers the content and, for new content, runs the
// full pipeline: extract text, store the original bytes, embed and
// index the chunks. Identical bytes uploaded again short-circuit to
// the existing record with no side effects.
func (s *documentService) UploadDocument(ctx context.Context, req *models.UploadRequest) (*models.UploadResponse, error) {
	rec, duplicate, err := s.registry.Register(ctx, req.File, req.Filename, req.ContentType)
	if err != nil {
		s.logger.Error("Failed to register document", "error", err, "filename", req.Filename)
		return nil, utils.NewInternalError("Failed to register document")
	}

	if duplicate {
		s.logger.Info("Duplicate upload skipped",
			"fingerprint", rec.Fingerprint,
			"existing_filename", rec.Filename,
			"uploaded_filename", req.Filename)
		return &models.UploadResponse{
			Document:  rec,
			Duplicate: true,
			Message:   fmt.Sprintf("Identical content already registered as %q.", rec.Filename),
		}, nil
	}

	text, err := extractor.Extract(req.File, req.ContentType)
	if err != nil {
		s.failDocument(ctx, rec.Fingerprint)
		var extErr *extractor.ExtractionError
		if errors.As(err, &extErr) {
			s.logger.Warn("Text extraction failed", "error", err, "filename", req.Filename)
			return nil, utils.NewUnprocessableError(fmt.Sprintf("Failed to extract text: %v", err))
		}
		s.logger.Error("Unexpected extraction failure", "error", err, "filename", req.Filename)
		return nil, utils.NewInternalError("Failed to extract text from document")
	}

	if err := s.blobs.Put(ctx, rec.Fingerprint, req.File, req.ContentType); err != nil {
		s.logger.Error("Failed to store original bytes", "error", err, "fingerprint", rec.Fingerprint)
		// Roll back the registration so a retry starts clean
		if rmErr := s.registry.Remove(ctx, rec.Fingerprint); rmErr != nil {
			s.logger.Error("Failed to roll back registration", "error", rmErr, "fingerprint", rec.Fingerprint)
		}
		return nil, utils.NewInternalError("Failed to store document")
	}

	chunks := index.ChunkText(text, s.chunkSize, s.chunkOverlap)

	vectors, err := s.llm.Embed(ctx, chunks)
	if err != nil {
		s.logger.Error("Failed to embed document", "error", err, "fingerprint", rec.Fingerprint)
		s.failDocument(ctx, rec.Fingerprint)
		return nil, utils.NewUpstreamError("Failed to embed document for indexing")
	}

	if err := s.index.Upsert(ctx, rec.Fingerprint, chunks, vectors); err != nil {
		s.logger.Error("Failed to index document", "error", err, "fingerprint", rec.Fingerprint)
		s.failDocument(ctx, rec.Fingerprint)
		return nil, utils.NewUpstreamError("Failed to index document")
	}

	if err := s.registry.MarkStatus(ctx, rec.Fingerprint, models.StatusIndexed); err != nil {
		s.logger.Error("Failed to mark document indexed", "error", err, "fingerprint", rec.Fingerprint)
		return nil, utils.NewInternalError("Failed to update document status")
	}
	rec.Status = models.StatusIndexed

	s.logger.Info("Document uploaded and indexed",
		"fingerprint", rec.Fingerprint,
		"filename", rec.Filename,
		"size_bytes", rec.SizeBytes,
		"chunks", len(chunks))

	return &models.UploadResponse{
		Document:  rec,
		Duplicate: false,
		Message:   "Document uploaded and indexed successfully.",
	}, nil
}

func (s *documentService) failDocument(ctx context.Context, fingerprint string) {
	if err := s.registry.MarkStatus(ctx, fingerprint, models.StatusFailed); err != nil {
		s.logger.Error("Failed to mark document failed", "error", err, "fingerprint", fingerprint)
	}
}

func (s *documentService) ListDocuments(ctx context.Context) ([]models.DocumentRecord, error) {
	docs, err := s.registry.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list documents", "error", err)
		return nil, utils.NewInternalError("Failed to list documents")
	}
	return docs, nil
}

func (s *documentService) RemoveDocument(ctx context.Context, fingerprint string) error {
	if err := s.registry.Remove(ctx, fingerprint); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return utils.NewNotFoundError("Document not found")
		}
		s.logger.Error("Failed to remove document", "error", err, "fingerprint", fingerprint)
		return utils.NewInternalError("Failed to remove document")
	}

	// Registry is authoritative; blob and index cleanup is best effort
	if err := s.blobs.Delete(ctx, fingerprint); err != nil {
		s.logger.Warn("Failed to delete blob", "error", err, "fingerprint", fingerprint)
	}
	if err := s.index.Remove(ctx, fingerprint); err != nil {
		s.logger.Warn("Failed to remove from index", "error", err, "fingerprint", fingerprint)
	}

	s.logger.Info("Document removed", "fingerprint", fingerprint)
	return nil
}

func (s *documentService) RemoveAllDocuments(ctx context.Context) error {
	docs, err := s.registry.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list documents for removal", "error", err)
		return utils.NewInternalError("Failed to remove documents")
	}

	if err := s.registry.RemoveAll(ctx); err != nil {
		s.logger.Error("Failed to clear registry", "error", err)
		return utils.NewInternalError("Failed to remove documents")
	}

	for _, doc := range docs {
		if err := s.blobs.Delete(ctx, doc.Fingerprint); err != nil {
			s.logger.Warn("Failed to delete blob", "error", err, "fingerprint", doc.Fingerprint)
		}
	}
	if err := s.index.RemoveAll(ctx); err != nil {
		s.logger.Warn("Failed to clear index", "error", err)
	}

	s.logger.Info("All documents removed", "count", len(docs))
	return nil
}

package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"github.com/docquery/document-query-api/internal/extractor"
	"github.com/docquery/document-query-api/internal/models"
	"github.com/docquery/document-query-api/internal/services"
	"github.com/docquery/document-query-api/internal/utils"
)

const (
	MaxFileSize = 5 << 20 // 5MB
)

type DocumentHandler struct {
	service services.DocumentService
	logger  *utils.Logger
}

func NewDocumentHandler(service services.DocumentService, logger *utils.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		logger:  logger,
	}
}

func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > MaxFileSize {
		respondError(w, h.logger, utils.NewBadRequestError("File size exceeds 5MB limit"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxFileSize)

	if err := r.ParseMultipartForm(MaxFileSize); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			respondError(w, h.logger, utils.NewBadRequestError("File size exceeds 5MB limit"))
			return
		}
		respondError(w, h.logger, utils.NewBadRequestError("Invalid form data"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, h.logger, utils.NewBadRequestError("No file provided"))
		return
	}
	defer file.Close()

	contentType := determineContentType(header.Filename, header.Header.Get("Content-Type"))

	h.logger.Info("File upload attempt",
		"filename", header.Filename,
		"reported_content_type", header.Header.Get("Content-Type"),
		"determined_content_type", contentType)

	if !isValidContentType(contentType) {
		respondError(w, h.logger, utils.NewBadRequestError("Only PDF, DOCX and TXT files are allowed"))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxFileSize+1))
	if err != nil {
		respondError(w, h.logger, utils.NewInternalError("Failed to read file"))
		return
	}

	if len(data) > MaxFileSize {
		respondError(w, h.logger, utils.NewBadRequestError("File size exceeds 5MB limit"))
		return
	}

	if len(data) == 0 {
		respondError(w, h.logger, utils.NewBadRequestError("Uploaded file is empty"))
		return
	}

	req := &models.UploadRequest{
		File:        data,
		Filename:    header.Filename,
		ContentType: normalizeContentType(contentType),
	}

	resp, err := h.service.UploadDocument(r.Context(), req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	// Duplicate content is informational, not an error; the existing
	// record comes back with a 200 rather than a 201.
	status := http.StatusCreated
	if resp.Duplicate {
		status = http.StatusOK
	}

	respondJSON(w, h.logger, status, resp)
}

func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.ListDocuments(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	if docs == nil {
		docs = []models.DocumentRecord{}
	}
	respondJSON(w, h.logger, http.StatusOK, docs)
}

func (h *DocumentHandler) RemoveDocument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	fingerprint := vars["fingerprint"]

	if fingerprint == "" {
		respondError(w, h.logger, utils.NewBadRequestError("Document fingerprint is required"))
		return
	}

	if err := h.service.RemoveDocument(r.Context(), fingerprint); err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]string{"message": "Document removed"})
}

func (h *DocumentHandler) RemoveAllDocuments(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveAllDocuments(r.Context()); err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]string{"message": "All documents removed"})
}

// determineContentType determines the content type from filename
// extension with fallback to the provided content type header.
func determineContentType(filename, headerContentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".pdf":
		return extractor.ContentTypePDF
	case ".docx":
		return extractor.ContentTypeDOCX
	case ".txt":
		return extractor.ContentTypeTXT
	}

	return headerContentType
}

// normalizeContentType collapses browser variants onto the canonical
// MIME types the extractor dispatches on.
func normalizeContentType(contentType string) string {
	switch contentType {
	case "application/vnd.openxmlformats-officedocument.wordprocessingml":
		return extractor.ContentTypeDOCX
	case "text/txt", "application/txt", "application/x-txt":
		return extractor.ContentTypeTXT
	}
	return contentType
}

func isValidContentType(contentType string) bool {
	validTypes := map[string]bool{
		extractor.ContentTypePDF:  true,
		extractor.ContentTypeDOCX: true,
		extractor.ContentTypeTXT:  true,
		// Some browsers send these variants
		"application/vnd.openxmlformats-officedocument.wordprocessingml": true,
		"text/txt":          true,
		"application/txt":   true,
		"application/x-txt": true,
	}

	return validTypes[contentType]
}

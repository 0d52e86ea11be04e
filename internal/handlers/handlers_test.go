package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/docquery/document-query-api/internal/models"
	"github.com/docquery/document-query-api/internal/utils"
)

type fakeDocService struct {
	uploaded *models.UploadRequest
	removed  []string
}

func (f *fakeDocService) UploadDocument(ctx context.Context, req *models.UploadRequest) (*models.UploadResponse, error) {
	f.uploaded = req
	return &models.UploadResponse{
		Document: models.DocumentRecord{
			Fingerprint: "fp1",
			Filename:    req.Filename,
			Status:      models.StatusIndexed,
		},
		Message: "ok",
	}, nil
}

func (f *fakeDocService) ListDocuments(ctx context.Context) ([]models.DocumentRecord, error) {
	return nil, nil
}

func (f *fakeDocService) RemoveDocument(ctx context.Context, fingerprint string) error {
	f.removed = append(f.removed, fingerprint)
	if fingerprint == "missing" {
		return utils.NewNotFoundError("Document not found")
	}
	return nil
}

func (f *fakeDocService) RemoveAllDocuments(ctx context.Context) error {
	return nil
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	writer.Close()
	return body, writer.FormDataContentType()
}

func TestUploadDocumentHandler(t *testing.T) {
	svc := &fakeDocService{}
	h := NewDocumentHandler(svc, utils.NewLogger("error"))

	body, contentType := multipartBody(t, "notes.txt", []byte("some text"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.UploadDocument(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", rec.Code, rec.Body.String())
	}
	if svc.uploaded == nil {
		t.Fatalf("service not called")
	}
	if svc.uploaded.ContentType != "text/plain" {
		t.Errorf("content type = %q, want text/plain", svc.uploaded.ContentType)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	svc := &fakeDocService{}
	h := NewDocumentHandler(svc, utils.NewLogger("error"))

	body, contentType := multipartBody(t, "image.png", []byte{0x89, 'P', 'N', 'G'})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.UploadDocument(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if svc.uploaded != nil {
		t.Errorf("service called for unsupported file type")
	}
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	svc := &fakeDocService{}
	h := NewDocumentHandler(svc, utils.NewLogger("error"))

	body, contentType := multipartBody(t, "empty.txt", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.UploadDocument(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRemoveDocumentNotFound(t *testing.T) {
	svc := &fakeDocService{}
	h := NewDocumentHandler(svc, utils.NewLogger("error"))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/documents/missing", nil)
	req = mux.SetURLVars(req, map[string]string{"fingerprint": "missing"})
	rec := httptest.NewRecorder()

	h.RemoveDocument(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if resp["error"] == "" {
		t.Errorf("error body missing error field")
	}
}

func TestDetermineContentType(t *testing.T) {
	tests := []struct {
		filename string
		header   string
		want     string
	}{
		{"report.pdf", "application/octet-stream", "application/pdf"},
		{"notes.TXT", "", "text/plain"},
		{"doc.docx", "", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"unknown.bin", "application/pdf", "application/pdf"},
	}

	for _, tt := range tests {
		if got := determineContentType(tt.filename, tt.header); got != tt.want {
			t.Errorf("determineContentType(%q, %q) = %q, want %q", tt.filename, tt.header, got, tt.want)
		}
	}
}

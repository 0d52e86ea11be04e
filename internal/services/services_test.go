package services

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/docquery/document-query-api/internal/config"
	"github.com/docquery/document-query-api/internal/history"
	"github.com/docquery/document-query-api/internal/index"
	"github.com/docquery/document-query-api/internal/llm"
	"github.com/docquery/document-query-api/internal/models"
	"github.com/docquery/document-query-api/internal/registry"
	"github.com/docquery/document-query-api/internal/repository"
	"github.com/docquery/document-query-api/internal/utils"
)

// fakeLLM returns canned vectors and answers, or fails every call when
// broken is set.
type fakeLLM struct {
	broken     bool
	chatCalls  int
	embedCalls int
}

func (f *fakeLLM) Chat(ctx context.Context, model string, messages []llm.Message) (string, error) {
	f.chatCalls++
	if f.broken {
		return "", fmt.Errorf("llm unavailable")
	}
	return "the answer", nil
}

func (f *fakeLLM) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.embedCalls++
	if f.broken {
		return nil, fmt.Errorf("llm unavailable")
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, float32(i)}
	}
	return vectors, nil
}

type fakeBlobStore struct {
	objects map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	f.objects[key] = bytes.Clone(data)
	return nil
}

func (f *fakeBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such object")
	}
	return data, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

type testEnv struct {
	docs   DocumentService
	query  QueryService
	reg    *registry.Registry
	ledger *history.Ledger
	blobs  *fakeBlobStore
	llm    *fakeLLM
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := utils.NewLogger("error")
	dir := t.TempDir()

	docRepo, err := repository.NewFileDocumentRepository(dir, logger)
	if err != nil {
		t.Fatalf("failed to create document repository: %v", err)
	}
	histRepo, err := repository.NewFileHistoryRepository(dir, logger)
	if err != nil {
		t.Fatalf("failed to create history repository: %v", err)
	}
	idx, err := index.NewMemoryIndex(dir, logger)
	if err != nil {
		t.Fatalf("failed to create index: %v", err)
	}

	cfg := &config.Config{
		ChunkSize:    400,
		ChunkOverlap: 50,
		SearchLimit:  3,
		HistoryLimit: 50,
		DefaultModel: "gpt-4o-mini",
	}

	env := &testEnv{
		reg:    registry.New(docRepo, registry.DuplicateIgnore),
		ledger: history.NewLedger(histRepo, cfg.HistoryLimit),
		blobs:  newFakeBlobStore(),
		llm:    &fakeLLM{},
	}
	env.docs = NewDocumentService(env.reg, env.blobs, idx, env.llm, cfg, logger)
	env.query = NewQueryService(env.reg, env.ledger, idx, env.llm, cfg, logger)
	return env
}

func TestUploadIndexesDocument(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.docs.UploadDocument(ctx, &models.UploadRequest{
		File:        []byte("the quarterly total was 42"),
		Filename:    "report.txt",
		ContentType: "text/plain",
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if resp.Duplicate {
		t.Errorf("fresh upload reported duplicate")
	}
	if resp.Document.Status != models.StatusIndexed {
		t.Errorf("status = %q, want %q", resp.Document.Status, models.StatusIndexed)
	}
	if _, ok := env.blobs.objects[resp.Document.Fingerprint]; !ok {
		t.Errorf("original bytes not stored")
	}
}

func TestUploadDuplicateSkipsPipeline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	content := []byte("the quarterly total was 42")

	first, err := env.docs.UploadDocument(ctx, &models.UploadRequest{
		File: content, Filename: "report.txt", ContentType: "text/plain",
	})
	if err != nil {
		t.Fatalf("first upload failed: %v", err)
	}

	embedsBefore := env.llm.embedCalls

	second, err := env.docs.UploadDocument(ctx, &models.UploadRequest{
		File: content, Filename: "report_copy.txt", ContentType: "text/plain",
	})
	if err != nil {
		t.Fatalf("second upload failed: %v", err)
	}
	if !second.Duplicate {
		t.Errorf("identical content not reported as duplicate")
	}
	if second.Document.Filename != first.Document.Filename {
		t.Errorf("duplicate changed filename to %q", second.Document.Filename)
	}
	if env.llm.embedCalls != embedsBefore {
		t.Errorf("duplicate upload re-ran the embedding pipeline")
	}

	docs, err := env.docs.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("registry has %d records, want 1", len(docs))
	}
}

func TestUploadExtractionFailureMarksFailed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.docs.UploadDocument(ctx, &models.UploadRequest{
		File:        []byte("not a real pdf"),
		Filename:    "broken.pdf",
		ContentType: "application/pdf",
	})
	if err == nil {
		t.Fatalf("broken PDF upload succeeded")
	}
	appErr, ok := err.(*utils.AppError)
	if !ok || appErr.StatusCode != 422 {
		t.Errorf("got error %v, want 422 AppError", err)
	}

	docs, listErr := env.docs.ListDocuments(ctx)
	if listErr != nil {
		t.Fatalf("list failed: %v", listErr)
	}
	if len(docs) != 1 || docs[0].Status != models.StatusFailed {
		t.Errorf("document not marked failed: %+v", docs)
	}
}

func TestRemoveDocument(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.docs.UploadDocument(ctx, &models.UploadRequest{
		File: []byte("content"), Filename: "doc.txt", ContentType: "text/plain",
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if err := env.docs.RemoveDocument(ctx, resp.Document.Fingerprint); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, ok := env.blobs.objects[resp.Document.Fingerprint]; ok {
		t.Errorf("blob not deleted")
	}

	err = env.docs.RemoveDocument(ctx, resp.Document.Fingerprint)
	appErr, ok := err.(*utils.AppError)
	if !ok || appErr.StatusCode != 404 {
		t.Errorf("second remove = %v, want 404 AppError", err)
	}
}

func TestQueryRecordsHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.docs.UploadDocument(ctx, &models.UploadRequest{
		File: []byte("the quarterly total was 42"), Filename: "report.txt", ContentType: "text/plain",
	}); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	resp, err := env.query.Query(ctx, &models.QueryRequest{Question: "what was the total?"})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if resp.Entry.Response != "the answer" {
		t.Errorf("answer = %q", resp.Entry.Response)
	}
	if resp.Entry.ModelUsed != "gpt-4o-mini" {
		t.Errorf("model used = %q, want default", resp.Entry.ModelUsed)
	}
	if len(resp.Sources) == 0 {
		t.Errorf("no sources returned")
	}

	entries, err := env.query.ListHistory(ctx)
	if err != nil {
		t.Fatalf("list history failed: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != resp.Entry.ID {
		t.Errorf("history does not contain the recorded entry")
	}
}

func TestQueryFailureNotRecorded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.docs.UploadDocument(ctx, &models.UploadRequest{
		File: []byte("content"), Filename: "doc.txt", ContentType: "text/plain",
	}); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	env.llm.broken = true

	_, err := env.query.Query(ctx, &models.QueryRequest{Question: "anything?"})
	appErr, ok := err.(*utils.AppError)
	if !ok || appErr.StatusCode != 502 {
		t.Fatalf("got error %v, want 502 AppError", err)
	}

	env.llm.broken = false
	entries, err := env.query.ListHistory(ctx)
	if err != nil {
		t.Fatalf("list history failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("failed query was recorded in history")
	}
}

func TestQueryWithoutDocuments(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.query.Query(context.Background(), &models.QueryRequest{Question: "anything?"})
	appErr, ok := err.(*utils.AppError)
	if !ok || appErr.StatusCode != 400 {
		t.Errorf("query with empty registry = %v, want 400 AppError", err)
	}
}

func TestQueryUnknownModelRejected(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.query.Query(context.Background(), &models.QueryRequest{
		Question: "anything?",
		Model:    "gpt-99-ultra",
	})
	appErr, ok := err.(*utils.AppError)
	if !ok || appErr.StatusCode != 400 {
		t.Errorf("unknown model = %v, want 400 AppError", err)
	}
}

func TestSetActiveModel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.query.SetActiveModel(ctx, "gpt-4o"); err != nil {
		t.Fatalf("set model failed: %v", err)
	}
	if got := env.query.Models(ctx).Active; got != "gpt-4o" {
		t.Errorf("active model = %q, want gpt-4o", got)
	}

	if err := env.query.SetActiveModel(ctx, "not-a-model"); err == nil {
		t.Errorf("invalid model accepted")
	}

	// Switching models does not rewrite recorded entries
	if _, err := env.docs.UploadDocument(ctx, &models.UploadRequest{
		File: []byte("content"), Filename: "doc.txt", ContentType: "text/plain",
	}); err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	resp, err := env.query.Query(ctx, &models.QueryRequest{Question: "q?"})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if resp.Entry.ModelUsed != "gpt-4o" {
		t.Errorf("entry model = %q, want gpt-4o", resp.Entry.ModelUsed)
	}

	if err := env.query.SetActiveModel(ctx, "gpt-4-turbo"); err != nil {
		t.Fatalf("set model failed: %v", err)
	}
	entries, err := env.query.ListHistory(ctx)
	if err != nil {
		t.Fatalf("list history failed: %v", err)
	}
	if entries[0].ModelUsed != "gpt-4o" {
		t.Errorf("recorded entry changed model to %q", entries[0].ModelUsed)
	}
}

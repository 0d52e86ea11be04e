package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/docquery/document-query-api/internal/config"
	"github.com/docquery/document-query-api/internal/history"
	"github.com/docquery/document-query-api/internal/index"
	"github.com/docquery/document-query-api/internal/llm"
	"github.com/docquery/document-query-api/internal/models"
	"github.com/docquery/document-query-api/internal/registry"
	"github.com/docquery/document-query-api/internal/repository"
	"github.com/docquery/document-query-api/internal/utils"
)

// sourceExcerptLen bounds the excerpt attached to each source snippet.
const sourceExcerptLen = 200

type QueryService interface {
	Query(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error)
	ListHistory(ctx context.Context) ([]models.QueryHistoryEntry, error)
	DeleteHistoryEntry(ctx context.Context, id string) error
	ClearHistory(ctx context.Context) error
	Models(ctx context.Context) models.ModelsResponse
	SetActiveModel(ctx context.Context, name string) error
}

type queryService struct {
	registry *registry.Registry
	ledger   *history.Ledger
	index    index.Index
	llm      llm.Client
	logger   *utils.Logger

	searchLimit int

	mu          sync.RWMutex
	activeModel string
}

func NewQueryService(reg *registry.Registry, ledger *history.Ledger, idx index.Index, llmClient llm.Client, cfg *config.Config, logger *utils.Logger) QueryService {
	return &queryService{
		registry:    reg,
		ledger:      ledger,
		index:       idx,
		llm:         llmClient,
		logger:      logger,
		searchLimit: cfg.SearchLimit,
		activeModel: cfg.DefaultModel,
	}
}

// Query answers a question against the indexed documents. On success
// the exchange is appended to the history ledger; if any collaborator
// fails, nothing is recorded and the failure is surfaced.
func (s *queryService) Query(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, utils.NewBadRequestError("Question is required")
	}

	model := req.Model
	if model == "" {
		model = s.ActiveModel()
	} else if !config.ValidModel(model) {
		return nil, utils.NewBadRequestError(fmt.Sprintf("Unknown model %q", model))
	}

	docs, err := s.registry.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list documents", "error", err)
		return nil, utils.NewInternalError("Failed to check document registry")
	}
	if len(docs) == 0 {
		return nil, utils.NewBadRequestError("Upload a document before asking questions")
	}

	vectors, err := s.llm.Embed(ctx, []string{question})
	if err != nil {
		s.logger.Error("Failed to embed question", "error", err)
		return nil, utils.NewUpstreamError("Failed to process question")
	}

	hits, err := s.index.Search(ctx, vectors[0], s.searchLimit)
	if err != nil {
		s.logger.Error("Index search failed", "error", err)
		return nil, utils.NewUpstreamError("Failed to search documents")
	}

	answer, err := s.llm.Chat(ctx, model, buildMessages(question, hits))
	if err != nil {
		s.logger.Error("Chat completion failed", "error", err, "model", model)
		return nil, utils.NewUpstreamError("Failed to generate an answer")
	}

	entry, err := s.ledger.Append(ctx, question, answer, model)
	if err != nil {
		s.logger.Error("Failed to record history entry", "error", err)
		return nil, utils.NewInternalError("Failed to record query history")
	}

	s.logger.Info("Query answered",
		"id", entry.ID,
		"model", model,
		"sources", len(hits),
		"answer_length", len(answer))

	return &models.QueryResponse{
		Entry:   entry,
		Sources: s.buildSources(docs, hits),
	}, nil
}

func buildMessages(question string, hits []index.Hit) []llm.Message {
	var contextBuilder strings.Builder
	for _, hit := range hits {
		contextBuilder.WriteString(hit.Text)
		contextBuilder.WriteString("\n\n")
	}

	system := fmt.Sprintf(`You are a document assistant. Answer the user's question using only the context below. If the context does not contain the answer, say so.

Context:
%s`, contextBuilder.String())

	return []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: question},
	}
}

func (s *queryService) buildSources(docs []models.DocumentRecord, hits []index.Hit) []models.SourceSnippet {
	names := make(map[string]string, len(docs))
	for _, doc := range docs {
		names[doc.Fingerprint] = doc.Filename
	}

	sources := make([]models.SourceSnippet, 0, len(hits))
	for _, hit := range hits {
		excerpt := hit.Text
		if len(excerpt) > sourceExcerptLen {
			excerpt = excerpt[:sourceExcerptLen] + "..."
		}
		sources = append(sources, models.SourceSnippet{
			Filename: names[hit.Fingerprint],
			Excerpt:  excerpt,
			Score:    hit.Score,
		})
	}
	return sources
}

func (s *queryService) ListHistory(ctx context.Context) ([]models.QueryHistoryEntry, error) {
	entries, err := s.ledger.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list history", "error", err)
		return nil, utils.NewInternalError("Failed to list query history")
	}
	return entries, nil
}

func (s *queryService) DeleteHistoryEntry(ctx context.Context, id string) error {
	if err := s.ledger.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return utils.NewNotFoundError("History entry not found")
		}
		s.logger.Error("Failed to delete history entry", "error", err, "id", id)
		return utils.NewInternalError("Failed to delete history entry")
	}
	return nil
}

func (s *queryService) ClearHistory(ctx context.Context) error {
	if err := s.ledger.Clear(ctx); err != nil {
		s.logger.Error("Failed to clear history", "error", err)
		return utils.NewInternalError("Failed to clear query history")
	}
	return nil
}

func (s *queryService) ActiveModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeModel
}

func (s *queryService) Models(ctx context.Context) models.ModelsResponse {
	return models.ModelsResponse{
		Available: config.AvailableModels,
		Active:    s.ActiveModel(),
	}
}

// SetActiveModel switches the default model for future queries.
// Already-recorded history entries keep the model that produced them.
func (s *queryService) SetActiveModel(ctx context.Context, name string) error {
	if !config.ValidModel(name) {
		return utils.NewBadRequestError(fmt.Sprintf("Unknown model %q", name))
	}

	s.mu.Lock()
	s.activeModel = name
	s.mu.Unlock()

	s.logger.Info("Active model changed", "model", name)
	return nil
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docquery/document-query-api/internal/blob"
	"github.com/docquery/document-query-api/internal/config"
	"github.com/docquery/document-query-api/internal/history"
	"github.com/docquery/document-query-api/internal/index"
	"github.com/docquery/document-query-api/internal/llm"
	"github.com/docquery/document-query-api/internal/registry"
	"github.com/docquery/document-query-api/internal/repository"
	"github.com/docquery/document-query-api/internal/router"
	"github.com/docquery/document-query-api/internal/services"
	"github.com/docquery/document-query-api/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := utils.NewLogger(cfg.LogLevel)

	// Persistence backend
	var docRepo repository.DocumentRepository
	var histRepo repository.HistoryRepository

	switch cfg.StoreBackend {
	case "sqlite":
		db, err := repository.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			logger.Fatal("Failed to open SQLite store", "error", err)
		}
		defer db.Close()
		docRepo = repository.NewSQLiteDocumentRepository(db)
		histRepo = repository.NewSQLiteHistoryRepository(db)
	default:
		docRepo, err = repository.NewFileDocumentRepository(cfg.PersistDir, logger)
		if err != nil {
			logger.Fatal("Failed to open document store", "error", err)
		}
		histRepo, err = repository.NewFileHistoryRepository(cfg.PersistDir, logger)
		if err != nil {
			logger.Fatal("Failed to open history store", "error", err)
		}
	}

	// Blob storage for original upload bytes
	var blobs blob.Store
	switch cfg.BlobBackend {
	case "s3":
		blobs, err = blob.NewS3Store(cfg)
		if err != nil {
			logger.Fatal("Failed to initialize S3 blob storage", "error", err)
		}
	default:
		blobs, err = blob.NewLocalStore(cfg.BlobDir)
		if err != nil {
			logger.Fatal("Failed to initialize local blob storage", "error", err)
		}
	}

	// Vector index
	var idx index.Index
	switch cfg.IndexBackend {
	case "qdrant":
		idx, err = index.NewQdrantIndex(cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantCollection)
		if err != nil {
			logger.Fatal("Failed to connect to Qdrant", "error", err)
		}
	default:
		idx, err = index.NewMemoryIndex(cfg.PersistDir, logger)
		if err != nil {
			logger.Fatal("Failed to initialize vector index", "error", err)
		}
	}
	defer idx.Close()

	// Core components and services
	llmClient := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.EmbeddingModel, logger)
	reg := registry.New(docRepo, registry.DuplicatePolicy(cfg.DuplicatePolicy))
	ledger := history.NewLedger(histRepo, cfg.HistoryLimit)

	docService := services.NewDocumentService(reg, blobs, idx, llmClient, cfg, logger)
	queryService := services.NewQueryService(reg, ledger, idx, llmClient, cfg, logger)

	// Setup HTTP router
	handler := router.New(docService, queryService, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("Starting server", "port", cfg.Port,
			"store_backend", cfg.StoreBackend,
			"index_backend", cfg.IndexBackend,
			"blob_backend", cfg.BlobBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}

package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Models the service accepts for query answering. Mirrors the set the
// UI offered; anything else is rejected at the boundary.
var AvailableModels = []string{
	"gpt-4o-mini",
	"gpt-4o",
	"gpt-3.5-turbo",
	"gpt-4-turbo",
}

type Config struct {
	Port     string
	LogLevel string

	// Persistence
	PersistDir   string
	StoreBackend string // "json" or "sqlite"
	SQLitePath   string

	// Blob storage for original upload bytes
	BlobBackend       string // "local" or "s3"
	BlobDir           string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string
	S3UseSSL          bool

	// Vector index
	IndexBackend     string // "memory" or "qdrant"
	QdrantHost       string
	QdrantPort       int
	QdrantCollection string

	// OpenAI
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	DefaultModel   string
	EmbeddingModel string

	// Upload and history limits
	MaxFileSize  int64
	HistoryLimit int

	// What a re-upload of identical content does: "ignore" or "refresh"
	DuplicatePolicy string

	// Retrieval tuning
	ChunkSize    int
	ChunkOverlap int
	SearchLimit  int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		PersistDir:        getEnv("PERSIST_DIR", "./storage"),
		StoreBackend:      getEnv("STORE_BACKEND", "json"),
		SQLitePath:        getEnv("SQLITE_PATH", "./storage/docquery.db"),
		BlobBackend:       getEnv("BLOB_BACKEND", "local"),
		BlobDir:           getEnv("BLOB_DIR", "./storage/blobs"),
		S3Endpoint:        getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", "minioadmin"),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", "minioadmin"),
		S3BucketName:      getEnv("S3_BUCKET_NAME", "documents"),
		S3UseSSL:          getEnv("S3_USE_SSL", "false") == "true",
		IndexBackend:      getEnv("INDEX_BACKEND", "memory"),
		QdrantHost:        getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:        getEnvInt("QDRANT_PORT", 6334),
		QdrantCollection:  getEnv("QDRANT_COLLECTION", "documents"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		DefaultModel:      getEnv("DEFAULT_MODEL", "gpt-4o-mini"),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		MaxFileSize:       5 * 1024 * 1024,
		HistoryLimit:      getEnvInt("HISTORY_LIMIT", 50),
		DuplicatePolicy:   getEnv("DUPLICATE_POLICY", "ignore"),
		ChunkSize:         getEnvInt("CHUNK_SIZE", 400),
		ChunkOverlap:      getEnvInt("CHUNK_OVERLAP", 50),
		SearchLimit:       getEnvInt("SEARCH_LIMIT", 5),
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	if !ValidModel(cfg.DefaultModel) {
		return nil, fmt.Errorf("DEFAULT_MODEL %q is not a recognized model", cfg.DefaultModel)
	}

	switch cfg.StoreBackend {
	case "json", "sqlite":
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be json or sqlite, got %q", cfg.StoreBackend)
	}

	switch cfg.BlobBackend {
	case "local", "s3":
	default:
		return nil, fmt.Errorf("BLOB_BACKEND must be local or s3, got %q", cfg.BlobBackend)
	}

	switch cfg.IndexBackend {
	case "memory", "qdrant":
	default:
		return nil, fmt.Errorf("INDEX_BACKEND must be memory or qdrant, got %q", cfg.IndexBackend)
	}

	switch cfg.DuplicatePolicy {
	case "ignore", "refresh":
	default:
		return nil, fmt.Errorf("DUPLICATE_POLICY must be ignore or refresh, got %q", cfg.DuplicatePolicy)
	}

	return cfg, nil
}

// ValidModel reports whether name is in the enumerated allowlist.
func ValidModel(name string) bool {
	for _, m := range AvailableModels {
		if m == name {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

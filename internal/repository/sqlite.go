package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/docquery/document-query-api/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// OpenSQLite connects to the database file, creating its directory if
// needed, and applies pending migrations.
func OpenSQLite(dbFile string) (*sqlx.DB, error) {
	absPath, err := filepath.Abs(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute database path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sqlx.Connect("sqlite", absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

type sqliteDocumentRepo struct {
	db *sqlx.DB
}

func NewSQLiteDocumentRepository(db *sqlx.DB) DocumentRepository {
	return &sqliteDocumentRepo{db: db}
}

func (r *sqliteDocumentRepo) List(ctx context.Context) ([]models.DocumentRecord, error) {
	var docs []models.DocumentRecord
	query := `
		SELECT fingerprint, filename, content_type, size_bytes, status, uploaded_at
		FROM documents
		ORDER BY rowid
	`
	if err := r.db.SelectContext(ctx, &docs, query); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *sqliteDocumentRepo) GetByFingerprint(ctx context.Context, fingerprint string) (*models.DocumentRecord, error) {
	var doc models.DocumentRecord
	query := `
		SELECT fingerprint, filename, content_type, size_bytes, status, uploaded_at
		FROM documents
		WHERE fingerprint = $1
	`
	err := r.db.GetContext(ctx, &doc, query, fingerprint)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *sqliteDocumentRepo) Create(ctx context.Context, rec models.DocumentRecord) error {
	query := `
		INSERT INTO documents (fingerprint, filename, content_type, size_bytes, status, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.Fingerprint,
		rec.Filename,
		rec.ContentType,
		rec.SizeBytes,
		rec.Status,
		rec.UploadedAt,
	)
	return err
}

func (r *sqliteDocumentRepo) UpdateStatus(ctx context.Context, fingerprint string, status models.DocumentStatus) error {
	query := `UPDATE documents SET status = $2 WHERE fingerprint = $1`
	res, err := r.db.ExecContext(ctx, query, fingerprint, status)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqliteDocumentRepo) Touch(ctx context.Context, fingerprint string, uploadedAt time.Time) error {
	query := `UPDATE documents SET uploaded_at = $2 WHERE fingerprint = $1`
	res, err := r.db.ExecContext(ctx, query, fingerprint, uploadedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqliteDocumentRepo) Delete(ctx context.Context, fingerprint string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE fingerprint = $1`, fingerprint)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqliteDocumentRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM documents`)
	return err
}

type sqliteHistoryRepo struct {
	db *sqlx.DB
}

func NewSQLiteHistoryRepository(db *sqlx.DB) HistoryRepository {
	return &sqliteHistoryRepo{db: db}
}

func (r *sqliteHistoryRepo) List(ctx context.Context) ([]models.QueryHistoryEntry, error) {
	var entries []models.QueryHistoryEntry
	query := `
		SELECT id, question, response, model_used, timestamp
		FROM query_history
		ORDER BY rowid
	`
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *sqliteHistoryRepo) Append(ctx context.Context, entry models.QueryHistoryEntry) error {
	query := `
		INSERT INTO query_history (id, question, response, model_used, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.Question,
		entry.Response,
		entry.ModelUsed,
		entry.Timestamp,
	)
	return err
}

func (r *sqliteHistoryRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM query_history WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqliteHistoryRepo) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM query_history`)
	return err
}

func (r *sqliteHistoryRepo) Trim(ctx context.Context, max int) error {
	if max < 0 {
		return nil
	}
	query := `
		DELETE FROM query_history
		WHERE rowid NOT IN (
			SELECT rowid FROM query_history ORDER BY rowid DESC LIMIT $1
		)
	`
	_, err := r.db.ExecContext(ctx, query, max)
	return err
}

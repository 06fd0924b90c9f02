// Package sqlite stores the application document in a single row of a SQLite
// key-value table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"bookkeeper/internal/core"
	"bookkeeper/internal/storage"

	_ "modernc.org/sqlite"
)

// DefaultKey is the slot name used when none is configured.
const DefaultKey = "bookkeeper_app_data"

type Store struct {
	db  *sql.DB
	key string
}

var _ storage.DocumentStore = (*Store)(nil)

// Open creates the database file if needed, applies migrations and returns a
// store bound to key.
func Open(dbPath, key string) (*Store, error) {
	if key == "" {
		key = DefaultKey
	}
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, key: key}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save replaces the stored document.
func (s *Store) Save(ctx context.Context, doc core.Document) error {
	body, err := core.MarshalDocument(doc)
	if err != nil {
		return err
	}
	if err := s.WriteRaw(ctx, body); err != nil {
		return err
	}

	slog.DebugContext(ctx, "Document saved to SQLite",
		"key", s.key,
		"bytes", len(body),
		"transactions", len(doc.Transactions))
	return nil
}

func (s *Store) Load(ctx context.Context) (core.Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE key = ?`, s.key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Document{}, storage.ErrNotFound
	}
	if err != nil {
		return core.Document{}, fmt.Errorf("load document %q: %w", s.key, err)
	}
	return core.UnmarshalDocument([]byte(body))
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping: %w", err)
	}
	return nil
}

// WriteRaw stores body verbatim. Used to seed corrupt fixtures in tests and
// by operators restoring a hand-edited document.
func (s *Store) WriteRaw(ctx context.Context, body []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (key, body, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		s.key, string(body))
	if err != nil {
		return fmt.Errorf("write document %q: %w", s.key, err)
	}
	return nil
}

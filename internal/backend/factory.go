package backend

import (
	"context"
	"fmt"
	"log/slog"

	"bookkeeper/internal/storage/memory"
	"bookkeeper/internal/storage/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*Result, error) {
	store, err := sqlite.Open(config.SQLiteDBPath, config.DocumentKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"document_key", config.DocumentKey)

	return &Result{
		Store:   store,
		Cleanup: store.Close,
		Health:  store.HealthCheck,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context) (*Result, error) {
	f.logger.InfoContext(ctx, "Initialized memory backend; the document is lost on exit")
	return &Result{
		Store:   memory.New(),
		Cleanup: func() error { return nil },
		Health:  func(context.Context) error { return nil },
	}, nil
}

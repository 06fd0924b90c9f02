package backend

import (
	"context"

	"bookkeeper/internal/storage"
)

// CleanupFunc releases resources held by a backend
type CleanupFunc func() error

// HealthFunc reports whether the backend can serve requests
type HealthFunc func(ctx context.Context) error

// Result contains the document store and its lifecycle hooks
type Result struct {
	Store   storage.DocumentStore
	Cleanup CleanupFunc
	Health  HealthFunc
}

// Factory creates document stores based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
	DocumentKey  string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

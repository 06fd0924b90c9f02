// Package storage defines how the application document is persisted.
//
// The document is always written and read as a whole. Implementations store
// the serialized form produced by core.MarshalDocument under a single key.
package storage

import (
	"context"
	"errors"

	"bookkeeper/internal/core"
)

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("document not found")

// DocumentStore persists the whole document.
//
// Load returns ErrNotFound when the slot is empty and an error wrapping
// core.ErrCorruptDocument when the stored bytes cannot be parsed.
type DocumentStore interface {
	Save(ctx context.Context, doc core.Document) error
	Load(ctx context.Context) (core.Document, error)
}

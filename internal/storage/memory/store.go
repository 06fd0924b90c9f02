// Package memory keeps the serialized document in process memory.
package memory

import (
	"context"
	"sync"

	"bookkeeper/internal/core"
	"bookkeeper/internal/storage"
)

type Store struct {
	mu   sync.RWMutex
	body []byte
	// SaveErr, when set, is returned by every Save.
	SaveErr error
}

var _ storage.DocumentStore = (*Store)(nil)

func New() *Store { return &Store{} }

func (s *Store) Save(_ context.Context, doc core.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	body, err := core.MarshalDocument(doc)
	if err != nil {
		return err
	}
	s.body = body
	return nil
}

func (s *Store) Load(_ context.Context) (core.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.body == nil {
		return core.Document{}, storage.ErrNotFound
	}
	return core.UnmarshalDocument(s.body)
}

// SetRaw replaces the stored bytes verbatim.
func (s *Store) SetRaw(body []byte) {
	s.mu.Lock()
	s.body = append([]byte(nil), body...)
	s.mu.Unlock()
}

// Raw returns a copy of the stored bytes, or nil when empty.
func (s *Store) Raw() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.body == nil {
		return nil
	}
	return append([]byte(nil), s.body...)
}

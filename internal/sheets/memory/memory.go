// Package memory is an in-process stand-in for the spreadsheet mirror.
package memory

import (
	"context"
	"sync"

	ports "bookkeeper/internal/sheets"
)

type Store struct {
	mu     sync.Mutex
	rows   [][]string
	writes int
	// Err, when set, is returned by WriteTable.
	Err error
}

var (
	_ ports.TableWriter = (*Store)(nil)
	_ ports.TableReader = (*Store)(nil)
)

func New() *Store { return &Store{} }

func (s *Store) WriteTable(_ context.Context, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.rows = copyRows(rows)
	s.writes++
	return nil
}

func (s *Store) ReadTable(_ context.Context) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRows(s.rows), nil
}

// Writes counts successful WriteTable calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func copyRows(in [][]string) [][]string {
	out := make([][]string, len(in))
	for i, row := range in {
		out[i] = append([]string(nil), row...)
	}
	return out
}

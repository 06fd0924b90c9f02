package memory

import (
	"context"
	"errors"
	"testing"

	"bookkeeper/internal/core"
	"bookkeeper/internal/storage"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.Load(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	doc := core.SeedDocument()
	if err := s.Save(ctx, doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Mutating the caller's copy must not leak into the stored bytes.
	doc.Categories[0].Name = "changed"

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Categories[0].Name != "العمل" {
		t.Fatalf("stored document aliased caller memory: %q", got.Categories[0].Name)
	}

	s.SetRaw([]byte("not json"))
	if _, err := s.Load(ctx); !errors.Is(err, core.ErrCorruptDocument) {
		t.Fatalf("expected ErrCorruptDocument, got %v", err)
	}

	boom := errors.New("disk full")
	s.SaveErr = boom
	if err := s.Save(ctx, doc); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
}

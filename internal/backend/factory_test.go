package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"bookkeeper/internal/config"
	"bookkeeper/internal/core"
	"bookkeeper/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		wantErr bool
	}{
		{"sqlite", "sqlite", false},
		{"memory", "memory", false},
		{"sheets is not a document backend", "sheets", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := FromAppConfig(&config.Config{DataBackend: tt.backend, SQLiteDBPath: "x.db", DocumentKey: "k"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromAppConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && (cfg.Type.String() != tt.backend || cfg.DocumentKey != "k") {
				t.Fatalf("unexpected config %+v", cfg)
			}
		})
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestValidateRequiresSQLitePath(t *testing.T) {
	if err := (Config{Type: SQLiteBackend}).Validate(); err == nil {
		t.Fatal("expected error for missing path")
	}
	if err := (Config{Type: MemoryBackend}).Validate(); err != nil {
		t.Fatalf("memory backend: %v", err)
	}
}

func TestCreateBackends(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	for _, cfg := range []Config{
		{Type: MemoryBackend},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "books.db"), DocumentKey: "test"},
	} {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			res, err := f.CreateBackend(ctx, cfg)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			defer res.Cleanup()

			if err := res.Health(ctx); err != nil {
				t.Fatalf("health: %v", err)
			}
			if _, err := res.Store.Load(ctx); !errors.Is(err, storage.ErrNotFound) {
				t.Fatalf("fresh store should be empty, got %v", err)
			}
			if err := res.Store.Save(ctx, core.SeedDocument()); err != nil {
				t.Fatalf("save: %v", err)
			}
			doc, err := res.Store.Load(ctx)
			if err != nil || len(doc.Categories) != 2 {
				t.Fatalf("load after save: %v %+v", err, doc.Categories)
			}
		})
	}
}

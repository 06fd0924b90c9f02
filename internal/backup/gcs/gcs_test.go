package gcs

import (
	"context"
	"testing"
)

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty bucket name")
	}
}

func TestURI(t *testing.T) {
	b := &Bucket{name: "books"}
	if got := b.URI("backups/a.json"); got != "gs://books/backups/a.json" {
		t.Fatalf("URI() = %q", got)
	}
}

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestComponentAndLogError(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf, Component: ComponentBook})
	l.LogError(context.Background(), "Save failed", errors.New("disk full"), OpSave, FieldDocumentKey, "k")

	out := buf.String()
	for _, want := range []string{"component=book", "operation=save", "disk full", "document_key=k"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}

	buf.Reset()
	l.WithComponent(ComponentStorage).Info("x")
	if !strings.Contains(buf.String(), "component=storage") {
		t.Errorf("child component missing: %s", buf.String())
	}
}

func TestWithComponentReplacesComponent(t *testing.T) {
	tests := []struct {
		name  string
		child func(*Logger) *Logger
		key   bool
	}{
		{"rebind", func(l *Logger) *Logger { return l.WithComponent(ComponentBook) }, false},
		{"rebind twice", func(l *Logger) *Logger {
			return l.WithComponent(ComponentStorage).WithComponent(ComponentBook)
		}, false},
		{"with then rebind", func(l *Logger) *Logger {
			return l.With(FieldDocumentKey, "k").WithComponent(ComponentBook)
		}, true},
		{"rebind then with", func(l *Logger) *Logger {
			return l.WithComponent(ComponentBook).With(FieldDocumentKey, "k")
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.child(New(Config{Output: &buf, Format: "json"})).Info("x")

			out := buf.String()
			if n := strings.Count(out, `"component"`); n != 1 {
				t.Fatalf("component appears %d times: %s", n, out)
			}
			var rec map[string]any
			if err := json.Unmarshal([]byte(out), &rec); err != nil {
				t.Fatalf("decode %q: %v", out, err)
			}
			if rec[FieldComponent] != ComponentBook {
				t.Fatalf("component = %v, want %s", rec[FieldComponent], ComponentBook)
			}
			if tt.key && rec[FieldDocumentKey] != "k" {
				t.Fatalf("With attribute lost: %s", out)
			}
		})
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Output: &buf, Format: "json"}).Info("hello")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("expected JSON output, got %s", buf.String())
	}
}

func TestContextLogger(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext must never return nil")
	}
	l := Discard()
	ctx := NewContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Fatal("expected stored logger")
	}
}

func TestLogHTTPEndLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf})
	r := httptest.NewRequest("GET", "/transactions", nil)

	l.LogHTTPEnd(context.Background(), r, 404, 3, "1.2.3.4")
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Fatalf("4xx should log at warn: %s", buf.String())
	}
	buf.Reset()
	l.LogHTTPEnd(context.Background(), r, 503, 3, "1.2.3.4")
	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Fatalf("5xx should log at error: %s", buf.String())
	}
}

func TestTransactionFields(t *testing.T) {
	f := NewFields().WithTransaction("t1", "credit", 100, 250).WithError(nil)
	if f[FieldTransactionID] != "t1" || f[FieldBalanceCents] != int64(250) {
		t.Fatalf("unexpected fields %v", f)
	}
	if _, ok := f[FieldError]; ok {
		t.Fatal("nil error should not be recorded")
	}
	if len(f.ToSlice()) != 8 {
		t.Fatalf("ToSlice length = %d", len(f.ToSlice()))
	}
}

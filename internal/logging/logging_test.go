package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, err := New(&buf, "warn")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	l.Info("hidden")
	l.Warn("shown", "op", "list")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "op=list") {
		t.Fatalf("expected warn line with fields, got %q", out)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	if _, err := New(&bytes.Buffer{}, "loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestOpenFileCreatesParents(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "todo.log")
	l, f, err := OpenFile(path, "debug")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	l.Error("request failed", "status", 500)
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), "status=500") {
		t.Fatalf("expected logfmt output, got %q", string(b))
	}
}

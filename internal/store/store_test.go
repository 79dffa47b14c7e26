package store

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"confscore/internal/features"
)

func TestOpen(t *testing.T) {
	tempDir := t.TempDir()

	st, err := Open(tempDir)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	if _, err := os.Stat(filepath.Join(tempDir, "outcomes.db")); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing", "nested")); err == nil {
		t.Error("Expected error for nonexistent directory, got nil")
	}
}

func TestStore_AppendExportRoundTrip(t *testing.T) {
	st, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	outcomes := []features.Record{
		{"coin": "BTC", "rsi": 61.0, "pnl": 4.2},
		{"coin": "ETH", "rsi": 34.0, "pnl": -1.7},
		{"coin": "BTC", "rsi": 52.0, "won": 1.0},
	}
	for i, rec := range outcomes {
		if err := st.Append(rec); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	n, err := st.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 stored outcomes, got %d", n)
	}

	var buf bytes.Buffer
	exported, err := st.Export(&buf)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if exported != 3 {
		t.Errorf("Expected 3 exported records, got %d", exported)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 JSONL lines, got %d", len(lines))
	}
	for i, line := range lines {
		if !strings.HasPrefix(line, "{") || !strings.HasSuffix(line, "}") {
			t.Errorf("Line %d is not a JSON object: %q", i, line)
		}
	}
}

func TestStore_ExportEmpty(t *testing.T) {
	st, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	var buf bytes.Buffer
	n, err := st.Export(&buf)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if n != 0 || buf.Len() != 0 {
		t.Errorf("Expected empty export, got %d records, %d bytes", n, buf.Len())
	}
}

func TestStore_Close(t *testing.T) {
	st, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}

	if err := st.Close(); err != nil {
		t.Errorf("Error closing store: %v", err)
	}
}

package patterns

import (
	"os"
	"path/filepath"
	"testing"
)

func writePatternFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write pattern file: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writePatternFile(t, `patterns:
  ticket: '[A-Z]{2,5}-\d+'
  sha256: '\b[0-9a-f]{64}\b'
`)

	lib := NewLibrary()
	if err := lib.LoadFile(path); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	m, ok := lib.Lookup("ticket")
	if !ok {
		t.Fatal("ticket pattern not registered")
	}
	matches := m.FindAll("fixed in PROJ-123 and PROJ-456")
	if len(matches) != 2 {
		t.Errorf("expected 2 ticket matches, got %d", len(matches))
	}
}

func TestLoadFileInvalidExpression(t *testing.T) {
	path := writePatternFile(t, `patterns:
  bad: '[unclosed'
`)

	lib := NewLibrary()
	if err := lib.LoadFile(path); err == nil {
		t.Error("expected error for uncompilable pattern, got nil")
	}
}

func TestLoadFileMissing(t *testing.T) {
	lib := NewLibrary()
	if err := lib.LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestLoadFileMalformedYAML(t *testing.T) {
	path := writePatternFile(t, "patterns: [not a map")

	lib := NewLibrary()
	if err := lib.LoadFile(path); err == nil {
		t.Error("expected error for malformed YAML, got nil")
	}
}

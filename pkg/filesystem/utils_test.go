package filesystem

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEnsureDirectoryExists(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name     string
		filePath string
		created  string // directory that must exist afterwards, empty for none
	}{
		{
			name:     "bare filename needs no directory",
			filePath: "cache.db",
		},
		{
			name:     "single level",
			filePath: filepath.Join(tempDir, "data", "cache.db"),
			created:  filepath.Join(tempDir, "data"),
		},
		{
			name:     "nested levels",
			filePath: filepath.Join(tempDir, "a", "b", "c", "cache.db"),
			created:  filepath.Join(tempDir, "a", "b", "c"),
		},
		{
			name:     "directory already exists",
			filePath: filepath.Join(tempDir, "data", "other.db"),
			created:  filepath.Join(tempDir, "data"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := EnsureDirectoryExists(tt.filePath); err != nil {
				t.Fatalf("EnsureDirectoryExists(%q) failed: %v", tt.filePath, err)
			}
			if tt.created == "" {
				return
			}
			info, err := os.Stat(tt.created)
			if err != nil {
				t.Fatalf("directory %q not created: %v", tt.created, err)
			}
			if !info.IsDir() {
				t.Errorf("%q is not a directory", tt.created)
			}
		})
	}
}

func TestEnsureDirectoryExistsReadOnlyParent(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	readOnly := filepath.Join(t.TempDir(), "readonly")
	if err := os.MkdirAll(readOnly, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(readOnly, 0o444); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(readOnly, 0o755) })

	if err := EnsureDirectoryExists(filepath.Join(readOnly, "sub", "cache.db")); err == nil {
		t.Error("expected error creating a directory under a read-only parent")
	}
}

func TestGetDefaultPath(t *testing.T) {
	path, err := GetDefaultPath("metadata.db")
	if err != nil {
		t.Fatalf("GetDefaultPath failed: %v", err)
	}
	if !filepath.IsAbs(path) {
		t.Errorf("expected absolute path, got %q", path)
	}
	if !strings.HasSuffix(path, "metadata.db") {
		t.Errorf("path %q does not end with the filename", path)
	}
}

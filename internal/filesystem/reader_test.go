package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/IvanShishkin/docsentry/internal/config"
	"go.uber.org/zap"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int64
	}{
		{"Bytes", "100", 100},
		{"Kilobytes", "1K", 1024},
		{"Kilobytes lowercase", "1k", 1024},
		{"Megabytes", "1M", 1024 * 1024},
		{"Megabytes lowercase", "1m", 1024 * 1024},
		{"Gigabytes", "1G", 1024 * 1024 * 1024},
		{"Multiple KB", "650K", 650 * 1024},
		{"Multiple MB", "50M", 50 * 1024 * 1024},
		{"Invalid format", "abc", 0},
		{"Empty string", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseSize(tt.input); got != tt.expected {
				t.Errorf("ParseSize(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGetExtension(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/path/to/file.pdf", "pdf"},
		{"/path/to/file.DOCM", "DOCM"}, // Extension preserves case
		{"/path/to/file.rtf", "rtf"},
		{"/path/to/file", ""},
		{"/path/to/file.tar.gz", "gz"},
		{"file.xlsx", "xlsx"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := GetExtension(tt.path); got != tt.expected {
				t.Errorf("GetExtension(%q) = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}
}

func TestReadDocument(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.rtf")
	testContent := `{\rtf1 hello}`

	if err := os.WriteFile(testFile, []byte(testContent), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	data, err := ReadDocument(testFile, 0)
	if err != nil {
		t.Fatalf("ReadDocument() error = %v", err)
	}
	if string(data) != testContent {
		t.Errorf("content = %q, want %q", string(data), testContent)
	}
}

func TestReadDocument_NonExistent(t *testing.T) {
	if _, err := ReadDocument("/nonexistent/file.pdf", 0); err == nil {
		t.Error("ReadDocument() expected error for non-existent file, got nil")
	}
}

func TestReadDocument_EmptyFile(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "empty.pdf")
	if err := os.WriteFile(testFile, nil, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	_, err := ReadDocument(testFile, 0)
	if !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("ReadDocument() error = %v, want ErrEmptyDocument", err)
	}
}

func TestReadDocument_TooLarge(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "big.pdf")
	if err := os.WriteFile(testFile, make([]byte, 2048), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	_, err := ReadDocument(testFile, 1024)
	if !errors.Is(err, ErrDocumentTooLarge) {
		t.Errorf("ReadDocument() error = %v, want ErrDocumentTooLarge", err)
	}

	if _, err := ReadDocument(testFile, 2048); err != nil {
		t.Errorf("ReadDocument() at limit error = %v", err)
	}
}

func TestWriteDocument(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	path, err := WriteDocument(dir, "../abc_clean.pdf", []byte("%PDF"))
	if err != nil {
		t.Fatalf("WriteDocument() error = %v", err)
	}
	if path != filepath.Join(dir, "abc_clean.pdf") {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "%PDF" {
		t.Errorf("written content = %q, err = %v", data, err)
	}
}

func TestWalker(t *testing.T) {
	root := t.TempDir()
	files := map[string]int{
		"a.pdf":              10,
		"b.DOCX":             10,
		"notes.txt":          10,
		"sub/c.rtf":          10,
		"sub/huge.pdf":       4096,
		".git/objects/x.pdf": 10,
	}
	for name, size := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.Default()
	cfg.MaxSize = "1K"
	w := NewWalker(cfg, zap.NewNop())

	var got []string
	err := w.Walk(root, func(info *DocumentInfo) error {
		rel, _ := filepath.Rel(root, info.Path)
		got = append(got, filepath.ToSlash(rel)+":"+info.Extension)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	sort.Strings(got)

	want := []string{"a.pdf:pdf", "b.DOCX:docx", "sub/c.rtf:rtf"}
	if len(got) != len(want) {
		t.Fatalf("Walk() found %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Walk()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWalker_SingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload.bin")
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}

	w := NewWalker(config.Default(), zap.NewNop())
	count := 0
	if err := w.Walk(path, func(*DocumentInfo) error { count++; return nil }); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Walk() on a file visited %d entries, want 1", count)
	}
}

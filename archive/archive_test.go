package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"
)

type zipEntry struct {
	name    string
	content []byte
}

func buildZip(t *testing.T, entries []zipEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, entry := range entries {
		f, err := w.Create(entry.name)
		if err != nil {
			t.Fatalf("failed to create zip entry %s: %v", entry.name, err)
		}
		if _, err := f.Write(entry.content); err != nil {
			t.Fatalf("failed to write zip entry %s: %v", entry.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip writer: %v", err)
	}
	return buf.Bytes()
}

func findFile(result *Result, path string) (string, bool) {
	for _, f := range result.Files {
		if f.Path == path {
			return f.Content, true
		}
	}
	return "", false
}

func TestLoad_StripsCommonRoot(t *testing.T) {
	data := buildZip(t, []zipEntry{
		{"my-app/src/index.js", []byte("console.log('hi')")},
		{"my-app/package.json", []byte("{}")},
	})

	result, err := Load(data)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(result.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(result.Files))
	}

	content, ok := findFile(result, "src/index.js")
	if !ok {
		t.Fatal("expected src/index.js after root strip")
	}
	if content != "console.log('hi')" {
		t.Errorf("unexpected content: %q", content)
	}

	if _, ok := findFile(result, "package.json"); !ok {
		t.Error("expected package.json after root strip")
	}
}

func TestLoad_NoCommonRoot(t *testing.T) {
	data := buildZip(t, []zipEntry{
		{"index.js", []byte("a")},
		{"lib/utils.js", []byte("b")},
	})

	result, err := Load(data)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// The first entry sits at top level, so no root is stripped.
	if _, ok := findFile(result, "index.js"); !ok {
		t.Error("expected index.js to keep its path")
	}
	if _, ok := findFile(result, "lib/utils.js"); !ok {
		t.Error("expected lib/utils.js to keep its path")
	}
}

func TestLoad_SkipsDirectoryEntries(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	if _, err := w.Create("app/"); err != nil {
		t.Fatalf("failed to create dir entry: %v", err)
	}
	f, err := w.Create("app/main.go")
	if err != nil {
		t.Fatalf("failed to create file entry: %v", err)
	}
	f.Write([]byte("package main"))
	w.Close()

	result, err := Load(buf.Bytes())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(result.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(result.Files))
	}
	if result.Files[0].Path != "main.go" {
		t.Errorf("expected main.go, got %s", result.Files[0].Path)
	}
}

func TestLoad_SkipsBinaryEntries(t *testing.T) {
	data := buildZip(t, []zipEntry{
		{"app/logo.png", []byte{0x89, 0x50, 0x4E, 0x47, 0xFF, 0xFE}},
		{"app/main.js", []byte("let x = 1")},
	})

	result, err := Load(data)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(result.Files) != 1 {
		t.Fatalf("expected 1 text file, got %d", len(result.Files))
	}
	if result.Files[0].Path != "main.js" {
		t.Errorf("expected main.js, got %s", result.Files[0].Path)
	}

	if len(result.Skipped) != 1 || result.Skipped[0] != "logo.png" {
		t.Errorf("expected logo.png in skipped list, got %v", result.Skipped)
	}
}

func TestLoad_InvalidArchive(t *testing.T) {
	_, err := Load([]byte("this is not a zip"))
	if err == nil {
		t.Fatal("expected error for invalid archive")
	}

	var archiveErr *ArchiveError
	if !errors.As(err, &archiveErr) {
		t.Fatalf("expected *ArchiveError, got %T", err)
	}
}

func TestLoad_EmptyArchive(t *testing.T) {
	data := buildZip(t, nil)

	_, err := Load(data)
	if err == nil {
		t.Fatal("expected error for archive with no files")
	}

	var archiveErr *ArchiveError
	if !errors.As(err, &archiveErr) {
		t.Fatalf("expected *ArchiveError, got %T", err)
	}
}

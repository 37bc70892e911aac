// Package archive unpacks an uploaded project archive into an in-memory
// file set for the reproduction sandbox.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"bugscope/models"
)

// ArchiveError indicates the uploaded bytes are not a usable archive. The
// current reproduction attempt is abandoned; the user must re-upload.
type ArchiveError struct {
	Reason string
	Err    error
}

func (e *ArchiveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("archive error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("archive error: %s", e.Reason)
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// Result is the outcome of loading an archive. Skipped lists entries dropped
// because their content is not valid text; binary assets are of no use to the
// analysis payload.
type Result struct {
	Files   []models.CodeFile
	Skipped []string
}

// Load unpacks a zip byte stream into a flat file list in archive-enumeration
// order. A detected common root directory is stripped from every path that
// carries it; archives without a common root pass through unchanged.
func Load(data []byte) (*Result, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ArchiveError{Reason: "not a valid zip archive", Err: err}
	}

	root := commonRoot(reader.File)

	result := &Result{}
	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			continue
		}

		path := entry.Name
		if root != "" && strings.HasPrefix(path, root+"/") {
			path = strings.TrimPrefix(path, root+"/")
		}
		path = strings.TrimPrefix(path, "/")
		if path == "" {
			continue
		}

		content, err := readEntry(entry)
		if err != nil {
			return nil, &ArchiveError{Reason: fmt.Sprintf("failed to read entry %q", entry.Name), Err: err}
		}
		if !utf8.Valid(content) {
			result.Skipped = append(result.Skipped, path)
			continue
		}

		result.Files = append(result.Files, models.CodeFile{Path: path, Content: string(content)})
	}

	if len(result.Files) == 0 && len(result.Skipped) == 0 {
		return nil, &ArchiveError{Reason: "archive contains no files"}
	}

	return result, nil
}

// commonRoot returns the first path segment of the first non-directory entry.
// Entries not under that segment keep their paths unchanged, which defends
// against archives without a single top-level directory.
func commonRoot(entries []*zip.File) string {
	for _, entry := range entries {
		if entry.FileInfo().IsDir() {
			continue
		}
		name := strings.TrimPrefix(entry.Name, "/")
		if idx := strings.Index(name, "/"); idx > 0 {
			return name[:idx]
		}
		return ""
	}
	return ""
}

func readEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Package security confines document access to the configured data directory.
package security

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var (
	// ErrOutsideRoot is returned for paths that escape the data directory.
	ErrOutsideRoot = errors.New("path is outside the data directory")
	// ErrNotDocument is returned for files without an HTML extension.
	ErrNotDocument = errors.New("not an HTML document")
	// ErrTooLarge is returned for documents above the size limit.
	ErrTooLarge = errors.New("document exceeds maximum size")
)

var documentExtensions = map[string]bool{
	".html":  true,
	".htm":   true,
	".xhtml": true,
}

// DocumentInfo describes one HTML document in the data directory.
type DocumentInfo struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// DocumentRoot resolves and reads HTML documents under one directory.
type DocumentRoot struct {
	root    string
	maxSize int64
}

// NewDocumentRoot creates a DocumentRoot. The directory does not need to
// exist yet.
func NewDocumentRoot(dir string, maxSize int64) (*DocumentRoot, error) {
	if dir == "" {
		return nil, fmt.Errorf("data directory cannot be empty")
	}
	if maxSize <= 0 {
		return nil, fmt.Errorf("maximum document size must be positive")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}
	return &DocumentRoot{root: filepath.Clean(abs), maxSize: maxSize}, nil
}

// Dir returns the absolute data directory.
func (d *DocumentRoot) Dir() string {
	return d.root
}

// Resolve maps path onto an absolute path inside the data directory.
// Relative paths are taken relative to it. Symlinks are followed before the
// containment check.
func (d *DocumentRoot) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(d.root, path)
	}
	clean := filepath.Clean(path)

	realRoot := d.root
	if resolved, err := filepath.EvalSymlinks(d.root); err == nil {
		realRoot = resolved
	}
	realPath := clean
	if resolved, err := filepath.EvalSymlinks(clean); err == nil {
		realPath = resolved
	}

	if !within(d.root, clean) && !within(realRoot, clean) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	if !within(d.root, realPath) && !within(realRoot, realPath) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return clean, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// IsDocument reports whether name has an HTML extension.
func IsDocument(name string) bool {
	return documentExtensions[strings.ToLower(filepath.Ext(name))]
}

// Read returns the markup of the document at path.
func (d *DocumentRoot) Read(path string) (string, error) {
	resolved, err := d.Resolve(path)
	if err != nil {
		return "", err
	}
	if !IsDocument(resolved) {
		return "", fmt.Errorf("%w: %s", ErrNotDocument, path)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("cannot access document: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("path is a directory: %s", path)
	}
	if info.Size() > d.maxSize {
		return "", fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, info.Size(), d.maxSize)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	return string(data), nil
}

// List returns the HTML documents under the data directory, sorted by path.
// A missing directory yields an empty list.
func (d *DocumentRoot) List() ([]DocumentInfo, error) {
	var docs []DocumentInfo

	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == d.root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if entry.IsDir() {
			if path != d.root && strings.HasPrefix(entry.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !IsDocument(entry.Name()) {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return nil
		}
		docs = append(docs, DocumentInfo{
			Path:     path,
			Name:     entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

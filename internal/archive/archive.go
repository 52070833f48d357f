package archive

// archive.go — scaffold packaging: an in-memory file tree realized as a zip.
//
// The tree is filled completely before anything is encoded; Build and
// WriteDir only read it. Entries are emitted in sorted path order with a fixed
// modification time so identical trees produce byte-identical archives.

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ErrDuplicatePath is returned by Add when the path is already in the tree.
var ErrDuplicatePath = errors.New("duplicate path")

// modTime is stamped on every zip entry (the earliest time zip can encode).
var modTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Tree holds file contents keyed by slash-separated path relative to the
// archive root.
type Tree struct {
	files map[string][]byte
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{files: make(map[string][]byte)}
}

// Add stores content at p. p must be a clean relative slash path and must
// not already be present.
func (t *Tree) Add(p string, content []byte) error {
	if !fs.ValidPath(p) || p == "." {
		return fmt.Errorf("add %q: invalid archive path", p)
	}
	if _, ok := t.files[p]; ok {
		return fmt.Errorf("add %q: %w", p, ErrDuplicatePath)
	}
	t.files[p] = content
	return nil
}

// Len returns the number of files in the tree.
func (t *Tree) Len() int { return len(t.files) }

// Get returns the content stored at p.
func (t *Tree) Get(p string) ([]byte, bool) {
	b, ok := t.files[p]
	return b, ok
}

// Paths returns every path in sorted order.
func (t *Tree) Paths() []string {
	paths := make([]string, 0, len(t.files))
	for p := range t.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Build encodes the tree as a zip archive.
func (t *Tree) Build() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range t.Paths() {
		hdr := &zip.FileHeader{
			Name:     p,
			Method:   zip.Deflate,
			Modified: modTime,
		}
		hdr.SetMode(0o644)
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, fmt.Errorf("zip %s: %w", p, err)
		}
		if _, err := w.Write(t.files[p]); err != nil {
			return nil, fmt.Errorf("zip %s: %w", p, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip close: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteDir writes every file of the tree under dir, creating parent
// directories as needed. Existing files are overwritten.
func (t *Tree) WriteDir(dir string) error {
	for _, p := range t.Paths() {
		abs := filepath.Join(dir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", filepath.Dir(abs), err)
		}
		if err := os.WriteFile(abs, t.files[p], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", abs, err)
		}
	}
	return nil
}

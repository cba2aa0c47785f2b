// Package file provides a store.Store that keeps the book in a single JSON
// file on local disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/xraph/tally"
	"github.com/xraph/tally/document"
	"github.com/xraph/tally/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store persists the document to path. Saves write a sibling temp file,
// fsync it and rename it over path, so readers see either the old or the
// new book.
type Store struct {
	mu   sync.Mutex
	path string
	perm os.FileMode
}

// New returns a file store for path.
func New(path string) *Store {
	return &Store{path: path, perm: 0o600}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load implements store.Store.
func (s *Store) Load(_ context.Context) (*document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, tally.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("tally/file: read %s: %w", s.path, err)
	}
	return document.Decode(data)
}

// Save implements store.Store.
func (s *Store) Save(_ context.Context, doc *document.Document) error {
	data, err := document.EncodeIndent(doc)
	if err != nil {
		return fmt.Errorf("tally/file: encode: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("tally/file: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec // write error takes precedence
		return fmt.Errorf("tally/file: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck,gosec // sync error takes precedence
		return fmt.Errorf("tally/file: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tally/file: close: %w", err)
	}
	if err := os.Chmod(tmpName, s.perm); err != nil {
		return fmt.Errorf("tally/file: chmod: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("tally/file: rename: %w", err)
	}
	return nil
}

// Migrate creates the parent directory.
func (s *Store) Migrate(_ context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("tally/file: create directory: %w", err)
	}
	return nil
}

// Ping checks that the parent directory exists.
func (s *Store) Ping(_ context.Context) error {
	info, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		return fmt.Errorf("tally/file: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("tally/file: %s is not a directory", filepath.Dir(s.path))
	}
	return nil
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

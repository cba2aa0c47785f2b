// Package memory provides an in-process store.Store for tests and
// throwaway books.
package memory

import (
	"context"
	"sync"

	"github.com/xraph/tally"
	"github.com/xraph/tally/document"
	"github.com/xraph/tally/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store keeps the encoded document in memory so that callers never share
// mutable state with it.
type Store struct {
	mu     sync.RWMutex
	data   []byte
	closed bool
	saves  int
}

// New returns an empty memory store.
func New() *Store {
	return &Store{}
}

// Load implements store.Store.
func (s *Store) Load(_ context.Context) (*document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, tally.ErrStoreClosed
	}
	if s.data == nil {
		return nil, tally.ErrDocumentNotFound
	}
	return document.Decode(s.data)
}

// Save implements store.Store.
func (s *Store) Save(_ context.Context, doc *document.Document) error {
	data, err := document.Encode(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return tally.ErrStoreClosed
	}
	s.data = data
	s.saves++
	return nil
}

// SetRaw replaces the stored bytes verbatim, bypassing encoding.
func (s *Store) SetRaw(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
}

// Saves returns how many successful saves the store has seen.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Migrate implements store.Store. There is nothing to migrate.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping implements store.Store.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return tally.ErrStoreClosed
	}
	return nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Package store defines the persistence contract for Tally books.
//
// A backend holds exactly one aggregate document per book and replaces it
// as a whole on every save. Backends live in sub-packages: memory, file,
// redis, s3, sqlite, postgres and mongo.
package store

import (
	"context"

	"github.com/xraph/tally/document"
)

// DefaultKey is the book key used when none is configured.
const DefaultKey = "sub_manager_db"

// Store is the unified storage interface for a Tally book.
type Store interface {
	// Load returns the stored document. Backends return
	// tally.ErrDocumentNotFound when nothing has been saved yet and
	// wrap document.ErrMalformed when the stored bytes cannot be decoded.
	Load(ctx context.Context) (*document.Document, error)

	// Save replaces the stored document atomically.
	Save(ctx context.Context, doc *document.Document) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

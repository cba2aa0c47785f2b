// Package sqlite provides a store.Store backed by SQLite through the grove
// ORM, for single-machine books that want a real database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/tally"
	"github.com/xraph/tally/document"
	tallystore "github.com/xraph/tally/store"
)

// compile-time interface check
var _ tallystore.Store = (*Store)(nil)

type documentModel struct {
	grove.BaseModel `grove:"table:tally_documents"`

	Key       string    `grove:"book_key,pk"`
	Body      string    `grove:"body"`
	UpdatedAt time.Time `grove:"updated_at"`
}

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
	key string
}

// New creates a new SQLite store. An empty key selects store.DefaultKey.
func New(db *grove.DB, key string) *Store {
	if key == "" {
		key = tallystore.DefaultKey
	}
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
		key: key,
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the documents table using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("tally/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("tally/sqlite: migration failed: %w", err)
	}
	return nil
}

// Load implements store.Store.
func (s *Store) Load(ctx context.Context) (*document.Document, error) {
	m := new(documentModel)
	err := s.sdb.NewSelect(m).
		Where("book_key = ?", s.key).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, tally.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("tally/sqlite: load: %w", err)
	}
	return document.Decode([]byte(m.Body))
}

// Save implements store.Store with a single upsert statement.
func (s *Store) Save(ctx context.Context, doc *document.Document) error {
	body, err := document.Encode(doc)
	if err != nil {
		return fmt.Errorf("tally/sqlite: encode: %w", err)
	}
	m := &documentModel{Key: s.key, Body: string(body), UpdatedAt: time.Now().UTC()}
	_, err = s.sdb.NewInsert(m).
		OnConflict("(book_key) DO UPDATE").
		Set("body = EXCLUDED.body").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tally/sqlite: save: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

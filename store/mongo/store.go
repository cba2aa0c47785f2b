// Package mongo provides a store.Store backed by MongoDB through the grove
// ORM. The book is one document in the tally_documents collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/tally"
	"github.com/xraph/tally/document"
	tallystore "github.com/xraph/tally/store"
)

// Collection name constants.
const (
	colDocuments = "tally_documents"
)

// compile-time interface check
var _ tallystore.Store = (*Store)(nil)

type documentModel struct {
	grove.BaseModel `grove:"table:tally_documents"`

	Key       string    `grove:"book_key,pk" bson:"_id"`
	Body      string    `grove:"body"        bson:"body"`
	UpdatedAt time.Time `grove:"updated_at"  bson:"updated_at"`
}

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
	key string
}

// New creates a new MongoDB store. An empty key selects store.DefaultKey.
func New(db *grove.DB, key string) *Store {
	if key == "" {
		key = tallystore.DefaultKey
	}
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
		key: key,
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for the documents collection.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("tally/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Load implements store.Store.
func (s *Store) Load(ctx context.Context) (*document.Document, error) {
	var m documentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": s.key}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, tally.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("tally/mongo: load: %w", err)
	}
	return document.Decode([]byte(m.Body))
}

// Save implements store.Store. The upsert replaces the body in one write.
func (s *Store) Save(ctx context.Context, doc *document.Document) error {
	body, err := document.Encode(doc)
	if err != nil {
		return fmt.Errorf("tally/mongo: encode: %w", err)
	}
	m := &documentModel{Key: s.key, Body: string(body), UpdatedAt: time.Now().UTC()}

	_, err = s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Key}).
		SetUpdate(bson.M{"$set": bson.M{
			"_id":        m.Key,
			"body":       m.Body,
			"updated_at": m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tally/mongo: save: %w", err)
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

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for tally collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colDocuments: {
			{Keys: bson.D{{Key: "updated_at", Value: -1}}, Options: options.Index().SetName("updated_at_desc")},
		},
	}
}

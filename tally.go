package tally

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/tally/document"
	"github.com/xraph/tally/plugin"
	"github.com/xraph/tally/reminder"
	"github.com/xraph/tally/store"
	"github.com/xraph/tally/types"
)

// Tally is the subscription book engine. It owns one document, loaded by
// Start, and saves the whole document after every change.
type Tally struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	clock      func() time.Time
	currency   string
	dialPrefix string

	mu  sync.Mutex
	doc *document.Document
}

// New creates a new Tally instance.
func New(s store.Store, opts ...Option) *Tally {
	t := &Tally{
		store:      s,
		plugins:    plugin.NewRegistry(),
		logger:     slog.Default(),
		clock:      time.Now,
		dialPrefix: reminder.DefaultDialPrefix,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Option configures a Tally instance.
type Option func(*Tally)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tally) {
		t.logger = logger
		t.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(t *Tally) {
		_ = t.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(t *Tally) {
		t.plugins.WithTimeout(d)
	}
}

// WithClock replaces the wall clock used for payment dates, reminder dates
// and creation stamps.
func WithClock(clock func() time.Time) Option {
	return func(t *Tally) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// WithCurrency overrides the currency code stored in the book.
func WithCurrency(code string) Option {
	return func(t *Tally) {
		t.currency = code
	}
}

// WithDialPrefix sets the country dial prefix put in front of local phone
// numbers in reminder links.
func WithDialPrefix(prefix string) Option {
	return func(t *Tally) {
		t.dialPrefix = prefix
	}
}

// Plugins returns the plugin registry.
func (t *Tally) Plugins() *plugin.Registry { return t.plugins }

// Store returns the backend the book is persisted to.
func (t *Tally) Store() store.Store { return t.store }

// Start migrates the backend, loads the book and initializes plugins.
func (t *Tally) Start(ctx context.Context) error {
	if err := t.store.Migrate(ctx); err != nil {
		return err
	}

	doc := t.Load(ctx)

	t.plugins.EmitInit(ctx, t)

	t.logger.Info("tally started",
		"groups", len(doc.Groups),
		"packages", len(doc.Packages),
		"customers", len(doc.Customers),
		"payments", len(doc.Payments),
	)

	return nil
}

// Stop shuts down the Tally.
func (t *Tally) Stop() error {
	ctx := context.Background()
	t.plugins.EmitShutdown(ctx)

	return t.store.Close()
}

// ──────────────────────────────────────────────────
// Persistence gateway
// ──────────────────────────────────────────────────

// Load reads the book from the store and makes it current. A missing or
// unreadable book is replaced by the default one; Load never fails. It
// returns a copy of the book now held.
func (t *Tally) Load(ctx context.Context) *document.Document {
	doc, err := t.store.Load(ctx)
	switch {
	case errors.Is(err, ErrDocumentNotFound):
		t.logger.Warn("no stored book, starting from default")
		doc = document.Default()
	case err != nil:
		t.logger.Warn("stored book unreadable, starting from default", "error", err)
		doc = document.Default()
	}
	if t.currency != "" {
		doc.Currency = t.currency
	}

	t.mu.Lock()
	t.doc = doc
	out := doc.Clone()
	t.mu.Unlock()

	return out
}

// Save writes the current book to the store.
func (t *Tally) Save(ctx context.Context) error {
	t.mu.Lock()
	if t.doc == nil {
		t.mu.Unlock()
		return ErrNotLoaded
	}
	next := t.doc.Clone()
	elapsed, err := t.persist(ctx, next)
	if err == nil {
		t.doc = next
	}
	t.mu.Unlock()

	return t.afterSave(ctx, "save", elapsed, err)
}

// Document returns a copy of the current book.
func (t *Tally) Document() (*document.Document, error) {
	var out *document.Document
	err := t.read(func(doc *document.Document) error {
		out = doc.Clone()
		return nil
	})
	return out, err
}

// Currency returns the currency code of the current book.
func (t *Tally) Currency() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.doc == nil {
		if t.currency != "" {
			return t.currency
		}
		return document.DefaultCurrency
	}
	return t.doc.Currency
}

// errUnchanged lets a mutation report that there is nothing to save.
var errUnchanged = errors.New("tally: unchanged")

// write applies fn to a copy of the book, saves the copy and makes it
// current only when the save succeeds. notify, if returned, runs after the
// lock is released so hooks may call back into the engine.
func (t *Tally) write(ctx context.Context, op string, fn func(doc *document.Document) (notify func(), err error)) error {
	t.mu.Lock()
	if t.doc == nil {
		t.mu.Unlock()
		return ErrNotLoaded
	}

	next := t.doc.Clone()
	notify, err := fn(next)
	if err != nil {
		t.mu.Unlock()
		if errors.Is(err, errUnchanged) {
			return nil
		}
		return err
	}

	elapsed, err := t.persist(ctx, next)
	if err == nil {
		t.doc = next
	}
	t.mu.Unlock()

	if err := t.afterSave(ctx, op, elapsed, err); err != nil {
		return err
	}
	if notify != nil {
		notify()
	}
	return nil
}

// read runs fn against the current book under the lock.
func (t *Tally) read(fn func(doc *document.Document) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.doc == nil {
		return ErrNotLoaded
	}
	return fn(t.doc)
}

func (t *Tally) persist(ctx context.Context, doc *document.Document) (time.Duration, error) {
	stamp := t.clock().UTC()
	doc.UpdatedAt = &stamp

	start := time.Now()
	err := t.store.Save(ctx, doc)
	return time.Since(start), err
}

func (t *Tally) afterSave(ctx context.Context, op string, elapsed time.Duration, err error) error {
	if err != nil {
		t.logger.Error("failed to save book",
			"op", op,
			"error", err,
		)
		t.plugins.EmitSaveFailed(ctx, op, err)
		return &PersistenceError{Op: op, Err: err}
	}

	t.logger.Debug("saved book",
		"op", op,
		"elapsed_ms", elapsed.Milliseconds(),
	)
	t.plugins.EmitDocumentSaved(ctx, op, elapsed)
	return nil
}

func (t *Tally) now() time.Time { return t.clock() }

func (t *Tally) today() types.Date { return types.DateOf(t.clock()) }

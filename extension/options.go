package extension

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/tally"
	"github.com/xraph/tally/plugin"
	"github.com/xraph/tally/store"
)

// Option configures the Tally Forge extension.
type Option func(*Extension)

// WithStore sets the store for the tally engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithTallyOption passes a tally.Option through to the underlying engine.
func WithTallyOption(opt tally.Option) Option {
	return func(e *Extension) {
		e.tallyOpts = append(e.tallyOpts, opt)
	}
}

// WithPlugin registers a tally plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.tallyOpts = append(e.tallyOpts, tally.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithCurrency sets the display currency code.
func WithCurrency(code string) Option {
	return func(e *Extension) { e.config.Currency = code }
}

// WithPluginTimeout bounds every plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.PluginTimeout = d }
}

// WithGroveDB keeps the book in a grove database. driver is one of
// GrovePostgres, GroveSQLite or GroveMongo and selects the store backend.
func WithGroveDB(db *grove.DB, driver string) Option {
	return func(e *Extension) {
		e.groveDB = db
		e.config.GroveDriver = driver
	}
}

package extension

import (
	"time"

	"github.com/xraph/tally/config"
	"github.com/xraph/tally/reminder"
)

// Grove drivers accepted in Config.GroveDriver.
const (
	GrovePostgres = "postgres"
	GroveSQLite   = "sqlite"
	GroveMongo    = "mongo"
)

// Config holds the Tally extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.tally" or "tally" keys).
type Config struct {
	// Store selects the file, memory, redis or s3 backend. It is ignored
	// when a store or grove database is supplied programmatically.
	Store config.StoreConfig `json:"store" mapstructure:"store" yaml:"store"`

	// Currency is the display currency code (default: the book's own).
	Currency string `json:"currency" mapstructure:"currency" yaml:"currency"`

	// DialPrefix is put in front of local phone numbers in reminder links.
	DialPrefix string `json:"dial_prefix" mapstructure:"dial_prefix" yaml:"dial_prefix"`

	// PluginTimeout bounds every plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// GroveDriver names the driver behind the grove.DB passed with
	// WithGroveDB: postgres, sqlite or mongo.
	GroveDriver string `json:"grove_driver" mapstructure:"grove_driver" yaml:"grove_driver"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Store:         config.Default().Store,
		DialPrefix:    reminder.DefaultDialPrefix,
		PluginTimeout: 5 * time.Second,
	}
}

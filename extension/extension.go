// Package extension provides the Forge extension adapter for Tally.
//
// It implements the forge.Extension interface to integrate Tally
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.tally" or "tally" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/tally"
	"github.com/xraph/tally/config"
	"github.com/xraph/tally/store"
	mongostore "github.com/xraph/tally/store/mongo"
	pgstore "github.com/xraph/tally/store/postgres"
	sqlitestore "github.com/xraph/tally/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "tally"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Subscription book-keeping for small groups"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Tally as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config    Config
	engine    *tally.Tally
	store     store.Store
	groveDB   *grove.DB
	tallyOpts []tally.Option
}

// New creates a new Tally Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Tally instance.
// This is nil until Register is called.
func (e *Extension) Engine() *tally.Tally { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// opens the store, and registers the engine in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if err := e.resolveStore(context.Background()); err != nil {
		return err
	}

	e.engine = tally.New(e.store, e.buildTallyOpts()...)

	return vessel.Provide(fapp.Container(), func() (*tally.Tally, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension]. It migrates the store and loads the book.
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("tally: extension not initialized")
	}
	if err := e.engine.Start(ctx); err != nil {
		return err
	}
	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("tally: store not initialized")
	}
	return e.store.Ping(ctx)
}

// resolveStore picks the backend: an explicit store wins, then a grove
// database, then the configured driver.
func (e *Extension) resolveStore(ctx context.Context) error {
	if e.store != nil {
		return nil
	}
	if e.groveDB != nil {
		s, err := groveStore(e.groveDB, e.config.GroveDriver, e.config.Store.Key)
		if err != nil {
			return err
		}
		e.store = s
		return nil
	}

	cfg := tallyConfig(e.config)
	s, err := cfg.OpenStore(ctx)
	if err != nil {
		return err
	}
	e.store = s
	return nil
}

// tallyConfig projects the extension settings onto a config.Config.
func tallyConfig(c Config) config.Config {
	return config.Config{
		Store:      c.Store,
		Currency:   c.Currency,
		DialPrefix: c.DialPrefix,
	}
}

// groveStore builds the grove-backed store for driver.
func groveStore(db *grove.DB, driver, key string) (store.Store, error) {
	switch driver {
	case GrovePostgres:
		return pgstore.New(db, key), nil
	case GroveSQLite:
		return sqlitestore.New(db, key), nil
	case GroveMongo:
		return mongostore.New(db, key), nil
	default:
		return nil, fmt.Errorf("tally: unknown grove driver %q", driver)
	}
}

// buildTallyOpts constructs tally.Option values from the resolved config.
func (e *Extension) buildTallyOpts() []tally.Option {
	opts := make([]tally.Option, 0, len(e.tallyOpts)+3)

	if e.config.Currency != "" {
		opts = append(opts, tally.WithCurrency(e.config.Currency))
	}
	if e.config.DialPrefix != "" {
		opts = append(opts, tally.WithDialPrefix(e.config.DialPrefix))
	}
	if e.config.PluginTimeout > 0 {
		opts = append(opts, tally.WithPluginTimeout(e.config.PluginTimeout))
	}

	// Append any pass-through tally options.
	opts = append(opts, e.tallyOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("tally: configuration is required but not found in config files; " +
				"ensure 'extensions.tally' or 'tally' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("tally: configuration loaded",
		forge.F("store_driver", e.config.Store.Driver),
		forge.F("grove_driver", e.config.GroveDriver),
		forge.F("currency", e.config.Currency),
		forge.F("plugin_timeout", e.config.PluginTimeout),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cfg, key, ok := bindFileConfig(e.App().Config(), func(key string, err error) {
		e.Logger().Warn("tally: failed to bind config",
			forge.F("key", key),
			forge.F("error", err),
		)
	})
	if ok {
		e.Logger().Debug("tally: loaded config from file",
			forge.F("key", key),
		)
	}
	return cfg, ok
}

// configSource is the part of the Forge config manager used for binding.
type configSource interface {
	IsSet(key string) bool
	Bind(key string, target any) error
}

// bindFileConfig binds the first config key that is set and decodes cleanly.
// A key that is set but fails to bind is passed to onErr with its error.
func bindFileConfig(cm configSource, onErr func(key string, err error)) (Config, string, bool) {
	for _, key := range []string{"extensions.tally", "tally"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err != nil {
			onErr(key, err)
			continue
		}
		return cfg, key, true
	}
	return Config{}, "", false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = defaults.Store.Driver
	}
	if cfg.Store.Key == "" {
		cfg.Store.Key = defaults.Store.Key
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = defaults.Store.Path
	}
	if cfg.DialPrefix == "" {
		cfg.DialPrefix = defaults.DialPrefix
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if yamlConfig.Store.Driver == "" {
		yamlConfig.Store = programmaticConfig.Store
	}
	if yamlConfig.Currency == "" {
		yamlConfig.Currency = programmaticConfig.Currency
	}
	if yamlConfig.DialPrefix == "" {
		yamlConfig.DialPrefix = programmaticConfig.DialPrefix
	}
	if yamlConfig.PluginTimeout == 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}
	// The grove driver describes a programmatic database handle.
	if programmaticConfig.GroveDriver != "" {
		yamlConfig.GroveDriver = programmaticConfig.GroveDriver
	}

	// Fill remaining zeros with defaults.
	return mergeWithDefaults(yamlConfig)
}

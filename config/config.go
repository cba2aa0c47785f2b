// Package config loads Tally settings from YAML files and the environment
// and opens the configured store backend.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/xraph/tally"
	"github.com/xraph/tally/reminder"
	"github.com/xraph/tally/store"
	"github.com/xraph/tally/store/file"
	"github.com/xraph/tally/store/memory"
	redisstore "github.com/xraph/tally/store/redis"
	s3store "github.com/xraph/tally/store/s3"
)

// Store drivers understood by OpenStore.
const (
	DriverFile   = "file"
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverS3     = "s3"
)

// EnvPrefix prefixes every environment variable FromEnv reads.
const EnvPrefix = "TALLY_"

// Config is the top-level Tally configuration.
type Config struct {
	Store      StoreConfig `json:"store" mapstructure:"store" yaml:"store"`
	Currency   string      `json:"currency" mapstructure:"currency" yaml:"currency"`
	DialPrefix string      `json:"dial_prefix" mapstructure:"dial_prefix" yaml:"dial_prefix"`
	LogLevel   string      `json:"log_level" mapstructure:"log_level" yaml:"log_level"`
}

// StoreConfig selects and locates the persistence backend.
type StoreConfig struct {
	// Driver is one of file, memory, redis or s3.
	Driver string `json:"driver" mapstructure:"driver" yaml:"driver"`

	// Key names the book inside the backend.
	Key string `json:"key" mapstructure:"key" yaml:"key"`

	// Path is the JSON file used by the file driver.
	Path string `json:"path" mapstructure:"path" yaml:"path"`

	// URL is the redis:// address used by the redis driver.
	URL string `json:"url" mapstructure:"url" yaml:"url"`

	S3 s3store.Config `json:"s3" mapstructure:"s3" yaml:"s3"`
}

// Default returns a Config that keeps the book in ./tally.json.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Driver: DriverFile,
			Key:    store.DefaultKey,
			Path:   "tally.json",
		},
		DialPrefix: reminder.DefaultDialPrefix,
		LogLevel:   "info",
	}
}

// Load reads a YAML file on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("tally/config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("tally/config: parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// FromEnv loads the given .env files (missing ones are skipped) and then
// applies TALLY_* variables on top of Default.
func FromEnv(files ...string) (Config, error) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("tally/config: load %s: %w", f, err)
		}
	}

	cfg := Default()
	cfg.ApplyEnv()
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields with any TALLY_* variables that are set.
func (c *Config) ApplyEnv() {
	set := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}

	set("STORE_DRIVER", &c.Store.Driver)
	set("STORE_KEY", &c.Store.Key)
	set("STORE_PATH", &c.Store.Path)
	set("REDIS_URL", &c.Store.URL)
	set("S3_BUCKET", &c.Store.S3.Bucket)
	set("S3_KEY", &c.Store.S3.Key)
	set("S3_REGION", &c.Store.S3.Region)
	set("S3_ENDPOINT", &c.Store.S3.Endpoint)
	set("S3_ACCESS_KEY", &c.Store.S3.AccessKey)
	set("S3_SECRET_KEY", &c.Store.S3.SecretKey)
	set("CURRENCY", &c.Currency)
	set("DIAL_PREFIX", &c.DialPrefix)
	set("LOG_LEVEL", &c.LogLevel)

	if v, ok := os.LookupEnv(EnvPrefix + "S3_PATH_STYLE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Store.S3.UsePathStyle = b
		}
	}
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverFile:
		if c.Store.Path == "" {
			return errors.New("tally/config: store.path is required for the file driver")
		}
	case DriverRedis:
		if c.Store.URL == "" {
			return errors.New("tally/config: store.url is required for the redis driver")
		}
	case DriverS3:
		if c.Store.S3.Bucket == "" {
			return errors.New("tally/config: store.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("tally/config: unknown store driver %q", c.Store.Driver)
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// OpenStore builds the backend named by Store.Driver.
func (c Config) OpenStore(ctx context.Context) (store.Store, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	switch c.Store.Driver {
	case DriverMemory:
		return memory.New(), nil
	case DriverRedis:
		return redisstore.Open(c.Store.URL, c.Store.Key)
	case DriverS3:
		return s3store.Open(ctx, c.Store.S3)
	default:
		return file.New(c.Store.Path), nil
	}
}

// Logger returns a text logger at the configured level.
func (c Config) Logger() *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Options converts the settings into engine options.
func (c Config) Options() []tally.Option {
	opts := []tally.Option{tally.WithLogger(c.Logger())}
	if c.Currency != "" {
		opts = append(opts, tally.WithCurrency(c.Currency))
	}
	if c.DialPrefix != "" {
		opts = append(opts, tally.WithDialPrefix(c.DialPrefix))
	}
	return opts
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return level, fmt.Errorf("tally/config: invalid log level %q", s)
	}
	return level, nil
}

// Package config loads contactctl settings from layered YAML files and
// CONTACTS_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vortex-fintech/contacts/data/postgres"
	"github.com/vortex-fintech/contacts/data/redis"
	"github.com/vortex-fintech/contacts/export"
	"github.com/vortex-fintech/contacts/foundation/retry"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Log     Log           `yaml:"log"`
	Store   Store         `yaml:"store"`
	Cache   Cache         `yaml:"cache"`
	Export  export.Config `yaml:"export"`
	Retry   retry.Policy  `yaml:"retry"`
	Metrics Metrics       `yaml:"metrics"`
}

type Log struct {
	Service string `yaml:"service"`
	Env     string `yaml:"env"` // development | production
}

type Store struct {
	Driver   string          `yaml:"driver"`
	SQLite   SQLite          `yaml:"sqlite"`
	Postgres postgres.Config `yaml:"postgres"`
	// Table only applies to postgres; sqlite always uses "contacts".
	Table string `yaml:"table"`
}

// DriverName is Driver trimmed and lower-cased.
func (s Store) DriverName() string { return strings.ToLower(strings.TrimSpace(s.Driver)) }

type SQLite struct {
	Path string `yaml:"path"`
}

// Cache is disabled while Redis has no address. RefillTTL bounds entries
// written on a read miss and is capped at TTL.
type Cache struct {
	Redis     redis.Config  `yaml:"redis"`
	TTL       time.Duration `yaml:"ttl"`
	RefillTTL time.Duration `yaml:"refill_ttl"`
	Prefix    string        `yaml:"prefix"`
}

func (c Cache) Enabled() bool { return c.Redis.Configured() }

type Metrics struct {
	// Textfile, when set, receives the metrics of each run in the
	// node_exporter textfile format.
	Textfile string `yaml:"textfile"`
}

func DefaultConfig() Config {
	return Config{
		Log: Log{Service: "contactctl", Env: "production"},
		Store: Store{
			Driver: DriverSQLite,
			SQLite: SQLite{Path: "contacts.db"},
			Table:  "contacts",
		},
		Cache: Cache{TTL: 5 * time.Minute, RefillTTL: 30 * time.Second, Prefix: "contacts:"},
		Retry: retry.DefaultPolicy(),
	}
}

// Load reads a single YAML file over the defaults. A missing or empty file
// yields the defaults; unknown keys are an error.
func Load(path string) (*Config, error) {
	return LoadLayered(path)
}

// LoadLayered applies the files in order over the defaults; later files win
// key by key. Missing files are skipped.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()
	for _, path := range paths {
		if err := decodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		// Comment-only YAML files produce EOF with no decoded content.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides settings from the environment:
// CONTACTS_ENV, CONTACTS_STORE_DRIVER, CONTACTS_SQLITE_PATH, CONTACTS_POSTGRES_URL,
// CONTACTS_REDIS_ADDR, CONTACTS_CACHE_TTL, CONTACTS_EXPORT_BUCKET,
// CONTACTS_EXPORT_PREFIX, CONTACTS_EXPORT_REGION, CONTACTS_EXPORT_ENDPOINT,
// CONTACTS_METRICS_TEXTFILE.
func (c *Config) ApplyEnv() error {
	str := map[string]*string{
		"CONTACTS_ENV":              &c.Log.Env,
		"CONTACTS_STORE_DRIVER":     &c.Store.Driver,
		"CONTACTS_SQLITE_PATH":      &c.Store.SQLite.Path,
		"CONTACTS_POSTGRES_URL":     &c.Store.Postgres.URL,
		"CONTACTS_REDIS_ADDR":       &c.Cache.Redis.Addr,
		"CONTACTS_EXPORT_BUCKET":    &c.Export.Bucket,
		"CONTACTS_EXPORT_PREFIX":    &c.Export.Prefix,
		"CONTACTS_EXPORT_REGION":    &c.Export.Region,
		"CONTACTS_EXPORT_ENDPOINT":  &c.Export.Endpoint,
		"CONTACTS_METRICS_TEXTFILE": &c.Metrics.Textfile,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("CONTACTS_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid CONTACTS_CACHE_TTL %q: %w", v, err)
		}
		c.Cache.TTL = d
	}
	return nil
}

// Validate checks the settings the selected driver and enabled features need.
func (c *Config) Validate() error {
	switch c.Log.Env {
	case "development", "production":
	default:
		return fmt.Errorf("config: log.env must be \"development\" or \"production\", got %q", c.Log.Env)
	}

	switch c.Store.DriverName() {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.SQLite.Path == "" {
			return errors.New("config: store.sqlite.path cannot be empty")
		}
	case DriverPostgres:
		if err := c.Store.Postgres.Validate(); err != nil {
			return fmt.Errorf("config: store.postgres: %w", err)
		}
	default:
		return fmt.Errorf("config: store.driver must be one of memory, sqlite, postgres, got %q", c.Store.Driver)
	}

	if c.Cache.Enabled() {
		if err := c.Cache.Redis.Validate(); err != nil {
			return fmt.Errorf("config: cache.redis: %w", err)
		}
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("config: cache.ttl must be positive, got %v", c.Cache.TTL)
		}
		if c.Cache.RefillTTL < 0 {
			return fmt.Errorf("config: cache.refill_ttl must be non-negative, got %v", c.Cache.RefillTTL)
		}
	}

	if c.Retry.MaxElapsed < 0 || c.Retry.InitialInterval < 0 || c.Retry.MaxInterval < 0 {
		return errors.New("config: retry intervals must be non-negative")
	}
	return nil
}

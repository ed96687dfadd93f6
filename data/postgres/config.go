package postgres

import (
	"errors"
	"strings"
	"time"
)

// DefaultApplicationName is reported in pg_stat_activity unless the DSN sets one.
const DefaultApplicationName = "contacts"

// Config describes a pool. URL is a postgres:// DSN; Params are merged into
// its query string and win over values already there.
type Config struct {
	URL             string            `yaml:"url"`
	Params          map[string]string `yaml:"params"`
	ApplicationName string            `yaml:"application_name"`

	MaxConns          int32         `yaml:"max_conns"`
	MinConns          int32         `yaml:"min_conns"`
	MaxConnLifetime   time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `yaml:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `yaml:"health_check_period"`
	PingTimeout       time.Duration `yaml:"ping_timeout"`
}

var (
	errEmptyURL                = errors.New("postgres: empty URL")
	errNegativeMaxConns        = errors.New("postgres: max conns must be >= 0")
	errNegativeMinConns        = errors.New("postgres: min conns must be >= 0")
	errMinConnsExceedsMaxConns = errors.New("postgres: min conns must be <= max conns")
	errNegativePingTimeout     = errors.New("postgres: ping timeout must be >= 0")
)

// Validate reports the first problem with c, if any.
func (c Config) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return errEmptyURL
	}
	if c.MaxConns < 0 {
		return errNegativeMaxConns
	}
	if c.MinConns < 0 {
		return errNegativeMinConns
	}
	if c.MaxConns > 0 && c.MinConns > c.MaxConns {
		return errMinConnsExceedsMaxConns
	}
	if c.PingTimeout < 0 {
		return errNegativePingTimeout
	}
	return nil
}

func (c Config) pingTimeout() time.Duration {
	if c.PingTimeout > 0 {
		return c.PingTimeout
	}
	return 5 * time.Second
}

func (c Config) applicationName() string {
	if n := strings.TrimSpace(c.ApplicationName); n != "" {
		return n
	}
	return DefaultApplicationName
}

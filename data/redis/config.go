package redis

import (
	"errors"
	"strings"
	"time"
)

type Mode = string

const (
	ModeSingle   Mode = "single"
	ModeSentinel Mode = "sentinel"
	ModeCluster  Mode = "cluster"
)

// Config selects the deployment shape through Mode. Addr is a shortcut for
// a single address; Addrs wins when both are set.
type Config struct {
	Mode         string        `yaml:"mode"`
	Addr         string        `yaml:"addr"`
	Addrs        []string      `yaml:"addrs"`
	MasterName   string        `yaml:"master_name"`
	DB           int           `yaml:"db"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PoolSize     int           `yaml:"pool_size"`
	TLSEnabled   bool          `yaml:"tls"`
}

var (
	errAddressRequired      = errors.New("redis: address is required")
	errUnsupportedMode      = errors.New("redis: unsupported mode")
	errMasterNameRequired   = errors.New("redis: master name is required for sentinel mode")
	errMasterNameUnexpected = errors.New("redis: master name is only valid for sentinel mode")
	errSingleModeAddrCount  = errors.New("redis: single mode requires exactly one address")
	errClusterModeAddrCount = errors.New("redis: cluster mode requires at least two addresses")
	errClusterDBUnsupported = errors.New("redis: db must be 0 in cluster mode")
	errInvalidDB            = errors.New("redis: db must be >= 0")
)

// Configured reports whether any address is set. An unconfigured cache is skipped.
func (c Config) Configured() bool { return len(c.addrs()) > 0 }

// Validate checks the address count and options against the mode.
func (c Config) Validate() error {
	addrs := c.addrs()
	if c.DB < 0 {
		return errInvalidDB
	}
	if len(addrs) == 0 {
		return errAddressRequired
	}

	master := strings.TrimSpace(c.MasterName)
	switch c.mode() {
	case ModeSingle:
		if len(addrs) != 1 {
			return errSingleModeAddrCount
		}
		if master != "" {
			return errMasterNameUnexpected
		}
	case ModeCluster:
		if len(addrs) < 2 {
			return errClusterModeAddrCount
		}
		if master != "" {
			return errMasterNameUnexpected
		}
		if c.DB != 0 {
			return errClusterDBUnsupported
		}
	case ModeSentinel:
		if master == "" {
			return errMasterNameRequired
		}
	default:
		return errUnsupportedMode
	}
	return nil
}

func (c Config) mode() Mode {
	if m := strings.ToLower(strings.TrimSpace(c.Mode)); m != "" {
		return m
	}
	return ModeSingle
}

func (c Config) addrs() []string {
	out := make([]string, 0, len(c.Addrs)+1)
	for _, a := range c.Addrs {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		if a := strings.TrimSpace(c.Addr); a != "" {
			out = append(out, a)
		}
	}
	return out
}

package postgres

import (
	"context"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Replaceable in unit tests.
var (
	newPool  = pgxpool.NewWithConfig
	pingPool = func(ctx context.Context, p *pgxpool.Pool) error { return p.Ping(ctx) }
)

// Client owns a pgx pool. It implements Runner for statements outside a
// transaction and Transactor for statements inside one.
type Client struct {
	Pool *pgxpool.Pool
}

var (
	_ Runner     = (*Client)(nil)
	_ Transactor = (*Client)(nil)
)

// Open parses cfg, builds the pool and pings it once.
func Open(ctx context.Context, cfg Config) (*Client, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pcfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := newPool(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.pingTimeout())
	defer cancel()
	if err := pingPool(pingCtx, pool); err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, err
	}

	return &Client{Pool: pool}, nil
}

func poolConfig(cfg Config) (*pgxpool.Config, error) {
	pcfg, err := pgxpool.ParseConfig(withParams(cfg.URL, cfg.Params))
	if err != nil {
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	pcfg.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pcfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheckPeriod > 0 {
		pcfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	}

	params := pcfg.ConnConfig.Config.RuntimeParams
	if params == nil {
		params = map[string]string{}
		pcfg.ConnConfig.Config.RuntimeParams = params
	}
	if _, ok := params["application_name"]; !ok {
		params["application_name"] = cfg.applicationName()
	}
	// createdAt is stored as timestamptz; a fixed session zone keeps reads in UTC.
	if _, ok := params["TimeZone"]; !ok {
		params["TimeZone"] = "UTC"
	}
	return pcfg, nil
}

func (c *Client) Close() {
	if c != nil && c.Pool != nil {
		c.Pool.Close()
	}
}

func (c *Client) Exec(ctx context.Context, q string, args ...any) (pgconn.CommandTag, error) {
	return c.Pool.Exec(ctx, q, args...)
}

func (c *Client) Query(ctx context.Context, q string, args ...any) (pgx.Rows, error) {
	return c.Pool.Query(ctx, q, args...)
}

func (c *Client) QueryRow(ctx context.Context, q string, args ...any) pgx.Row {
	return c.Pool.QueryRow(ctx, q, args...)
}

// withParams merges params into the DSN query. Empty values are skipped.
func withParams(dsn string, params map[string]string) string {
	base := strings.TrimSpace(dsn)
	if base == "" || len(params) == 0 {
		return base
	}
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/vortex-fintech/contacts/config"
	"github.com/vortex-fintech/contacts/contact"
	"github.com/vortex-fintech/contacts/data/contactstore/cache"
	"github.com/vortex-fintech/contacts/data/contactstore/memory"
	pgstore "github.com/vortex-fintech/contacts/data/contactstore/postgres"
	"github.com/vortex-fintech/contacts/data/contactstore/sqlite"
	"github.com/vortex-fintech/contacts/data/postgres"
	"github.com/vortex-fintech/contacts/data/redis"
	"github.com/vortex-fintech/contacts/export"
	"github.com/vortex-fintech/contacts/foundation/logger"
	"github.com/vortex-fintech/contacts/foundation/retry"
	"github.com/vortex-fintech/contacts/metrics"
)

// App holds the process streams and the dependencies tests replace.
type App struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	pretty bool

	// Optional overrides; nil means "build from config".
	log   logger.LoggerInterface
	repo  contact.Repository
	cache cache.Client
	s3    export.ObjectPutter
}

// schemaer is implemented by the sqlite and postgres stores.
type schemaer interface {
	EnsureSchema(ctx context.Context) error
}

// session is everything one command needs, opened from config.
type session struct {
	cfg    *config.Config
	log    logger.LoggerInterface
	svc    *contact.Service
	schema schemaer
	reg    *prometheus.Registry

	mu      sync.Mutex
	closers []func()
}

func (a *App) open(ctx context.Context, g *Globals) (*session, error) {
	cfg, err := config.LoadLayered(g.Config...)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, log: a.log}
	if s.log == nil {
		l, err := logger.New(cfg.Log.Service, cfg.Log.Env)
		if err != nil {
			return nil, err
		}
		s.log = l
	}

	// The store and the cache connect independently, each with its own retries.
	var (
		repo contact.Repository
		rdb  cache.Client
		eg   errgroup.Group
	)
	eg.Go(func() (err error) {
		repo, err = a.openStore(ctx, s)
		return err
	})
	eg.Go(func() error {
		rdb = a.connectCache(ctx, s)
		return nil
	})
	if err := eg.Wait(); err != nil {
		s.Close()
		return nil, err
	}
	if rdb != nil {
		c := cfg.Cache
		repo = cache.New(repo, rdb,
			cache.WithTTL(c.TTL),
			cache.WithRefillTTL(c.RefillTTL),
			cache.WithPrefix(c.Prefix),
			cache.WithLogger(s.log),
		)
	}

	s.reg = prometheus.NewRegistry()
	rec, err := metrics.New(s.reg)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.svc = contact.NewService(repo, contact.WithLogger(s.log), contact.WithObserver(rec))
	return s, nil
}

func (a *App) openStore(ctx context.Context, s *session) (contact.Repository, error) {
	if a.repo != nil {
		if sc, ok := a.repo.(schemaer); ok {
			s.schema = sc
		}
		return a.repo, nil
	}

	cfg := s.cfg
	switch cfg.Store.DriverName() {
	case config.DriverMemory:
		return memory.New(), nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Store.SQLite.Path)
		if err != nil {
			return nil, err
		}
		s.addCloser(func() { _ = db.Close() })
		store := sqlite.New(db)
		// The embedded file is ours to manage, so its table is created on open.
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		s.schema = store
		return store, nil

	case config.DriverPostgres:
		var client *postgres.Client
		err := retry.Connect(ctx, "postgres", s.log, cfg.Retry, func(ctx context.Context) error {
			c, err := postgres.Open(ctx, cfg.Store.Postgres)
			if err != nil {
				return err
			}
			client = c
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("contactctl: connect postgres: %w", err)
		}
		s.addCloser(client.Close)
		store := pgstore.New(client, pgstore.WithTable(cfg.Store.Table))
		s.schema = store
		return store, nil
	}
	return nil, fmt.Errorf("contactctl: unknown store driver %q", cfg.Store.Driver)
}

// connectCache returns nil when no cache is configured. An unreachable redis
// only costs the cache.
func (a *App) connectCache(ctx context.Context, s *session) cache.Client {
	if a.cache != nil {
		return a.cache
	}
	cfg := s.cfg.Cache
	if !cfg.Enabled() {
		return nil
	}

	var rdb goredis.UniversalClient
	err := retry.Connect(ctx, "redis", s.log, s.cfg.Retry, func(ctx context.Context) error {
		c, err := redis.Open(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		rdb = c
		return nil
	})
	if err != nil {
		s.log.WarnwCtx(ctx, "cache disabled", "error", err)
		return nil
	}
	s.addCloser(func() { _ = rdb.Close() })
	return rdb
}

func (s *session) addCloser(fn func()) {
	s.mu.Lock()
	s.closers = append(s.closers, fn)
	s.mu.Unlock()
}

// Close flushes the metrics textfile, releases connections and syncs the logger.
func (s *session) Close() {
	if s.reg != nil && s.cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(s.cfg.Metrics.Textfile, s.reg); err != nil {
			s.log.Warnw("metrics textfile not written", "path", s.cfg.Metrics.Textfile, "error", err)
		}
	}
	s.mu.Lock()
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	s.log.SafeSync()
}

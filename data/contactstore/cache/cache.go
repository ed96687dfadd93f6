// Package cache puts a Redis read-through cache in front of a contact.Repository.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vortex-fintech/contacts/contact"
	"github.com/vortex-fintech/contacts/foundation/logger"
)

const (
	DefaultPrefix    = "contacts:"
	DefaultTTL       = 5 * time.Minute
	DefaultRefillTTL = 30 * time.Second
)

// Client is the subset of redis.UniversalClient the cache uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

var _ contact.Repository = (*Repository)(nil)

// Repository caches FindByID hits. Writes go to the wrapped repository first;
// the cached entry is refreshed after Create and evicted after UpdateByID
// and DeleteByID. Redis failures never fail an operation: they are logged
// and the wrapped repository answers.
//
// A FindByID miss that reads the store right before a concurrent UpdateByID
// or DeleteByID may write the old record back after the eviction. Entries
// written on a miss therefore use the refill TTL, which bounds how long such
// a stale record can be served.
type Repository struct {
	next      contact.Repository
	rdb       Client
	log       logger.LoggerInterface
	prefix    string
	ttl       time.Duration
	refillTTL time.Duration
}

type Option func(*Repository)

func WithPrefix(p string) Option {
	return func(r *Repository) {
		if p != "" {
			r.prefix = p
		}
	}
}

func WithTTL(d time.Duration) Option {
	return func(r *Repository) {
		if d > 0 {
			r.ttl = d
		}
	}
}

// WithRefillTTL sets the expiry of entries written after a FindByID miss.
// It never exceeds the TTL.
func WithRefillTTL(d time.Duration) Option {
	return func(r *Repository) {
		if d > 0 {
			r.refillTTL = d
		}
	}
}

func WithLogger(l logger.LoggerInterface) Option {
	return func(r *Repository) {
		if l != nil {
			r.log = l
		}
	}
}

func New(next contact.Repository, rdb Client, opts ...Option) *Repository {
	r := &Repository{
		next:      next,
		rdb:       rdb,
		log:       logger.Nop(),
		prefix:    DefaultPrefix,
		ttl:       DefaultTTL,
		refillTTL: DefaultRefillTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.refillTTL = min(r.refillTTL, r.ttl)
	return r
}

func (r *Repository) key(id contact.ID) string { return r.prefix + string(id) }

func (r *Repository) Create(ctx context.Context, f contact.Fields) (contact.Contact, error) {
	c, err := r.next.Create(ctx, f)
	if err != nil {
		return c, err
	}
	r.store(ctx, c, r.ttl)
	return c, nil
}

func (r *Repository) FindByID(ctx context.Context, id contact.ID) (*contact.Contact, error) {
	raw, err := r.rdb.Get(ctx, r.key(id)).Bytes()
	switch {
	case err == nil:
		var c contact.Contact
		if jerr := json.Unmarshal(raw, &c); jerr == nil {
			return &c, nil
		}
		r.log.WarnwCtx(ctx, "cache entry unreadable", "contact_id", id)
		r.evict(ctx, id)
	case errors.Is(err, redis.Nil):
	default:
		r.log.WarnwCtx(ctx, "cache get failed", "contact_id", id, "error", err)
	}

	c, err := r.next.FindByID(ctx, id)
	if err != nil || c == nil {
		return c, err
	}
	r.store(ctx, *c, r.refillTTL)
	return c, nil
}

func (r *Repository) FindAll(ctx context.Context) ([]contact.Contact, error) {
	return r.next.FindAll(ctx)
}

func (r *Repository) UpdateByID(ctx context.Context, id contact.ID, f contact.Fields) (*contact.Contact, error) {
	c, err := r.next.UpdateByID(ctx, id, f)
	if err != nil {
		return nil, err
	}
	r.evict(ctx, id)
	return c, nil
}

func (r *Repository) DeleteByID(ctx context.Context, id contact.ID) (*contact.Contact, error) {
	c, err := r.next.DeleteByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.evict(ctx, id)
	return c, nil
}

func (r *Repository) store(ctx context.Context, c contact.Contact, ttl time.Duration) {
	b, err := json.Marshal(c)
	if err != nil {
		return
	}
	if err := r.rdb.Set(ctx, r.key(c.ID), b, ttl).Err(); err != nil {
		r.log.WarnwCtx(ctx, "cache set failed", "contact_id", c.ID, "error", err)
	}
}

func (r *Repository) evict(ctx context.Context, id contact.ID) {
	if err := r.rdb.Del(ctx, r.key(id)).Err(); err != nil {
		r.log.WarnwCtx(ctx, "cache evict failed", "contact_id", id, "error", err)
	}
}

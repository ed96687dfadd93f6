// Package memory provides an in-memory contact.Repository for tests and
// ephemeral environments.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vortex-fintech/contacts/contact"
	"github.com/vortex-fintech/contacts/foundation/timeutil"
)

var _ contact.Repository = (*Store)(nil)

type Store struct {
	mu    sync.RWMutex
	docs  map[contact.ID]contact.Contact
	clock timeutil.Clock
	newID func() (contact.ID, error)
}

type Option func(*Store)

// WithClock sets the source of CreatedAt.
func WithClock(c timeutil.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithIDGenerator replaces contact.NewID.
func WithIDGenerator(fn func() (contact.ID, error)) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		docs:  make(map[contact.ID]contact.Contact),
		clock: timeutil.UTCClock{},
		newID: contact.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Create(ctx context.Context, f contact.Fields) (contact.Contact, error) {
	if err := ctx.Err(); err != nil {
		return contact.Contact{}, err
	}
	id, err := s.newID()
	if err != nil {
		return contact.Contact{}, err
	}
	c := contact.New(id, f, timeutil.Stamp(s.clock))

	s.mu.Lock()
	s.docs[id] = c
	s.mu.Unlock()
	return c, nil
}

func (s *Store) FindByID(ctx context.Context, id contact.ID) (*contact.Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.docs[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *Store) FindAll(ctx context.Context) ([]contact.Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]contact.Contact, 0, len(s.docs))
	for _, c := range s.docs {
		out = append(out, c)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return contact.NewestFirst(out[i], out[j]) })
	return out, nil
}

func (s *Store) UpdateByID(ctx context.Context, id contact.ID, f contact.Fields) (*contact.Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.docs[id]
	if !ok {
		return nil, nil
	}
	c = c.WithFields(f)
	s.docs[id] = c
	return &c, nil
}

func (s *Store) DeleteByID(ctx context.Context, id contact.ID) (*contact.Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.docs[id]
	if !ok {
		return nil, nil
	}
	delete(s.docs, id)
	return &c, nil
}

// Len returns the number of stored contacts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

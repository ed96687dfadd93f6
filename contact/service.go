package contact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vortex-fintech/contacts/foundation/logger"
	"github.com/vortex-fintech/contacts/foundation/timeutil"
)

// Operation names reported to the Observer and used in logs.
const (
	OpRegister = "register"
	OpEdit     = "edit"
	OpFind     = "find"
	OpList     = "list"
	OpDelete   = "delete"
)

// Outcomes reported to the Observer.
const (
	OutcomeOK        = "ok"
	OutcomeInvalid   = "invalid"
	OutcomeNotFound  = "not_found"
	OutcomeMalformed = "malformed_id"
	OutcomeError     = "error"
)

// Observer receives one call per finished operation.
type Observer interface {
	Observe(op, outcome string, d time.Duration)
}

type nopObserver struct{}

func (nopObserver) Observe(string, string, time.Duration) {}

// Service composes validation with a Repository.
// It is safe for concurrent use when the Repository is.
type Service struct {
	repo  Repository
	log   logger.LoggerInterface
	obs   Observer
	clock timeutil.Clock
}

type Option func(*Service)

func WithLogger(l logger.LoggerInterface) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.obs = o
		}
	}
}

// WithClock sets the time source used to measure operation durations.
func WithClock(c timeutil.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:  repo,
		log:   logger.Nop(),
		obs:   nopObserver{},
		clock: timeutil.UTCClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates in and inserts a new contact. Rejected input yields a
// *ValidationError and the store is not touched.
func (s *Service) Register(ctx context.Context, in Input) (Contact, error) {
	start := s.clock.Now()

	f, vs := Validate(in)
	if len(vs) > 0 {
		s.finish(ctx, OpRegister, OutcomeInvalid, start, "violations", vs.Messages())
		return Contact{}, vs.Err()
	}

	c, err := s.repo.Create(ctx, f)
	if err != nil {
		s.fail(ctx, OpRegister, start, err)
		return Contact{}, fmt.Errorf("contact: register: %w", err)
	}

	s.finish(ctx, OpRegister, OutcomeOK, start,
		"contact_id", c.ID,
		"email", logger.MaskEmail(c.Email),
		"phone", logger.MaskPhone(c.Phone),
	)
	return c, nil
}

// Edit validates in and replaces the writable fields of the contact id.
// Input is validated before the id is looked at, so rejected input yields a
// *ValidationError whatever the id. With valid input, a malformed id is a
// no-op without store access and an unknown id is a miss; both yield (nil, nil).
func (s *Service) Edit(ctx context.Context, id string, in Input) (*Contact, error) {
	start := s.clock.Now()

	f, vs := Validate(in)
	if len(vs) > 0 {
		s.finish(ctx, OpEdit, OutcomeInvalid, start, "id", id, "violations", vs.Messages())
		return nil, vs.Err()
	}

	cid, ok := ParseID(id)
	if !ok {
		s.finish(ctx, OpEdit, OutcomeMalformed, start, "id", id)
		return nil, nil
	}

	c, err := s.repo.UpdateByID(ctx, cid, f)
	if err != nil {
		s.fail(ctx, OpEdit, start, err, "contact_id", cid)
		return nil, fmt.Errorf("contact: edit %s: %w", cid, err)
	}
	if c == nil {
		s.finish(ctx, OpEdit, OutcomeNotFound, start, "contact_id", cid)
		return nil, nil
	}

	s.finish(ctx, OpEdit, OutcomeOK, start, "contact_id", cid)
	return c, nil
}

// FindByID returns the contact or nil when the id is malformed or unknown.
func (s *Service) FindByID(ctx context.Context, id string) (*Contact, error) {
	start := s.clock.Now()

	cid, ok := ParseID(id)
	if !ok {
		s.finish(ctx, OpFind, OutcomeMalformed, start, "id", id)
		return nil, nil
	}

	c, err := s.repo.FindByID(ctx, cid)
	if err != nil {
		s.fail(ctx, OpFind, start, err, "contact_id", cid)
		return nil, fmt.Errorf("contact: find %s: %w", cid, err)
	}
	if c == nil {
		s.finish(ctx, OpFind, OutcomeNotFound, start, "contact_id", cid)
		return nil, nil
	}

	s.finish(ctx, OpFind, OutcomeOK, start, "contact_id", cid)
	return c, nil
}

// ListAll returns every contact, newest first.
func (s *Service) ListAll(ctx context.Context) ([]Contact, error) {
	start := s.clock.Now()

	list, err := s.repo.FindAll(ctx)
	if err != nil {
		s.fail(ctx, OpList, start, err)
		return nil, fmt.Errorf("contact: list: %w", err)
	}

	s.finish(ctx, OpList, OutcomeOK, start, "count", len(list))
	return list, nil
}

// Delete removes the contact and returns it, or nil when the id is malformed or unknown.
func (s *Service) Delete(ctx context.Context, id string) (*Contact, error) {
	start := s.clock.Now()

	cid, ok := ParseID(id)
	if !ok {
		s.finish(ctx, OpDelete, OutcomeMalformed, start, "id", id)
		return nil, nil
	}

	c, err := s.repo.DeleteByID(ctx, cid)
	if err != nil {
		s.fail(ctx, OpDelete, start, err, "contact_id", cid)
		return nil, fmt.Errorf("contact: delete %s: %w", cid, err)
	}
	if c == nil {
		s.finish(ctx, OpDelete, OutcomeNotFound, start, "contact_id", cid)
		return nil, nil
	}

	s.finish(ctx, OpDelete, OutcomeOK, start, "contact_id", cid)
	return c, nil
}

func (s *Service) finish(ctx context.Context, op, outcome string, start time.Time, kv ...any) {
	s.obs.Observe(op, outcome, s.clock.Now().Sub(start))
	kv = append([]any{"op", op, "outcome", outcome}, kv...)
	if outcome == OutcomeOK {
		s.log.InfowCtx(ctx, "contact operation", kv...)
		return
	}
	s.log.DebugwCtx(ctx, "contact operation", kv...)
}

func (s *Service) fail(ctx context.Context, op string, start time.Time, err error, kv ...any) {
	s.obs.Observe(op, OutcomeError, s.clock.Now().Sub(start))
	kv = append([]any{"op", op, "outcome", OutcomeError, "error", err}, kv...)
	if errors.Is(err, context.Canceled) {
		s.log.DebugwCtx(ctx, "contact operation", kv...)
		return
	}
	s.log.ErrorwCtx(ctx, "contact operation", kv...)
}

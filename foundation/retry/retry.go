package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/vortex-fintech/contacts/foundation/logger"
)

// Policy configures exponential retries for startup connections.
type Policy struct {
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
	MaxElapsed      time.Duration `yaml:"max_elapsed"`
	MaxTries        uint          `yaml:"max_tries"` // 0 = bounded by MaxElapsed only
}

func DefaultPolicy() Policy {
	return Policy{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		MaxElapsed:      20 * time.Second,
	}
}

// PermanentError wraps a non-retryable error.
type PermanentError struct {
	err error
}

func (e PermanentError) Error() string {
	if e.err == nil {
		return "permanent error"
	}
	return e.err.Error()
}

func (e PermanentError) Unwrap() error { return e.err }

// Permanent marks an error as non-retryable (bad DSN, auth failure, ...).
func Permanent(err error) error {
	if err == nil || IsPermanent(err) {
		return err
	}
	return PermanentError{err: err}
}

func IsPermanent(err error) bool {
	var pe PermanentError
	if errors.As(err, &pe) {
		return true
	}
	var bpe *backoff.PermanentError
	return errors.As(err, &bpe)
}

// Connect retries fn until it succeeds, returns a permanent error, the
// policy gives up, or ctx is done. Each failed attempt is logged as a warning.
func Connect(ctx context.Context, name string, log logger.LoggerInterface, p Policy, fn func(ctx context.Context) error) error {
	if log == nil {
		log = logger.Nop()
	}

	exp := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		exp.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		exp.MaxInterval = p.MaxInterval
	}
	exp.Reset()

	opts := []backoff.RetryOption{
		backoff.WithBackOff(exp),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.WarnwCtx(ctx, "connection attempt failed", "target", name, "retry_in", next.String(), "error", err)
		}),
	}
	if p.MaxElapsed > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(p.MaxElapsed))
	}
	if p.MaxTries > 0 {
		opts = append(opts, backoff.WithMaxTries(p.MaxTries))
	}

	type unit struct{}
	_, err := backoff.Retry(ctx, func() (unit, error) {
		if err := ctx.Err(); err != nil {
			return unit{}, backoff.Permanent(err)
		}
		err := fn(ctx)
		if err != nil && IsPermanent(err) {
			return unit{}, backoff.Permanent(err)
		}
		return unit{}, err
	}, opts...)
	return err
}

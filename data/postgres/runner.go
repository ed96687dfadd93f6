package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Runner is what stores need from a pool or a transaction.
type Runner interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Transactor runs fn inside a transaction: commit when fn returns nil,
// rollback otherwise.
type Transactor interface {
	WithTx(ctx context.Context, fn func(run Runner) error) error
}

type txRunner struct{ tx pgx.Tx }

func (r txRunner) Exec(ctx context.Context, q string, args ...any) (pgconn.CommandTag, error) {
	return r.tx.Exec(ctx, q, args...)
}

func (r txRunner) Query(ctx context.Context, q string, args ...any) (pgx.Rows, error) {
	return r.tx.Query(ctx, q, args...)
}

func (r txRunner) QueryRow(ctx context.Context, q string, args ...any) pgx.Row {
	return r.tx.QueryRow(ctx, q, args...)
}

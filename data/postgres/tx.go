package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// TxConfig tunes a single transaction.
type TxConfig struct {
	Iso      pgx.TxIsoLevel // default: ReadCommitted
	ReadOnly bool

	// Applied with SET LOCAL for the lifetime of the transaction.
	StatementTimeout time.Duration
	LockTimeout      time.Duration
}

// beginner is the part of *pgxpool.Pool WithTxOpts needs.
type beginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// WithTx runs fn in a read-write ReadCommitted transaction.
func (c *Client) WithTx(ctx context.Context, fn func(run Runner) error) error {
	return c.WithTxOpts(ctx, TxConfig{}, fn)
}

// WithTxOpts is WithTx with explicit options. A panic in fn rolls back and re-panics.
func (c *Client) WithTxOpts(ctx context.Context, cfg TxConfig, fn func(run Runner) error) error {
	return runTx(ctx, c.Pool, cfg, fn)
}

func runTx(ctx context.Context, db beginner, cfg TxConfig, fn func(run Runner) error) (err error) {
	opts := pgx.TxOptions{IsoLevel: cfg.Iso, AccessMode: pgx.ReadWrite}
	if cfg.ReadOnly {
		opts.AccessMode = pgx.ReadOnly
	}

	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		err = tx.Commit(ctx)
	}()

	if err = setLocal(ctx, tx, "statement_timeout", cfg.StatementTimeout); err != nil {
		return err
	}
	if err = setLocal(ctx, tx, "lock_timeout", cfg.LockTimeout); err != nil {
		return err
	}

	return fn(txRunner{tx: tx})
}

func setLocal(ctx context.Context, tx pgx.Tx, name string, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	_, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL %s = %d", name, d.Milliseconds()))
	return err
}

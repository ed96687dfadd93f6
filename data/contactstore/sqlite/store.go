// Package sqlite stores contacts as JSON documents in a single SQLite table,
// for local and single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/vortex-fintech/contacts/contact"
	"github.com/vortex-fintech/contacts/foundation/timeutil"
)

// Executor abstracts *sql.DB or *sql.Tx.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Open opens (creating when needed) the database file at path. An empty
// path means "contacts.db" in the working directory; ":memory:" is accepted.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		path = "contacts.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY between our own statements.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

const (
	schemaTable = `CREATE TABLE IF NOT EXISTS contacts (
	id         TEXT PRIMARY KEY,
	document   TEXT NOT NULL,
	created_at INTEGER NOT NULL
)`
	schemaIndex = `CREATE INDEX IF NOT EXISTS contacts_created_at_idx ON contacts (created_at DESC, id DESC)`

	insertSQL   = `INSERT INTO contacts (id, document, created_at) VALUES (?, ?, ?)`
	findByIDSQL = `SELECT document FROM contacts WHERE id = ?`
	findAllSQL  = `SELECT document FROM contacts ORDER BY created_at DESC, id DESC`
	updateSQL   = `UPDATE contacts SET document = json_patch(document, ?) WHERE id = ? RETURNING document`
	deleteSQL   = `DELETE FROM contacts WHERE id = ? RETURNING document`
)

var _ contact.Repository = (*Store)(nil)

// Store keeps created_at as Unix microseconds next to the document for ordering.
type Store struct {
	db    Executor
	clock timeutil.Clock
	newID func() (contact.ID, error)
}

type Option func(*Store)

func WithClock(c timeutil.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithIDGenerator(fn func() (contact.ID, error)) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func New(db Executor, opts ...Option) *Store {
	s := &Store{db: db, clock: timeutil.UTCClock{}, newID: contact.NewID}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureSchema creates the table and its ordering index when missing, in
// one transaction when the executor can begin one.
func (s *Store) EnsureSchema(ctx context.Context) (retErr error) {
	b, ok := s.db.(txBeginner)
	if !ok {
		return applySchema(ctx, s.db)
	}
	tx, err := b.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("contactstore: ensure schema: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if err := applySchema(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func applySchema(ctx context.Context, ex Executor) error {
	for _, stmt := range []string{schemaTable, schemaIndex} {
		if _, err := ex.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("contactstore: ensure schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Create(ctx context.Context, f contact.Fields) (contact.Contact, error) {
	id, err := s.newID()
	if err != nil {
		return contact.Contact{}, err
	}
	c := contact.New(id, f, timeutil.Stamp(s.clock))

	doc, err := json.Marshal(c)
	if err != nil {
		return contact.Contact{}, err
	}
	if _, err := s.db.ExecContext(ctx, insertSQL, string(c.ID), string(doc), c.CreatedAt.UnixMicro()); err != nil {
		return contact.Contact{}, fmt.Errorf("insert: %w", err)
	}
	return c, nil
}

func (s *Store) FindByID(ctx context.Context, id contact.ID) (*contact.Contact, error) {
	return s.one(ctx, findByIDSQL, string(id))
}

func (s *Store) FindAll(ctx context.Context) ([]contact.Contact, error) {
	rows, err := s.db.QueryContext(ctx, findAllSQL)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []contact.Contact{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		c, err := decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpdateByID(ctx context.Context, id contact.ID, f contact.Fields) (*contact.Contact, error) {
	patch, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return s.one(ctx, updateSQL, string(patch), string(id))
}

func (s *Store) DeleteByID(ctx context.Context, id contact.ID) (*contact.Contact, error) {
	return s.one(ctx, deleteSQL, string(id))
}

func (s *Store) one(ctx context.Context, q string, args ...any) (*contact.Contact, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, q, args...).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c, err := decode(doc)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func decode(doc []byte) (contact.Contact, error) {
	var c contact.Contact
	if err := json.Unmarshal(doc, &c); err != nil {
		return contact.Contact{}, fmt.Errorf("decode document: %w", err)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return c, nil
}

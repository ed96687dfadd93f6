// Package postgres stores contacts as JSONB documents in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vortex-fintech/contacts/contact"
	pg "github.com/vortex-fintech/contacts/data/postgres"
	"github.com/vortex-fintech/contacts/foundation/timeutil"
)

// DefaultTable is used unless WithTable says otherwise.
const DefaultTable = "contacts"

// ErrSchemaMissing is returned when the contacts table does not exist.
var ErrSchemaMissing = errors.New("contactstore: table missing, apply the schema first")

var _ contact.Repository = (*Store)(nil)

// Store keeps each contact as one row: the id, the JSON document and a
// copy of createdAt used for ordering.
type Store struct {
	db    pg.Runner
	clock timeutil.Clock
	newID func() (contact.ID, error)

	table string
	q     queries
}

type queries struct {
	insert, findByID, findAll, update, delete string
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

// WithTable stores contacts in name instead of DefaultTable. The name is
// quoted as an identifier.
func WithTable(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.table = name
		}
	}
}

// New returns a Store running its statements on db. When db also implements
// pg.Transactor, EnsureSchema applies all statements in one transaction.
func New(db pg.Runner, opts ...Option) *Store {
	s := &Store{
		db:    db,
		clock: timeutil.UTCClock{},
		newID: contact.NewID,
		table: DefaultTable,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.q = buildQueries(pgx.Identifier{s.table}.Sanitize())
	return s
}

func buildQueries(table string) queries {
	return queries{
		insert:   fmt.Sprintf(`INSERT INTO %s (id, document, created_at) VALUES ($1, $2::jsonb, $3)`, table),
		findByID: fmt.Sprintf(`SELECT document FROM %s WHERE id = $1`, table),
		findAll:  fmt.Sprintf(`SELECT document FROM %s ORDER BY created_at DESC, id DESC`, table),
		// Only the writable keys are merged; id and createdAt stay as stored.
		update: fmt.Sprintf(`UPDATE %s SET document = document || $2::jsonb WHERE id = $1 RETURNING document`, table),
		delete: fmt.Sprintf(`DELETE FROM %s WHERE id = $1 RETURNING document`, table),
	}
}

// Schema returns the DDL statements EnsureSchema applies, in order.
func (s *Store) Schema() []string {
	table := pgx.Identifier{s.table}.Sanitize()
	index := pgx.Identifier{s.table + "_created_at_idx"}.Sanitize()
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id         TEXT PRIMARY KEY,
	document   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (created_at DESC, id DESC)`, index, table),
	}
}

// EnsureSchema creates the table and its ordering index when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	apply := func(run pg.Runner) error {
		for _, stmt := range s.Schema() {
			if _, err := run.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("contactstore: ensure schema: %w", err)
			}
		}
		return nil
	}
	if tx, ok := s.db.(pg.Transactor); ok {
		return tx.WithTx(ctx, apply)
	}
	return apply(s.db)
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
	if _, err := s.db.Exec(ctx, s.q.insert, string(c.ID), string(doc), c.CreatedAt); err != nil {
		return contact.Contact{}, mapErr(err)
	}
	return c, nil
}

func (s *Store) FindByID(ctx context.Context, id contact.ID) (*contact.Contact, error) {
	return s.one(ctx, s.q.findByID, string(id))
}

func (s *Store) FindAll(ctx context.Context) ([]contact.Contact, error) {
	rows, err := s.db.Query(ctx, s.q.findAll)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []contact.Contact{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		c, err := decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (s *Store) UpdateByID(ctx context.Context, id contact.ID, f contact.Fields) (*contact.Contact, error) {
	patch, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return s.one(ctx, s.q.update, string(id), string(patch))
}

func (s *Store) DeleteByID(ctx context.Context, id contact.ID) (*contact.Contact, error) {
	return s.one(ctx, s.q.delete, string(id))
}

// one runs a single-row statement returning a document. No row is (nil, nil).
func (s *Store) one(ctx context.Context, q string, args ...any) (*contact.Contact, error) {
	var doc []byte
	err := s.db.QueryRow(ctx, q, args...).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr(err)
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
		return contact.Contact{}, fmt.Errorf("contactstore: decode document: %w", err)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return c, nil
}

func mapErr(err error) error {
	if pg.IsUndefinedTable(err) {
		return fmt.Errorf("%w: %w", ErrSchemaMissing, err)
	}
	return err
}

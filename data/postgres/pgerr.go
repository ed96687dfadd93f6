package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the stores react to.
const (
	SQLStateUniqueViolation = "23505"
	SQLStateUndefinedTable  = "42P01"
)

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func IsUniqueViolation(err error) bool { return hasCode(err, SQLStateUniqueViolation) }

// IsUndefinedTable reports a query against a table that does not exist yet,
// typically because the schema was never applied.
func IsUndefinedTable(err error) bool { return hasCode(err, SQLStateUndefinedTable) }

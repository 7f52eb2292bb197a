package store

import (
	"context"
	"database/sql"
)

// DBTX is the query surface the history store needs. Both *sql.DB and
// *sql.Tx satisfy it, so one store type serves plain reads and the
// chat-plus-sensor write transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

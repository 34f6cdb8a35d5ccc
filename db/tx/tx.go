package tx

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

type ctxKey struct{}

// Bind returns a context carrying the open transaction. Repositories reached
// through that context run their statements on it instead of the pool.
func Bind(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, ctxKey{}, tx)
}

// FromContext returns the transaction bound to ctx, if any.
func FromContext(ctx context.Context) (*sqlx.Tx, bool) {
	tx, ok := ctx.Value(ctxKey{}).(*sqlx.Tx)
	return tx, ok
}

// Querier is the statement surface the repositories need. Both *sqlx.DB and
// *sqlx.Tx satisfy it, so a repository never knows whether it runs inside a
// transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
}

// Active picks the querier for this call: the bound transaction when ctx
// carries one, the pool otherwise.
func Active(ctx context.Context, db *sqlx.DB) Querier {
	if tx, ok := FromContext(ctx); ok {
		return tx
	}
	return db
}

package postgres

import (
	"context"

	"github.com/hpyride/hpyride/pkg/trm"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the part of pgx shared by the pool and a transaction.
type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
}

// TxorDB runs on the transaction opened by trm.Manager when ctx carries one.
func TxorDB(ctx context.Context, db *pgxpool.Pool) Querier {
	if tx, ok := trm.TxFrom(ctx); ok {
		return tx
	}
	return db
}

// lockRow takes a row lock when a transaction is open. Outside one the clause is dropped
// since the lock would be released with the statement.
func lockRow(ctx context.Context, query string) string {
	if _, ok := trm.TxFrom(ctx); ok {
		return query + " FOR UPDATE"
	}
	return query
}

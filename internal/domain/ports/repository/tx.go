package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager provides a thin abstraction to execute a function within a
// storage transaction, passing the underlying transaction handle via `tx`.
//
// The concrete type of `tx` is infra-defined (pgx.Tx for Postgres, *sql.Tx for
// MySQL, a token for the in-memory store). Repositories MUST accept nil
// (non-transactional path) and use the handle to take row locks when present.
//
// TxOptions is expressed with pgx's type; other backends translate the
// isolation level to their own.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

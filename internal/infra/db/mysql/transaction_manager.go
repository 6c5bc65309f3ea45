package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v4"

	"activation-gate/internal/domain"
	"activation-gate/internal/domain/ports/repository"
)

var _ repository.TransactionManager = (*TxManager)(nil)

// TxManager implements repository.TransactionManager on database/sql.
// The tx handle is passed to the callback as a *sql.Tx.
type TxManager struct {
	db *sql.DB
}

func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

func (m *TxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: isolation(txOpt.IsoLevel),
		ReadOnly:  txOpt.AccessMode == pgx.ReadOnly,
	})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (m *TxManager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

// Stats exposes the pool counters for the pool sampler.
func (m *TxManager) Stats() sql.DBStats {
	return m.db.Stats()
}

func isolation(l pgx.TxIsoLevel) sql.IsolationLevel {
	switch l {
	case pgx.Serializable:
		return sql.LevelSerializable
	case pgx.RepeatableRead:
		return sql.LevelRepeatableRead
	case pgx.ReadUncommitted:
		return sql.LevelReadUncommitted
	case pgx.ReadCommitted:
		return sql.LevelReadCommitted
	default:
		return sql.LevelDefault
	}
}

type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getExecutor(db *sql.DB, tx repository.Tx) (executor, error) {
	switch v := tx.(type) {
	case *sql.Tx:
		return v, nil
	case *sql.DB:
		return v, nil
	case nil:
		if db != nil {
			return db, nil
		}
		return nil, domain.ErrInvalidExecContext
	default:
		return nil, domain.ErrInvalidExecContext
	}
}

// isDuplicateKey reports ER_DUP_ENTRY (1062).
func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1062
}

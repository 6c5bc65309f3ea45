package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"activation-gate/internal/domain"
	"activation-gate/internal/domain/model"
	"activation-gate/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.ActivationCodeRepository = (*activationCodeRepo)(nil)

type activationCodeRepo struct {
	pool *pgxpool.Pool
}

func NewActivationCodeRepo(pool *pgxpool.Pool) repository.ActivationCodeRepository {
	return &activationCodeRepo{pool: pool}
}

const codeColumns = `id, code, state, bound_device, used_at, created_at, version`

func (r *activationCodeRepo) Insert(ctx context.Context, tx repository.Tx, code *model.ActivationCode) error {
	const q = `
INSERT INTO activation_codes (code, state, bound_device, used_at, created_at, version)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id;
`
	row, err := pickRow(ctx, r.pool, tx, q,
		code.Code, string(code.State), deviceArg(code.BoundDevice), code.UsedAt, code.CreatedAt, code.Version,
	)
	if err != nil {
		return err
	}
	if err := row.Scan(&code.ID); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByCode reads the committed record without locking.
func (r *activationCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error) {
	q := `SELECT ` + codeColumns + ` FROM activation_codes WHERE code = $1;`
	return r.findOne(ctx, tx, q, code)
}

// FindByCodeForUpdate locks the row until the surrounding transaction ends.
// Under READ COMMITTED a waiter re-reads the row after the holder commits.
func (r *activationCodeRepo) FindByCodeForUpdate(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error) {
	q := `SELECT ` + codeColumns + ` FROM activation_codes WHERE code = $1 FOR UPDATE;`
	return r.findOne(ctx, tx, q, code)
}

func (r *activationCodeRepo) findOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.ActivationCode, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	c, err := scanCode(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// CompareAndSwap writes next only if the stored version still equals expected.
func (r *activationCodeRepo) CompareAndSwap(ctx context.Context, tx repository.Tx, next *model.ActivationCode, expected int64) error {
	const q = `
UPDATE activation_codes
   SET state = $2, bound_device = $3, used_at = $4, version = $5
 WHERE code = $1 AND version = $6;
`
	tag, err := execSQL(ctx, r.pool, tx, q,
		next.Code, string(next.State), deviceArg(next.BoundDevice), next.UsedAt, next.Version, expected,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	return r.missOrConflict(ctx, tx, next.Code)
}

func (r *activationCodeRepo) missOrConflict(ctx context.Context, tx repository.Tx, code string) error {
	row, err := pickRow(ctx, r.pool, tx, `SELECT 1 FROM activation_codes WHERE code = $1;`, code)
	if err != nil {
		return err
	}
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	return domain.ErrVersionConflict
}

func (r *activationCodeRepo) Delete(ctx context.Context, tx repository.Tx, code string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM activation_codes WHERE code = $1;`, code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *activationCodeRepo) List(ctx context.Context, tx repository.Tx, f repository.CodeFilter, offset, limit int) ([]*model.ActivationCode, error) {
	q := `SELECT ` + codeColumns + ` FROM activation_codes
 WHERE ($1::text = '' OR state = $1::text)
 ORDER BY id DESC
 OFFSET $2 LIMIT $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, string(f.State), offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.ActivationCode, 0, limit)
	for rows.Next() {
		c, err := scanCode(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *activationCodeRepo) Count(ctx context.Context, tx repository.Tx, f repository.CodeFilter) (int, error) {
	row, err := pickRow(ctx, r.pool, tx,
		`SELECT COUNT(*) FROM activation_codes WHERE ($1::text = '' OR state = $1::text);`, string(f.State))
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *activationCodeRepo) CountByState(ctx context.Context, tx repository.Tx) (map[model.CodeState]int, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT state, COUNT(*) FROM activation_codes GROUP BY state;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[model.CodeState]int{
		model.CodeStateAvailable: 0,
		model.CodeStateUsed:      0,
		model.CodeStateDisabled:  0,
	}
	for rows.Next() {
		var (
			state string
			n     int
		)
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		out[model.CodeState(state)] = n
	}
	return out, rows.Err()
}

func scanCode(row pgx.Row) (*model.ActivationCode, error) {
	var (
		c      model.ActivationCode
		state  string
		device *string
		usedAt *time.Time
	)
	if err := row.Scan(&c.ID, &c.Code, &state, &device, &usedAt, &c.CreatedAt, &c.Version); err != nil {
		return nil, err
	}
	c.State = model.CodeState(state)
	if device != nil {
		d := model.DeviceID(*device)
		c.BoundDevice = &d
	}
	if usedAt != nil {
		t := usedAt.UTC()
		c.UsedAt = &t
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

func deviceArg(d *model.DeviceID) *string {
	if d == nil {
		return nil
	}
	s := string(*d)
	return &s
}

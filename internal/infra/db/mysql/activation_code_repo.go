package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"activation-gate/internal/domain"
	"activation-gate/internal/domain/model"
	"activation-gate/internal/domain/ports/repository"
)

var _ repository.ActivationCodeRepository = (*activationCodeRepo)(nil)

type activationCodeRepo struct {
	db *sql.DB
}

func NewActivationCodeRepo(db *sql.DB) repository.ActivationCodeRepository {
	return &activationCodeRepo{db: db}
}

const codeColumns = `id, code, state, bound_device, used_at, created_at, version`

func (r *activationCodeRepo) Insert(ctx context.Context, tx repository.Tx, code *model.ActivationCode) error {
	ex, err := getExecutor(r.db, tx)
	if err != nil {
		return err
	}
	res, err := ex.ExecContext(ctx, `
INSERT INTO activation_codes (code, state, bound_device, used_at, created_at, version)
VALUES (?, ?, ?, ?, ?, ?)`,
		code.Code, string(code.State), deviceArg(code.BoundDevice), code.UsedAt, code.CreatedAt, code.Version,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	code.ID = id
	return nil
}

func (r *activationCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error) {
	return r.findOne(ctx, tx, `SELECT `+codeColumns+` FROM activation_codes WHERE code = ?`, code)
}

// FindByCodeForUpdate takes an InnoDB row lock held until the transaction ends.
func (r *activationCodeRepo) FindByCodeForUpdate(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error) {
	return r.findOne(ctx, tx, `SELECT `+codeColumns+` FROM activation_codes WHERE code = ? FOR UPDATE`, code)
}

func (r *activationCodeRepo) findOne(ctx context.Context, tx repository.Tx, q string, args ...any) (*model.ActivationCode, error) {
	ex, err := getExecutor(r.db, tx)
	if err != nil {
		return nil, err
	}
	c, err := scanCode(ex.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *activationCodeRepo) CompareAndSwap(ctx context.Context, tx repository.Tx, next *model.ActivationCode, expected int64) error {
	ex, err := getExecutor(r.db, tx)
	if err != nil {
		return err
	}
	res, err := ex.ExecContext(ctx, `
UPDATE activation_codes
   SET state = ?, bound_device = ?, used_at = ?, version = ?
 WHERE code = ? AND version = ?`,
		string(next.State), deviceArg(next.BoundDevice), next.UsedAt, next.Version, next.Code, expected,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var one int
	err = ex.QueryRowContext(ctx, `SELECT 1 FROM activation_codes WHERE code = ?`, next.Code).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.ErrNotFound
	case err != nil:
		return err
	}
	return domain.ErrVersionConflict
}

func (r *activationCodeRepo) Delete(ctx context.Context, tx repository.Tx, code string) error {
	ex, err := getExecutor(r.db, tx)
	if err != nil {
		return err
	}
	res, err := ex.ExecContext(ctx, `DELETE FROM activation_codes WHERE code = ?`, code)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *activationCodeRepo) List(ctx context.Context, tx repository.Tx, f repository.CodeFilter, offset, limit int) ([]*model.ActivationCode, error) {
	ex, err := getExecutor(r.db, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.QueryContext(ctx, `SELECT `+codeColumns+` FROM activation_codes
 WHERE (? = '' OR state = ?)
 ORDER BY id DESC
 LIMIT ? OFFSET ?`, string(f.State), string(f.State), limit, offset)
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
	ex, err := getExecutor(r.db, tx)
	if err != nil {
		return 0, err
	}
	var n int
	err = ex.QueryRowContext(ctx, `SELECT COUNT(*) FROM activation_codes WHERE (? = '' OR state = ?)`,
		string(f.State), string(f.State)).Scan(&n)
	return n, err
}

func (r *activationCodeRepo) CountByState(ctx context.Context, tx repository.Tx) (map[model.CodeState]int, error) {
	ex, err := getExecutor(r.db, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.QueryContext(ctx, `SELECT state, COUNT(*) FROM activation_codes GROUP BY state`)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanCode(row scanner) (*model.ActivationCode, error) {
	var (
		c      model.ActivationCode
		state  string
		device sql.NullString
		usedAt sql.NullTime
	)
	if err := row.Scan(&c.ID, &c.Code, &state, &device, &usedAt, &c.CreatedAt, &c.Version); err != nil {
		return nil, err
	}
	c.State = model.CodeState(state)
	if device.Valid {
		d := model.DeviceID(device.String)
		c.BoundDevice = &d
	}
	if usedAt.Valid {
		t := usedAt.Time.UTC()
		c.UsedAt = &t
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

func deviceArg(d *model.DeviceID) any {
	if d == nil {
		return nil
	}
	return string(*d)
}

package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"activation-gate/internal/domain"
	"activation-gate/internal/domain/model"
	"activation-gate/internal/domain/ports/repository"
)

var _ repository.ActivationLogRepository = (*activationLogRepo)(nil)

type activationLogRepo struct {
	pool *pgxpool.Pool
}

func NewActivationLogRepo(pool *pgxpool.Pool) repository.ActivationLogRepository {
	return &activationLogRepo{pool: pool}
}

// Append inserts an entry. code_id is resolved from the code when the record
// still exists and becomes NULL once the code is deleted.
func (r *activationLogRepo) Append(ctx context.Context, tx repository.Tx, e *model.LogEntry) error {
	var meta []byte
	if len(e.Context) > 0 {
		b, err := json.Marshal(e.Context)
		if err != nil {
			return fmt.Errorf("marshal log context: %w", err)
		}
		meta = b
	}

	const q = `
INSERT INTO activation_logs (code_id, code, action, actor, outcome, context, created_at)
VALUES ((SELECT id FROM activation_codes WHERE code = $1), $1, $2, $3, $4, $5::jsonb, COALESCE($6, NOW()))
RETURNING id, created_at;
`
	var createdAt interface{}
	if !e.CreatedAt.IsZero() {
		createdAt = e.CreatedAt
	}
	row, err := pickRow(ctx, r.pool, tx, q,
		e.Code, string(e.Action), string(e.Actor), string(e.Outcome), jsonArg(meta), createdAt,
	)
	if err != nil {
		return err
	}
	if err := row.Scan(&e.ID, &e.CreatedAt); err != nil {
		return err
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return nil
}

// ListRecent returns up to limit entries, newest first. An empty code lists all.
func (r *activationLogRepo) ListRecent(ctx context.Context, tx repository.Tx, code string, limit int) ([]*model.LogEntry, error) {
	const q = `
SELECT id, code, action, actor, outcome, context, created_at
  FROM activation_logs
 WHERE ($1::text = '' OR code = $1::text)
 ORDER BY id DESC
 LIMIT $2;
`
	rows, err := queryRows(ctx, r.pool, tx, q, code, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.LogEntry, 0, limit)
	for rows.Next() {
		var (
			e                      model.LogEntry
			action, actor, outcome string
			meta                   []byte
		)
		if err := rows.Scan(&e.ID, &e.Code, &action, &actor, &outcome, &meta, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		e.Action, e.Actor, e.Outcome = model.LogAction(action), model.LogActor(actor), model.LogOutcome(outcome)
		e.CreatedAt = e.CreatedAt.UTC()
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Context); err != nil {
				return nil, fmt.Errorf("%w: context: %v", domain.ErrReadDatabaseRow, err)
			}
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func jsonArg(b []byte) interface{} {
	if b == nil {
		return nil
	}
	return string(b)
}

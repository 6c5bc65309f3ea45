package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"activation-gate/internal/domain"
	"activation-gate/internal/domain/model"
	"activation-gate/internal/domain/ports/repository"
)

var _ repository.ActivationLogRepository = (*activationLogRepo)(nil)

type activationLogRepo struct {
	db *sql.DB
}

func NewActivationLogRepo(db *sql.DB) repository.ActivationLogRepository {
	return &activationLogRepo{db: db}
}

func (r *activationLogRepo) Append(ctx context.Context, tx repository.Tx, e *model.LogEntry) error {
	ex, err := getExecutor(r.db, tx)
	if err != nil {
		return err
	}
	var meta any
	if len(e.Context) > 0 {
		b, err := json.Marshal(e.Context)
		if err != nil {
			return fmt.Errorf("marshal log context: %w", err)
		}
		meta = string(b)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	res, err := ex.ExecContext(ctx, `
INSERT INTO activation_logs (code_id, code, action, actor, outcome, context, created_at)
VALUES ((SELECT id FROM activation_codes WHERE code = ?), ?, ?, ?, ?, ?, ?)`,
		e.Code, e.Code, string(e.Action), string(e.Actor), string(e.Outcome), meta, e.CreatedAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

func (r *activationLogRepo) ListRecent(ctx context.Context, tx repository.Tx, code string, limit int) ([]*model.LogEntry, error) {
	ex, err := getExecutor(r.db, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.QueryContext(ctx, `
SELECT id, code, action, actor, outcome, context, created_at
  FROM activation_logs
 WHERE (? = '' OR code = ?)
 ORDER BY id DESC
 LIMIT ?`, code, code, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.LogEntry, 0, limit)
	for rows.Next() {
		var (
			e                      model.LogEntry
			action, actor, outcome string
			meta                   sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Code, &action, &actor, &outcome, &meta, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		e.Action, e.Actor, e.Outcome = model.LogAction(action), model.LogActor(actor), model.LogOutcome(outcome)
		e.CreatedAt = e.CreatedAt.UTC()
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &e.Context); err != nil {
				return nil, fmt.Errorf("%w: context: %v", domain.ErrReadDatabaseRow, err)
			}
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// File: internal/usecase/activation_admin_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"

	"activation-gate/internal/domain"
	"activation-gate/internal/domain/model"
	"activation-gate/internal/domain/ports/repository"
	"activation-gate/internal/infra/logging"
	"activation-gate/internal/infra/metrics"
)

const (
	MaxGenerateCount  = 500
	generateCollision = 3
)

// GeneratedBatch is the result of a bulk generation. Codes created before a
// failure stay in the store and are returned alongside the error.
type GeneratedBatch struct {
	BatchID string
	Codes   []*model.ActivationCode
}

func (uc *activationUC) Create(ctx context.Context, rawCode string) (*model.ActivationCode, error) {
	defer logging.TraceDuration(uc.log, "ActivationUC.Create")()
	code, err := model.NormalizeCode(rawCode)
	if err != nil {
		return nil, err
	}
	c, err := uc.create(ctx, code, nil)
	metrics.IncAdminAction("create", adminStatus(err))
	return c, err
}

func (uc *activationUC) create(ctx context.Context, code string, meta map[string]string) (*model.ActivationCode, error) {
	if uc.isDeveloperCode(code) {
		return nil, fmt.Errorf("%w: %w: code is reserved", domain.ErrConflict, domain.ErrAlreadyExists)
	}
	c, err := model.NewActivationCode(code, uc.opts.Now())
	if err != nil {
		return nil, err
	}

	sctx, cancel := context.WithTimeout(ctx, uc.opts.StoreTimeout)
	defer cancel()
	if err := uc.codes.Insert(sctx, repository.NoTX, c); err != nil {
		return nil, storeErr(err)
	}
	uc.audit(ctx, uc.logger(ctx, code, ""), uc.adminEntry(ctx, code, model.LogActionCreate, model.LogOutcomeApplied, meta))
	return c, nil
}

// Reset returns a code to AVAILABLE. Resetting an AVAILABLE code is a no-op.
func (uc *activationUC) Reset(ctx context.Context, rawCode string) (*model.ActivationCode, error) {
	defer logging.TraceDuration(uc.log, "ActivationUC.Reset")()
	c, err := uc.transition(ctx, rawCode, model.LogActionReset, func(cur *model.ActivationCode) *model.ActivationCode {
		if cur.State == model.CodeStateAvailable {
			return nil
		}
		return cur.Released()
	})
	metrics.IncAdminAction("reset", adminStatus(err))
	return c, err
}

// Disable makes a code permanently unclaimable until reset.
func (uc *activationUC) Disable(ctx context.Context, rawCode string) (*model.ActivationCode, error) {
	defer logging.TraceDuration(uc.log, "ActivationUC.Disable")()
	c, err := uc.transition(ctx, rawCode, model.LogActionDisable, func(cur *model.ActivationCode) *model.ActivationCode {
		if cur.State == model.CodeStateDisabled {
			return nil
		}
		return cur.Disabled()
	})
	metrics.IncAdminAction("disable", adminStatus(err))
	return c, err
}

// transition applies an admin state change under a row lock. next returns nil
// when the current state already satisfies the request.
func (uc *activationUC) transition(
	ctx context.Context,
	rawCode string,
	action model.LogAction,
	next func(cur *model.ActivationCode) *model.ActivationCode,
) (*model.ActivationCode, error) {
	code, err := model.NormalizeCode(rawCode)
	if err != nil {
		return nil, err
	}

	sctx, cancel := context.WithTimeout(ctx, uc.opts.StoreTimeout)
	defer cancel()

	var out *model.ActivationCode
	changed := false
	err = uc.tm.WithTx(sctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		cur, err := uc.codes.FindByCodeForUpdate(ctx, tx, code)
		if err != nil {
			return err
		}
		n := next(cur)
		if n == nil {
			out = cur
			return nil
		}
		if err := uc.codes.CompareAndSwap(ctx, tx, n, cur.Version); err != nil {
			return err
		}
		out, changed = n, true
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}

	outcome := model.LogOutcomeNoop
	if changed {
		uc.invalidate(ctx, code)
		outcome = model.LogOutcomeApplied
	}
	l := uc.logger(ctx, code, "")
	l.Info().Str("action", string(action)).Str("outcome", string(outcome)).Msg("admin transition")
	uc.audit(ctx, l, uc.adminEntry(ctx, code, action, outcome, nil))
	return out, nil
}

// Delete removes a code. The DELETE log entry is written in the same
// transaction before the row goes away, so a failed log write aborts the delete.
func (uc *activationUC) Delete(ctx context.Context, rawCode string) error {
	defer logging.TraceDuration(uc.log, "ActivationUC.Delete")()
	code, err := model.NormalizeCode(rawCode)
	if err != nil {
		return err
	}

	sctx, cancel := context.WithTimeout(ctx, uc.opts.StoreTimeout)
	defer cancel()

	err = uc.tm.WithTx(sctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		cur, err := uc.codes.FindByCodeForUpdate(ctx, tx, code)
		if err != nil {
			return err
		}
		entry := uc.adminEntry(ctx, code, model.LogActionDelete, model.LogOutcomeApplied, map[string]string{
			"previous_state": string(cur.State),
		})
		if err := uc.appendLog(ctx, tx, entry); err != nil {
			metrics.IncLogAppendFailure()
			return unavailable(err)
		}
		return uc.codes.Delete(ctx, tx, code)
	})
	metrics.IncAdminAction("delete", adminStatus(err))
	if err != nil {
		return storeErr(err)
	}
	uc.invalidate(ctx, code)
	uc.logger(ctx, code, "").Info().Msg("code deleted")
	return nil
}

// Generate creates count random codes tagged with a fresh batch id.
func (uc *activationUC) Generate(ctx context.Context, count int, prefix string) (*GeneratedBatch, error) {
	defer logging.TraceDuration(uc.log, "ActivationUC.Generate")()
	if count <= 0 || count > MaxGenerateCount {
		return nil, fmt.Errorf("%w: count must be between 1 and %d", domain.ErrInvalidInput, MaxGenerateCount)
	}
	if err := validatePrefix(prefix); err != nil {
		return nil, err
	}

	batch := &GeneratedBatch{BatchID: ulid.Make().String(), Codes: make([]*model.ActivationCode, 0, count)}
	meta := map[string]string{"batch_id": batch.BatchID}

	for i := 0; i < count; i++ {
		var (
			c   *model.ActivationCode
			err error
		)
		for try := 0; try < generateCollision; try++ {
			var code string
			if code, err = generateActivationCode(prefix); err != nil {
				break
			}
			c, err = uc.create(ctx, code, meta)
			if !errors.Is(err, domain.ErrConflict) {
				break
			}
		}
		if err != nil {
			metrics.IncAdminAction("generate", adminStatus(err))
			uc.log.Error().Err(err).Str("batch_id", batch.BatchID).Int("created", len(batch.Codes)).Msg("generate aborted")
			return batch, err
		}
		batch.Codes = append(batch.Codes, c)
	}

	metrics.IncAdminAction("generate", adminStatus(nil))
	uc.log.Info().Str("batch_id", batch.BatchID).Int("count", count).Msg("codes generated")
	return batch, nil
}

func (uc *activationUC) List(ctx context.Context, state string, offset, limit int) ([]*model.ActivationCode, int, error) {
	defer logging.TraceDuration(uc.log, "ActivationUC.List")()
	f := repository.CodeFilter{State: model.CodeState(state)}
	if state != "" && !f.State.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown state %q", domain.ErrInvalidInput, state)
	}
	if offset < 0 {
		return nil, 0, fmt.Errorf("%w: negative offset", domain.ErrInvalidInput)
	}
	limit = clampLimit(limit)

	sctx, cancel := context.WithTimeout(ctx, uc.opts.StoreTimeout)
	defer cancel()
	total, err := uc.codes.Count(sctx, repository.NoTX, f)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	items, err := uc.codes.List(sctx, repository.NoTX, f, offset, limit)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	return items, total, nil
}

func (uc *activationUC) Stats(ctx context.Context) (map[model.CodeState]int, error) {
	defer logging.TraceDuration(uc.log, "ActivationUC.Stats")()
	sctx, cancel := context.WithTimeout(ctx, uc.opts.StoreTimeout)
	defer cancel()
	counts, err := uc.codes.CountByState(sctx, repository.NoTX)
	if err != nil {
		return nil, storeErr(err)
	}
	return counts, nil
}

// Logs returns the most recent entries, optionally for a single code.
func (uc *activationUC) Logs(ctx context.Context, rawCode string, limit int) ([]*model.LogEntry, error) {
	defer logging.TraceDuration(uc.log, "ActivationUC.Logs")()
	code := ""
	if rawCode != "" {
		c, err := model.NormalizeCode(rawCode)
		if err != nil {
			return nil, err
		}
		code = c
	}
	sctx, cancel := context.WithTimeout(ctx, uc.opts.StoreTimeout)
	defer cancel()
	entries, err := uc.logs.ListRecent(sctx, repository.NoTX, code, clampLimit(limit))
	if err != nil {
		return nil, storeErr(err)
	}
	return entries, nil
}

func (uc *activationUC) adminEntry(ctx context.Context, code string, action model.LogAction, outcome model.LogOutcome, meta map[string]string) *model.LogEntry {
	fields := make(map[string]string, len(meta)+1)
	for k, v := range meta {
		fields[k] = v
	}
	if admin := logging.AdminFrom(ctx); admin != "" {
		fields["admin"] = admin
	}
	return &model.LogEntry{
		Code:    code,
		Action:  action,
		Actor:   model.LogActorAdmin,
		Outcome: outcome,
		Context: model.SanitizeContext(fields),
	}
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultPageSize
	case limit > MaxPageSize:
		return MaxPageSize
	}
	return limit
}

func adminStatus(err error) string {
	if err == nil {
		return "ok"
	}
	return domain.Reason(err)
}

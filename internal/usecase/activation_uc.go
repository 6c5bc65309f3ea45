// File: internal/usecase/activation_uc.go
package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"activation-gate/internal/domain"
	"activation-gate/internal/domain/model"
	"activation-gate/internal/domain/ports/repository"
	"activation-gate/internal/infra/logging"
	"activation-gate/internal/infra/metrics"
)

// Compile-time check
var _ ActivationUseCase = (*activationUC)(nil)

// Verdict reasons returned by Validate.
const (
	ReasonDeveloper     = "developer"
	ReasonEligible      = "eligible"
	ReasonBoundToDevice = "bound_to_device"
	ReasonNotFound      = "NOT_FOUND"
	ReasonAlreadyUsed   = "ALREADY_USED"
	ReasonDisabled      = "DISABLED"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// ActivationUseCase is the sole authority for activation code lifecycle transitions.
type ActivationUseCase interface {
	Validate(ctx context.Context, code, deviceID string) (*Verdict, error)
	Claim(ctx context.Context, code, deviceID string, clientContext map[string]string) (*ClaimResult, error)
	Status(ctx context.Context, code string) (*CodeStatus, error)

	// Admin operations. No automatic retry.
	Create(ctx context.Context, code string) (*model.ActivationCode, error)
	Reset(ctx context.Context, code string) (*model.ActivationCode, error)
	Disable(ctx context.Context, code string) (*model.ActivationCode, error)
	Delete(ctx context.Context, code string) error
	Generate(ctx context.Context, count int, prefix string) (*GeneratedBatch, error)
	List(ctx context.Context, state string, offset, limit int) ([]*model.ActivationCode, int, error)
	Stats(ctx context.Context) (map[model.CodeState]int, error)
	Logs(ctx context.Context, code string, limit int) ([]*model.LogEntry, error)
}

// Verdict is the read-only answer to "may this device use this code".
type Verdict struct {
	Allow             bool
	Reason            string
	UsedAt            *time.Time
	BoundDeviceMasked string
}

// ClaimResult describes a successful claim. Reentry is set when the code was
// already bound to the caller and nothing changed.
type ClaimResult struct {
	Code        string
	State       model.CodeState
	BoundDevice model.DeviceID
	UsedAt      *time.Time
	Reentry     bool
	Developer   bool
}

// CodeStatus is the public view of a code; the bound device is masked.
type CodeStatus struct {
	Code              string
	State             model.CodeState
	UsedAt            *time.Time
	BoundDeviceMasked string
	Developer         bool
}

type ActivationOptions struct {
	DeveloperCode    string
	StoreTimeout     time.Duration
	LogTimeout       time.Duration
	ClaimMaxAttempts int
	Dev              bool
	Now              func() time.Time
}

type activationUC struct {
	codes repository.ActivationCodeRepository
	logs  repository.ActivationLogRepository
	tm    repository.TransactionManager
	opts  ActivationOptions
	log   *zerolog.Logger
}

func NewActivationUseCase(
	codes repository.ActivationCodeRepository,
	logs repository.ActivationLogRepository,
	tm repository.TransactionManager,
	opts ActivationOptions,
	logger *zerolog.Logger,
) *activationUC {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 3 * time.Second
	}
	if opts.LogTimeout <= 0 {
		opts.LogTimeout = time.Second
	}
	if opts.ClaimMaxAttempts <= 0 {
		opts.ClaimMaxAttempts = 3
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	l := logger.With().Str("component", "ActivationUC").Logger()
	return &activationUC{codes: codes, logs: logs, tm: tm, opts: opts, log: &l}
}

// ---- end-user operations ----

func (uc *activationUC) Validate(ctx context.Context, rawCode, rawDevice string) (*Verdict, error) {
	defer logging.TraceDuration(uc.log, "ActivationUC.Validate")()

	code, device, err := parseCodeAndDevice(rawCode, rawDevice)
	if err != nil {
		metrics.IncValidation("invalid_input")
		return nil, err
	}
	if uc.isDeveloperCode(code) {
		metrics.IncValidation(ReasonDeveloper)
		return &Verdict{Allow: true, Reason: ReasonDeveloper}, nil
	}

	sctx, cancel := context.WithTimeout(ctx, uc.opts.StoreTimeout)
	defer cancel()
	start := time.Now()
	cur, err := uc.codes.FindByCode(sctx, repository.NoTX, code)
	metrics.ObserveStoreLatency("validate", msSince(start))

	var v *Verdict
	switch {
	case errors.Is(err, domain.ErrNotFound):
		v = &Verdict{Allow: false, Reason: ReasonNotFound}
	case err != nil:
		metrics.IncValidation("unavailable")
		uc.logger(ctx, code, device).Error().Err(err).Msg("validate: store read failed")
		return nil, unavailable(err)
	case cur.State == model.CodeStateAvailable:
		v = &Verdict{Allow: true, Reason: ReasonEligible}
	case cur.BoundTo(device):
		v = &Verdict{Allow: true, Reason: ReasonBoundToDevice, UsedAt: cur.UsedAt}
	case cur.State == model.CodeStateUsed:
		v = &Verdict{Allow: false, Reason: ReasonAlreadyUsed, UsedAt: cur.UsedAt, BoundDeviceMasked: cur.MaskedDevice()}
	default:
		v = &Verdict{Allow: false, Reason: ReasonDisabled}
	}
	metrics.IncValidation(v.Reason)
	return v, nil
}

// Claim binds an AVAILABLE code to deviceID. The read-check-write runs in one
// transaction under a row lock, and the write is a version compare-and-swap;
// a lost swap is retried up to ClaimMaxAttempts before ErrConflict.
func (uc *activationUC) Claim(ctx context.Context, rawCode, rawDevice string, clientContext map[string]string) (*ClaimResult, error) {
	defer logging.TraceDuration(uc.log, "ActivationUC.Claim")()

	code, device, err := parseCodeAndDevice(rawCode, rawDevice)
	if err != nil {
		metrics.IncClaim("invalid_input")
		return nil, err
	}
	meta := model.SanitizeContext(clientContext)
	l := uc.logger(ctx, code, device)

	if uc.isDeveloperCode(code) {
		uc.audit(ctx, l, &model.LogEntry{
			Code: code, Action: model.LogActionClaim, Actor: model.LogActorDeveloper,
			Outcome: model.LogOutcomeNoop, Context: meta,
		})
		metrics.IncClaim("developer")
		return &ClaimResult{Code: code, State: model.CodeStateAvailable, BoundDevice: device, Developer: true}, nil
	}

	sctx, cancel := context.WithTimeout(ctx, uc.opts.StoreTimeout)
	defer cancel()

	start := time.Now()
	var res *ClaimResult
	for attempt := 1; attempt <= uc.opts.ClaimMaxAttempts; attempt++ {
		res, err = uc.claimOnce(sctx, code, device)
		if !errors.Is(err, domain.ErrVersionConflict) {
			break
		}
		l.Debug().Int("attempt", attempt).Msg("claim lost compare-and-swap")
	}
	metrics.ObserveStoreLatency("claim", msSince(start))

	entry := &model.LogEntry{Code: code, Action: model.LogActionClaim, Actor: model.LogActorUser, Context: meta}
	switch {
	case err == nil && res.Reentry:
		metrics.IncClaim("reentry")
		entry.Outcome = model.LogOutcomeNoop
		uc.audit(ctx, l, entry)
		return res, nil
	case err == nil:
		uc.invalidate(ctx, code)
		metrics.IncClaim("claimed")
		l.Info().Msg("code claimed")
		entry.Outcome = model.LogOutcomeApplied
		uc.audit(ctx, l, entry)
		return res, nil
	case errors.Is(err, domain.ErrAlreadyUsed), errors.Is(err, domain.ErrDisabled):
		metrics.IncClaim(domain.Reason(err))
		entry.Outcome = model.LogOutcomeRejected
		uc.audit(ctx, l, entry)
		return nil, err
	case errors.Is(err, domain.ErrNotFound):
		metrics.IncClaim("not_found")
		return nil, err
	case errors.Is(err, domain.ErrVersionConflict):
		metrics.IncClaim("conflict")
		l.Warn().Int("attempts", uc.opts.ClaimMaxAttempts).Msg("claim retries exhausted")
		return nil, fmt.Errorf("%w: claim retries exhausted", domain.ErrConflict)
	default:
		metrics.IncClaim("unavailable")
		l.Error().Err(err).Msg("claim: store failure")
		return nil, unavailable(err)
	}
}

func (uc *activationUC) claimOnce(ctx context.Context, code string, device model.DeviceID) (*ClaimResult, error) {
	var res *ClaimResult
	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	err := uc.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		cur, err := uc.codes.FindByCodeForUpdate(ctx, tx, code)
		if err != nil {
			return err
		}
		switch {
		case cur.BoundTo(device):
			res = claimResult(cur, true)
			return nil
		case cur.State == model.CodeStateUsed:
			return &domain.RejectionError{Err: domain.ErrAlreadyUsed, UsedAt: cur.UsedAt, MaskedDevice: cur.MaskedDevice()}
		case cur.State == model.CodeStateDisabled:
			return &domain.RejectionError{Err: domain.ErrDisabled}
		}

		next := cur.Claimed(device, uc.opts.Now())
		if err := uc.codes.CompareAndSwap(ctx, tx, next, cur.Version); err != nil {
			return err
		}
		res = claimResult(next, false)
		return nil
	})
	return res, err
}

func claimResult(c *model.ActivationCode, reentry bool) *ClaimResult {
	r := &ClaimResult{Code: c.Code, State: c.State, UsedAt: c.UsedAt, Reentry: reentry}
	if c.BoundDevice != nil {
		r.BoundDevice = *c.BoundDevice
	}
	return r
}

func (uc *activationUC) Status(ctx context.Context, rawCode string) (*CodeStatus, error) {
	defer logging.TraceDuration(uc.log, "ActivationUC.Status")()

	code, err := model.NormalizeCode(rawCode)
	if err != nil {
		return nil, err
	}
	if uc.isDeveloperCode(code) {
		return &CodeStatus{Code: code, State: model.CodeStateAvailable, Developer: true}, nil
	}
	sctx, cancel := context.WithTimeout(ctx, uc.opts.StoreTimeout)
	defer cancel()
	cur, err := uc.codes.FindByCode(sctx, repository.NoTX, code)
	if err != nil {
		return nil, storeErr(err)
	}
	return &CodeStatus{
		Code:              cur.Code,
		State:             cur.State,
		UsedAt:            cur.UsedAt,
		BoundDeviceMasked: cur.MaskedDevice(),
	}, nil
}

// ---- helpers ----

func parseCodeAndDevice(rawCode, rawDevice string) (string, model.DeviceID, error) {
	code, err := model.NormalizeCode(rawCode)
	if err != nil {
		return "", "", fmt.Errorf("%w: malformed code", err)
	}
	device, err := model.ParseDeviceID(rawDevice)
	if err != nil {
		return "", "", fmt.Errorf("%w: malformed device id", err)
	}
	return code, device, nil
}

func (uc *activationUC) isDeveloperCode(code string) bool {
	dc := uc.opts.DeveloperCode
	return dc != "" && subtle.ConstantTimeCompare([]byte(dc), []byte(code)) == 1
}

func (uc *activationUC) logger(ctx context.Context, code string, device model.DeviceID) *zerolog.Logger {
	ctx = logging.WithCode(ctx, logging.Redact(code, uc.opts.Dev))
	if device != "" {
		ctx = logging.WithDeviceID(ctx, logging.Redact(device.String(), uc.opts.Dev))
	}
	return logging.With(ctx, uc.log)
}

// invalidate drops any cached copy of code. Call only after the write has
// committed.
func (uc *activationUC) invalidate(ctx context.Context, code string) {
	if inv, ok := uc.codes.(repository.CodeInvalidator); ok {
		inv.Invalidate(ctx, code)
	}
}

// appendLog writes one audit entry synchronously with its own timeout, detached
// from the caller's cancellation.
func (uc *activationUC) appendLog(ctx context.Context, tx repository.Tx, e *model.LogEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = uc.opts.Now().UTC()
	}
	if tx != nil {
		return uc.logs.Append(ctx, tx, e)
	}
	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.opts.LogTimeout)
	defer cancel()
	return uc.logs.Append(lctx, repository.NoTX, e)
}

// audit is appendLog whose failure never affects the committed transition.
func (uc *activationUC) audit(ctx context.Context, l *zerolog.Logger, e *model.LogEntry) {
	if err := uc.appendLog(ctx, repository.NoTX, e); err != nil {
		metrics.IncLogAppendFailure()
		l.Warn().Err(err).Str("action", string(e.Action)).Msg("audit log append failed")
	}
}

// storeErr passes taxonomy errors through and turns everything else into ErrUnavailable.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrAlreadyUsed),
		errors.Is(err, domain.ErrDisabled),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnavailable):
		return err
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrVersionConflict):
		return fmt.Errorf("%w: %w", domain.ErrConflict, err)
	default:
		return unavailable(err)
	}
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}

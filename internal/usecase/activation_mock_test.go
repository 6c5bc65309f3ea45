//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"activation-gate/internal/domain/model"
	"activation-gate/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func fixedNow() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

// faultyCodes wraps a real code store and lets a test override single methods.
type faultyCodes struct {
	repository.ActivationCodeRepository

	FindByCodeFunc          func(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error)
	FindByCodeForUpdateFunc func(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error)
	CompareAndSwapFunc      func(ctx context.Context, tx repository.Tx, next *model.ActivationCode, expected int64) error

	casCalls atomic.Int32
}

func (f *faultyCodes) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error) {
	if f.FindByCodeFunc != nil {
		return f.FindByCodeFunc(ctx, tx, code)
	}
	return f.ActivationCodeRepository.FindByCode(ctx, tx, code)
}

func (f *faultyCodes) FindByCodeForUpdate(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error) {
	if f.FindByCodeForUpdateFunc != nil {
		return f.FindByCodeForUpdateFunc(ctx, tx, code)
	}
	return f.ActivationCodeRepository.FindByCodeForUpdate(ctx, tx, code)
}

func (f *faultyCodes) CompareAndSwap(ctx context.Context, tx repository.Tx, next *model.ActivationCode, expected int64) error {
	f.casCalls.Add(1)
	if f.CompareAndSwapFunc != nil {
		return f.CompareAndSwapFunc(ctx, tx, next, expected)
	}
	return f.ActivationCodeRepository.CompareAndSwap(ctx, tx, next, expected)
}

// faultyLogs wraps a real log store; AppendFunc replaces Append when set.
type faultyLogs struct {
	repository.ActivationLogRepository

	AppendFunc func(ctx context.Context, tx repository.Tx, e *model.LogEntry) error
}

func (f *faultyLogs) Append(ctx context.Context, tx repository.Tx, e *model.LogEntry) error {
	if f.AppendFunc != nil {
		return f.AppendFunc(ctx, tx, e)
	}
	return f.ActivationLogRepository.Append(ctx, tx, e)
}

// eventLog records the order of store writes, commits and cache invalidations.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (e *eventLog) add(ev string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *eventLog) take() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.events
	e.events = nil
	return out
}

// cachedCodes stands in for a read cache in front of the code store.
type cachedCodes struct {
	repository.ActivationCodeRepository
	ev *eventLog
}

var _ repository.CodeInvalidator = (*cachedCodes)(nil)

func (c *cachedCodes) CompareAndSwap(ctx context.Context, tx repository.Tx, next *model.ActivationCode, expected int64) error {
	c.ev.add("write")
	return c.ActivationCodeRepository.CompareAndSwap(ctx, tx, next, expected)
}

func (c *cachedCodes) Delete(ctx context.Context, tx repository.Tx, code string) error {
	c.ev.add("write")
	return c.ActivationCodeRepository.Delete(ctx, tx, code)
}

func (c *cachedCodes) Invalidate(_ context.Context, code string) { c.ev.add("invalidate " + code) }

// committingTM marks the point where a transaction has committed.
type committingTM struct {
	repository.TransactionManager
	ev *eventLog
}

func (m *committingTM) WithTx(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := m.TransactionManager.WithTx(ctx, opts, fn); err != nil {
		return err
	}
	m.ev.add("commit")
	return nil
}

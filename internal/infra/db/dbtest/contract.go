// Package dbtest holds the behavioural contract every Code Store and Log Store
// adapter must satisfy. Adapter test packages call Run with a fresh backend.
package dbtest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"activation-gate/internal/domain"
	"activation-gate/internal/domain/model"
	"activation-gate/internal/domain/ports/repository"
	"activation-gate/internal/usecase"
)

type Backend struct {
	Codes repository.ActivationCodeRepository
	Logs  repository.ActivationLogRepository
	TM    repository.TransactionManager
}

// Run executes the contract. newBackend must return an empty store.
func Run(t *testing.T, newBackend func(t *testing.T) Backend) {
	t.Run("insert and find", func(t *testing.T) { testInsertFind(t, newBackend(t)) })
	t.Run("compare and swap", func(t *testing.T) { testCompareAndSwap(t, newBackend(t)) })
	t.Run("rollback", func(t *testing.T) { testRollback(t, newBackend(t)) })
	t.Run("delete keeps logs", func(t *testing.T) { testDeleteKeepsLogs(t, newBackend(t)) })
	t.Run("list and count", func(t *testing.T) { testListCount(t, newBackend(t)) })
	t.Run("concurrent claims", func(t *testing.T) { testConcurrentClaims(t, newBackend(t)) })
}

func seed(t *testing.T, b Backend, code string) *model.ActivationCode {
	t.Helper()
	c, err := model.NewActivationCode(code, time.Now().Truncate(time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, b.Codes.Insert(context.Background(), repository.NoTX, c))
	require.NotZero(t, c.ID)
	return c
}

func testInsertFind(t *testing.T, b Backend) {
	ctx := context.Background()
	c := seed(t, b, "Find-Me")

	got, err := b.Codes.FindByCode(ctx, repository.NoTX, "Find-Me")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, model.CodeStateAvailable, got.State)
	assert.Nil(t, got.BoundDevice)
	assert.Nil(t, got.UsedAt)
	assert.Equal(t, int64(1), got.Version)
	assert.WithinDuration(t, c.CreatedAt, got.CreatedAt, time.Millisecond)

	_, err = b.Codes.FindByCode(ctx, repository.NoTX, "find-me")
	assert.ErrorIs(t, err, domain.ErrNotFound, "codes are case-sensitive")

	dup, _ := model.NewActivationCode("Find-Me", time.Now())
	assert.ErrorIs(t, b.Codes.Insert(ctx, repository.NoTX, dup), domain.ErrAlreadyExists)
}

func testCompareAndSwap(t *testing.T, b Backend) {
	ctx := context.Background()
	c := seed(t, b, "CAS-1")
	at := time.Now().UTC().Truncate(time.Millisecond)

	next := c.Claimed("device-A", at)
	require.NoError(t, b.Codes.CompareAndSwap(ctx, repository.NoTX, next, c.Version))
	assert.ErrorIs(t, b.Codes.CompareAndSwap(ctx, repository.NoTX, c.Disabled(), c.Version), domain.ErrVersionConflict)

	got, err := b.Codes.FindByCode(ctx, repository.NoTX, "CAS-1")
	require.NoError(t, err)
	assert.True(t, got.BoundTo("device-A"))
	require.NotNil(t, got.UsedAt)
	assert.WithinDuration(t, at, *got.UsedAt, time.Millisecond)
	assert.Equal(t, c.Version+1, got.Version)
	assert.True(t, got.Consistent())

	ghost := next.Clone()
	ghost.Code = "ghost"
	assert.ErrorIs(t, b.Codes.CompareAndSwap(ctx, repository.NoTX, ghost, 1), domain.ErrNotFound)
}

func testRollback(t *testing.T, b Backend) {
	ctx := context.Background()
	c := seed(t, b, "RB-1")
	boom := errors.New("boom")

	err := b.TM.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		cur, err := b.Codes.FindByCodeForUpdate(ctx, tx, "RB-1")
		require.NoError(t, err)
		require.NoError(t, b.Codes.CompareAndSwap(ctx, tx, cur.Claimed("device-A", time.Now()), cur.Version))
		require.NoError(t, b.Logs.Append(ctx, tx, &model.LogEntry{
			Code: "RB-1", Action: model.LogActionClaim, Actor: model.LogActorUser, Outcome: model.LogOutcomeApplied,
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := b.Codes.FindByCode(ctx, repository.NoTX, "RB-1")
	require.NoError(t, err)
	assert.Equal(t, c.Version, got.Version)
	assert.Equal(t, model.CodeStateAvailable, got.State)

	logs, err := b.Logs.ListRecent(ctx, repository.NoTX, "RB-1", 10)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func testDeleteKeepsLogs(t *testing.T, b Backend) {
	ctx := context.Background()
	seed(t, b, "DEL-1")

	err := b.TM.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		if err := b.Logs.Append(ctx, tx, &model.LogEntry{
			Code: "DEL-1", Action: model.LogActionDelete, Actor: model.LogActorAdmin, Outcome: model.LogOutcomeApplied,
			Context: map[string]string{"admin": "ops"},
		}); err != nil {
			return err
		}
		return b.Codes.Delete(ctx, tx, "DEL-1")
	})
	require.NoError(t, err)

	_, err = b.Codes.FindByCode(ctx, repository.NoTX, "DEL-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, b.Codes.Delete(ctx, repository.NoTX, "DEL-1"), domain.ErrNotFound)

	logs, err := b.Logs.ListRecent(ctx, repository.NoTX, "DEL-1", 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.LogActionDelete, logs[0].Action)
	assert.Equal(t, "ops", logs[0].Context["admin"])
	assert.NotZero(t, logs[0].ID)
	assert.False(t, logs[0].CreatedAt.IsZero())
}

func testListCount(t *testing.T, b Backend) {
	ctx := context.Background()
	a := seed(t, b, "L-a")
	seed(t, b, "L-b")
	seed(t, b, "L-c")
	require.NoError(t, b.Codes.CompareAndSwap(ctx, repository.NoTX, a.Disabled(), a.Version))

	all, err := b.Codes.List(ctx, repository.NoTX, repository.CodeFilter{}, 0, 2)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "L-c", all[0].Code)

	rest, err := b.Codes.List(ctx, repository.NoTX, repository.CodeFilter{}, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "L-a", rest[0].Code)

	n, err := b.Codes.Count(ctx, repository.NoTX, repository.CodeFilter{State: model.CodeStateAvailable})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	byState, err := b.Codes.CountByState(ctx, repository.NoTX)
	require.NoError(t, err)
	assert.Equal(t, map[model.CodeState]int{
		model.CodeStateAvailable: 2,
		model.CodeStateUsed:      0,
		model.CodeStateDisabled:  1,
	}, byState)

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Logs.Append(ctx, repository.NoTX, &model.LogEntry{
			Code: "L-a", Action: model.LogActionReset, Actor: model.LogActorAdmin, Outcome: model.LogOutcomeNoop,
			CreatedAt: time.Now().UTC(),
		}))
	}
	logs, err := b.Logs.ListRecent(ctx, repository.NoTX, "", 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Greater(t, logs[0].ID, logs[1].ID)
}

func testConcurrentClaims(t *testing.T, b Backend) {
	ctx := context.Background()
	seed(t, b, "RACE")
	logger := zerolog.New(io.Discard)
	uc := usecase.NewActivationUseCase(b.Codes, b.Logs, b.TM, usecase.ActivationOptions{
		StoreTimeout:     10 * time.Second,
		ClaimMaxAttempts: 3,
	}, &logger)

	const n = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := uc.Claim(ctx, "RACE", fmt.Sprintf("device-%02d", i), nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, domain.ErrAlreadyUsed):
			default:
				t.Errorf("unexpected claim error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)

	got, err := b.Codes.FindByCode(ctx, repository.NoTX, "RACE")
	require.NoError(t, err)
	assert.Equal(t, model.CodeStateUsed, got.State)
	assert.Equal(t, int64(2), got.Version)
}

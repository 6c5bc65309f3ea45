//go:build !integration

package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"activation-gate/internal/domain"
	"activation-gate/internal/domain/model"
	"activation-gate/internal/domain/ports/repository"
	"activation-gate/internal/infra/db/memory"
)

func TestCodeRepoCacheDecorator(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*memory.Store, *fakeRedis, *model.ActivationCode) {
		t.Helper()
		store := memory.NewStore()
		c, err := model.NewActivationCode("CACHE-1", time.Now())
		require.NoError(t, err)
		require.NoError(t, store.Insert(ctx, nil, c))
		return store, newFakeRedis(), c
	}

	t.Run("miss populates the cache and hit skips the store", func(t *testing.T) {
		store, cache, c := setup(t)
		dec := NewCodeRepoCacheDecorator(store, cache, time.Second, newTestLogger())

		got, err := dec.FindByCode(ctx, nil, c.Code)
		require.NoError(t, err)
		assert.Equal(t, c.Version, got.Version)
		require.True(t, cache.has(codeKey(c.Code)))
		assert.Equal(t, time.Second, cache.ttl[codeKey(c.Code)])

		// Change the store behind the cache's back: a hit still returns the old copy.
		require.NoError(t, store.CompareAndSwap(ctx, nil, c.Disabled(), c.Version))
		got, err = dec.FindByCode(ctx, nil, c.Code)
		require.NoError(t, err)
		assert.Equal(t, model.CodeStateAvailable, got.State)
	})

	t.Run("writes through the decorator invalidate", func(t *testing.T) {
		store, cache, c := setup(t)
		dec := NewCodeRepoCacheDecorator(store, cache, time.Minute, newTestLogger())

		_, err := dec.FindByCode(ctx, nil, c.Code)
		require.NoError(t, err)
		require.NoError(t, dec.CompareAndSwap(ctx, nil, c.Claimed("dev-A", time.Now()), c.Version))
		assert.False(t, cache.has(codeKey(c.Code)))

		got, err := dec.FindByCode(ctx, nil, c.Code)
		require.NoError(t, err)
		assert.True(t, got.BoundTo("dev-A"))

		require.NoError(t, dec.Delete(ctx, nil, c.Code))
		assert.False(t, cache.has(codeKey(c.Code)))
		_, err = dec.FindByCode(ctx, nil, c.Code)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("invalidate after commit drops a copy cached mid-transaction", func(t *testing.T) {
		store, cache, c := setup(t)
		dec := NewCodeRepoCacheDecorator(store, cache, time.Minute, newTestLogger())

		// A concurrent reader caches the pre-commit row after the write's own invalidation.
		_, err := dec.FindByCode(ctx, nil, c.Code)
		require.NoError(t, err)
		require.NoError(t, store.CompareAndSwap(ctx, nil, c.Claimed("dev-A", time.Now()), c.Version))
		require.True(t, cache.has(codeKey(c.Code)))

		inv, ok := dec.(repository.CodeInvalidator)
		require.True(t, ok)
		inv.Invalidate(ctx, c.Code)
		assert.False(t, cache.has(codeKey(c.Code)))

		got, err := dec.FindByCode(ctx, nil, c.Code)
		require.NoError(t, err)
		assert.True(t, got.BoundTo("dev-A"))
	})

	t.Run("locked reads and transactional reads bypass the cache", func(t *testing.T) {
		store, cache, c := setup(t)
		cache.GetFunc = func(context.Context, string) (string, error) {
			t.Fatal("cache must not be read")
			return "", nil
		}
		dec := NewCodeRepoCacheDecorator(store, cache, time.Minute, newTestLogger())

		_, err := dec.FindByCodeForUpdate(ctx, nil, c.Code)
		require.NoError(t, err)
		_, err = dec.FindByCode(ctx, struct{}{}, c.Code)
		require.NoError(t, err)
	})

	t.Run("redis errors fall through to the store", func(t *testing.T) {
		store, cache, c := setup(t)
		cache.GetFunc = func(context.Context, string) (string, error) {
			return "", errors.New("redis down")
		}
		dec := NewCodeRepoCacheDecorator(store, cache, time.Minute, newTestLogger())

		got, err := dec.FindByCode(ctx, nil, c.Code)
		require.NoError(t, err)
		assert.Equal(t, c.Code, got.Code)
	})

	t.Run("not found is not cached", func(t *testing.T) {
		store, cache, _ := setup(t)
		dec := NewCodeRepoCacheDecorator(store, cache, time.Minute, newTestLogger())

		_, err := dec.FindByCode(ctx, nil, "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.False(t, cache.has(codeKey("nope")))
	})
}

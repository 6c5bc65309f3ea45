package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"activation-gate/internal/domain/model"
	"activation-gate/internal/domain/ports/repository"
	"activation-gate/internal/infra/metrics"
)

var (
	_ repository.ActivationCodeRepository = (*codeRepoCacheDecorator)(nil)
	_ repository.CodeInvalidator          = (*codeRepoCacheDecorator)(nil)
)

// codeRepoCacheDecorator caches unlocked reads outside transactions. Locked
// reads and anything inside a transaction always go to the store, so claims
// never decide on cached state. Writes invalidate the key in place, and the
// use case invalidates again after commit through Invalidate.
type codeRepoCacheDecorator struct {
	repository.ActivationCodeRepository
	cache RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewCodeRepoCacheDecorator(inner repository.ActivationCodeRepository, cache RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.ActivationCodeRepository {
	l := logger.With().Str("component", "CodeCache").Logger()
	return &codeRepoCacheDecorator{ActivationCodeRepository: inner, cache: cache, ttl: ttl, log: &l}
}

func codeKey(code string) string { return "activation_code:" + code }

func (d *codeRepoCacheDecorator) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error) {
	if tx != nil {
		return d.ActivationCodeRepository.FindByCode(ctx, tx, code)
	}

	key := codeKey(code)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var c model.ActivationCode
		if json.Unmarshal([]byte(val), &c) == nil {
			metrics.IncCacheRequest("activation_code", "hit")
			return &c, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		d.log.Warn().Err(err).Msg("cache read failed")
	}

	metrics.IncCacheRequest("activation_code", "miss")
	c, err := d.ActivationCodeRepository.FindByCode(ctx, tx, code)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(c); err == nil {
		if err := d.cache.Set(ctx, key, b, d.ttl); err != nil {
			d.log.Warn().Err(err).Msg("cache write failed")
		}
	}
	return c, nil
}

func (d *codeRepoCacheDecorator) CompareAndSwap(ctx context.Context, tx repository.Tx, next *model.ActivationCode, expected int64) error {
	d.Invalidate(ctx, next.Code)
	err := d.ActivationCodeRepository.CompareAndSwap(ctx, tx, next, expected)
	d.Invalidate(ctx, next.Code)
	return err
}

func (d *codeRepoCacheDecorator) Insert(ctx context.Context, tx repository.Tx, code *model.ActivationCode) error {
	d.Invalidate(ctx, code.Code)
	return d.ActivationCodeRepository.Insert(ctx, tx, code)
}

func (d *codeRepoCacheDecorator) Delete(ctx context.Context, tx repository.Tx, code string) error {
	d.Invalidate(ctx, code)
	err := d.ActivationCodeRepository.Delete(ctx, tx, code)
	d.Invalidate(ctx, code)
	return err
}

func (d *codeRepoCacheDecorator) Invalidate(ctx context.Context, code string) {
	if err := d.cache.Del(ctx, codeKey(code)); err != nil {
		d.log.Warn().Err(err).Msg("cache invalidate failed")
	}
}

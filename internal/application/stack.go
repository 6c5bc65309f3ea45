// File: internal/application/stack.go
package application

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"activation-gate/internal/config"
	"activation-gate/internal/domain/ports/repository"
	"activation-gate/internal/infra/db/memory"
	"activation-gate/internal/infra/db/mysql"
	pg "activation-gate/internal/infra/db/postgres"
	red "activation-gate/internal/infra/redis"
	"activation-gate/internal/usecase"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Stack holds the storage backend selected by config plus the optional Redis
// layer. Both the server and the admin CLI are built on it.
type Stack struct {
	Codes repository.ActivationCodeRepository
	Logs  repository.ActivationLogRepository
	TM    repository.TransactionManager
	Store pinger

	// PoolStats is nil for the memory driver.
	PoolStats func() (total, idle, inUse int32)

	// Limiter is nil when Redis is not configured or unreachable.
	Limiter *red.RateLimiter

	closers []func()
	log     *zerolog.Logger
}

// Open connects the configured store. A configured but unreachable Redis is
// logged and skipped; the store stays authoritative without it.
func Open(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*Stack, error) {
	l := logger.With().Str("component", "bootstrap").Logger()
	s := &Stack{log: &l}

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pool, err := pg.NewPgxPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		tm := pg.NewTxManager(pool)
		s.Codes, s.Logs, s.TM, s.Store = pg.NewActivationCodeRepo(pool), pg.NewActivationLogRepo(pool), tm, tm
		s.PoolStats = func() (int32, int32, int32) {
			st := pool.Stat()
			return st.TotalConns(), st.IdleConns(), st.AcquiredConns()
		}
	case config.DriverMySQL:
		db, err := mysql.Open(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("mysql: %w", err)
		}
		s.closers = append(s.closers, func() { _ = db.Close() })
		tm := mysql.NewTxManager(db)
		s.Codes, s.Logs, s.TM, s.Store = mysql.NewActivationCodeRepo(db), mysql.NewActivationLogRepo(db), tm, tm
		s.PoolStats = func() (int32, int32, int32) {
			st := tm.Stats()
			return int32(st.OpenConnections), int32(st.Idle), int32(st.InUse)
		}
	case config.DriverMemory:
		store := memory.NewStore()
		s.Codes, s.Logs, s.TM, s.Store = store, store, store, store
		l.Warn().Msg("using in-memory store; data is lost on exit")
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	l.Info().Str("driver", cfg.Database.Driver).Msg("store ready")

	if cfg.Redis.Enabled() {
		client, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			l.Warn().Err(err).Msg("redis unavailable; running without cache and rate limiting")
		} else {
			s.closers = append(s.closers, func() { _ = client.Close() })
			s.Codes = red.NewCodeRepoCacheDecorator(s.Codes, client, cfg.Redis.TTL, logger)
			s.Limiter = red.NewRateLimiter(client)
			l.Info().Dur("ttl", cfg.Redis.TTL).Msg("redis cache and rate limiter enabled")
		}
	}
	return s, nil
}

// UseCase builds the activation use case on top of the stack.
func (s *Stack) UseCase(cfg *config.Config, logger *zerolog.Logger) usecase.ActivationUseCase {
	return usecase.NewActivationUseCase(s.Codes, s.Logs, s.TM, usecase.ActivationOptions{
		DeveloperCode:    cfg.Activation.DeveloperCode,
		StoreTimeout:     cfg.Activation.StoreTimeout,
		LogTimeout:       cfg.Activation.LogTimeout,
		ClaimMaxAttempts: cfg.Activation.ClaimMaxAttempts,
		Dev:              cfg.Runtime.Dev,
	}, logger)
}

// Close releases connections in reverse order of opening.
func (s *Stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

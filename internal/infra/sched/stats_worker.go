package sched

import (
	"context"
	"time"

	"activation-gate/internal/domain/model"
	"activation-gate/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// StatsSource is satisfied by usecase.ActivationUseCase.
type StatsSource interface {
	Stats(ctx context.Context) (map[model.CodeState]int, error)
}

// PoolStats reports total, idle and in-use connections of the store's pool.
type PoolStats func() (total, idle, inUse int32)

// StatsWorker periodically publishes code counts and pool usage as gauges.
type StatsWorker struct {
	interval time.Duration
	src      StatsSource
	pool     PoolStats
	log      *zerolog.Logger
}

func NewStatsWorker(interval time.Duration, src StatsSource, pool PoolStats, logger *zerolog.Logger) *StatsWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	statsLog := logger.With().Str("component", "StatsWorker").Logger()
	return &StatsWorker{
		interval: interval,
		src:      src,
		pool:     pool,
		log:      &statsLog,
	}
}

func (w *StatsWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting stats worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sample(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping stats worker")
			return ctx.Err()
		case <-ticker.C:
			w.sample(ctx)
		}
	}
}

func (w *StatsWorker) sample(ctx context.Context) {
	if w.pool != nil {
		metrics.SetDBPoolStats(w.pool())
	}
	counts, err := w.src.Stats(ctx)
	if err != nil {
		if ctx.Err() == nil {
			metrics.IncStatsSampleFailure()
			w.log.Warn().Err(err).Msg("stats sample failed")
		}
		return
	}
	metrics.SetCodesTotal(counts)
}

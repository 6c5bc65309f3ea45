//go:build !integration

package sched

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"activation-gate/internal/domain/model"

	"github.com/rs/zerolog"
)

type countingSource struct {
	calls atomic.Int32
	err   error
}

func (s *countingSource) Stats(context.Context) (map[model.CodeState]int, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return map[model.CodeState]int{model.CodeStateAvailable: 2}, nil
}

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestStatsWorker_SamplesUntilCancelled(t *testing.T) {
	src := &countingSource{}
	var poolCalls atomic.Int32
	w := NewStatsWorker(5*time.Millisecond, src, func() (int32, int32, int32) {
		poolCalls.Add(1)
		return 4, 3, 1
	}, newTestLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := w.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run returned %v", err)
	}
	if src.calls.Load() < 2 {
		t.Fatalf("expected repeated samples, got %d", src.calls.Load())
	}
	if poolCalls.Load() != src.calls.Load() {
		t.Fatalf("pool sampled %d times, stats %d", poolCalls.Load(), src.calls.Load())
	}
}

func TestStatsWorker_SurvivesSourceErrors(t *testing.T) {
	src := &countingSource{err: errors.New("store down")}
	w := NewStatsWorker(5*time.Millisecond, src, nil, newTestLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_ = w.Run(ctx)
	if src.calls.Load() < 2 {
		t.Fatalf("worker should keep sampling after errors, got %d calls", src.calls.Load())
	}
}

// Package scheduler drives the recurring cadences of the engine: signal
// generation, wallet sync and position monitoring.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"solana-trade-engine/internal/observability"
)

// TaskFunc is one task invocation. A returned error is logged; the cadence
// itself is never retried, a failed cycle just waits for the next tick.
type TaskFunc func(ctx context.Context) error

// task is one registered cadence.
type task struct {
	name     string
	interval time.Duration
	fn       TaskFunc

	mu      sync.Mutex
	running bool
}

// Scheduler runs named recurring tasks, each on its own ticker. Overlapping
// runs of the same task are skipped.
type Scheduler struct {
	tasks  []*task
	logger *zap.Logger
	wg     sync.WaitGroup
}

func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

// Register adds a named recurring task.
func (s *Scheduler) Register(name string, interval time.Duration, fn TaskFunc) {
	s.tasks = append(s.tasks, &task{name: name, interval: interval, fn: fn})
}

// Start launches every registered task. Each runs once immediately, then on
// its interval. Blocks until ctx is cancelled and all tasks have returned.
func (s *Scheduler) Start(ctx context.Context) {
	for _, t := range s.tasks {
		s.wg.Add(1)
		go func(t *task) {
			defer s.wg.Done()
			s.runLoop(ctx, t)
		}(t)
	}
	s.wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, t *task) {
	s.logger.Info("task scheduled",
		zap.String("task", t.name),
		zap.Duration("interval", t.interval))

	s.runOnce(ctx, t)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, t)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, t *task) {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		s.logger.Warn("task still running, skipping tick", zap.String("task", t.name))
		return
	}
	t.running = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.running = false
		t.mu.Unlock()
	}()

	start := time.Now()
	if err := t.fn(ctx); err != nil {
		observability.RecordTaskRun(t.name, "error", time.Since(start).Seconds())
		s.logger.Error("task failed",
			zap.String("task", t.name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return
	}
	observability.RecordTaskRun(t.name, "success", time.Since(start).Seconds())
	s.logger.Debug("task completed",
		zap.String("task", t.name),
		zap.Duration("elapsed", time.Since(start)))
}

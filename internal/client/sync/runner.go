package sync

import (
	"context"
	"log/slog"
	stdsync "sync"
	"time"
)

// Runner запускает циклы синхронизации по таймеру и по событиям
// (старт приложения, возврат в фокус, появление сети).
// Runner владеет своей горутиной; глобального состояния нет.
type Runner struct {
	svc      Service
	logger   *slog.Logger
	trigger  chan struct{}
	cancel   context.CancelFunc
	done     chan struct{}
	onCycle  func(*CycleResult, error)
	interval time.Duration
	mu       stdsync.Mutex
}

// NewRunner creates a periodic runner. interval <= 0 uses the default.
func NewRunner(svc Service, interval time.Duration, logger *slog.Logger) *Runner {
	if interval <= 0 {
		interval = DefaultConfig().Interval
	}
	return &Runner{
		svc:      svc,
		interval: interval,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
	}
}

// OnCycle registers a callback invoked after every cycle. Call before Start.
func (r *Runner) OnCycle(fn func(*CycleResult, error)) {
	r.onCycle = fn
}

// Start launches the loop and schedules an immediate cycle.
// Calling Start on a running Runner is a no-op.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.loop(ctx, r.done)
	r.Trigger()
}

// Trigger requests a cycle. Requests arriving while a cycle runs are
// coalesced into a single follow-up cycle.
func (r *Runner) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Stop cancels the loop and waits for the running cycle to return
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (r *Runner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("Sync runner stopped")
			return
		case <-ticker.C:
		case <-r.trigger:
		}

		res, err := r.svc.Run(ctx)
		if err != nil && ctx.Err() == nil {
			r.logger.Error("Sync cycle failed", "error", err)
		}
		if r.onCycle != nil {
			r.onCycle(res, err)
		}
	}
}

package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"seopilot/internal/logging"
)

// Loop triggers non-forced ticks on a fixed interval. Ticks only do work
// while the persisted running flag is set, so the loop can stay up while the
// scheduler is stopped.
type Loop struct {
	scheduler *Scheduler
	interval  time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
}

// NewLoop constructs a periodic trigger for s.
func NewLoop(s *Scheduler, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = time.Duration(s.cfg.Batch.IntervalSeconds) * time.Second
	}
	return &Loop{scheduler: s, interval: interval}
}

// Start begins periodic ticking.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return errors.New("tick loop already running")
	}
	if l.interval <= 0 {
		return errors.New("tick interval must be positive")
	}
	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.running = true
	l.wg.Add(1)
	go l.run(runCtx)
	return nil
}

// Stop terminates the loop and waits for an in-flight tick to finish.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	cancel := l.cancel
	l.running = false
	l.cancel = nil
	l.mu.Unlock()

	cancel()
	l.wg.Wait()
}

// Running reports whether the loop goroutine is active.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// LastError returns the error of the most recent failed tick.
func (l *Loop) LastError() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

func (l *Loop) run(ctx context.Context) {
	defer l.wg.Done()
	logger := l.scheduler.logger
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(l.interval):
		}

		_, err := l.scheduler.Tick(ctx, false)
		l.mu.Lock()
		l.lastErr = err
		l.mu.Unlock()
		switch {
		case err == nil, errors.Is(err, context.Canceled):
		case errors.Is(err, ErrTickInFlight):
			logger.Debug("periodic tick skipped; manual tick in progress")
		default:
			logging.WarnWithContext(logger, "periodic tick failed", "tick_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check database health with seopilot status"),
				logging.String(logging.FieldImpact, "batch progress resumes on the next interval"),
			)
		}
	}
}

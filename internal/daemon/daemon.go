package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"seopilot/internal/config"
	"seopilot/internal/logging"
	"seopilot/internal/preflight"
	"seopilot/internal/scheduler"
)

// Daemon runs the periodic tick loop and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	db     preflight.Database
	loop   *scheduler.Loop

	lockPath string
	pidPath  string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DatabasePath string
	LockFilePath string
	LastTickErr  error
}

// New constructs a daemon around an already wired scheduler. db may be nil
// to skip the database checks at startup.
func New(cfg *config.Config, sched *scheduler.Scheduler, db preflight.Database, logger *slog.Logger, interval time.Duration) (*Daemon, error) {
	if cfg == nil || sched == nil {
		return nil, errors.New("daemon requires config and scheduler")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if interval <= 0 {
		interval = time.Duration(cfg.Batch.IntervalSeconds) * time.Second
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		db:       db,
		loop:     scheduler.NewLoop(sched, interval),
		lockPath: lockPath,
		pidPath:  cfg.PIDPath(),
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, writes the pid file, and starts ticking.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another seopilot daemon instance is already running")
	}

	if err := WritePID(d.pidPath, os.Getpid()); err != nil {
		_ = d.lock.Unlock()
		return err
	}

	d.runPreflight(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.loop.Start(runCtx); err != nil {
		cancel()
		_ = os.Remove(d.pidPath)
		_ = d.lock.Unlock()
		return fmt.Errorf("start tick loop: %w", err)
	}
	d.cancel = cancel

	d.running.Store(true)
	d.logger.Info("seopilot daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("pid", os.Getpid()),
	)
	return nil
}

func (d *Daemon) runPreflight(ctx context.Context) {
	for _, result := range preflight.Failed(preflight.RunAll(ctx, d.cfg, d.db)) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run seopilot status for the full report"),
			logging.String(logging.FieldImpact, "ticks may skip records until resolved"),
		)
	}
}

// Stop stops the tick loop and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.loop.Stop()
	if err := os.Remove(d.pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		d.logger.Warn("failed to remove pid file", logging.Error(err))
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("seopilot daemon stopped")
}

// Run starts the daemon and blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	d.Stop()
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	status := Status{
		Running:      d.running.Load(),
		DatabasePath: d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
		LastTickErr:  d.loop.LastError(),
	}
	if status.Running {
		status.PID = os.Getpid()
	}
	return status
}

// WritePID records pid at path.
func WritePID(path string, pid int) error {
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	return nil
}

// ReadPID returns the pid stored at path, or 0 when the file is absent.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read pid file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pid file: %w", err)
	}
	return pid, nil
}

// ProcessAlive reports whether a process with pid exists.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// RunningPID returns the pid of a live daemon for cfg, or 0.
func RunningPID(cfg *config.Config) int {
	pid, err := ReadPID(cfg.PIDPath())
	if err != nil || !ProcessAlive(pid) {
		return 0
	}
	return pid
}

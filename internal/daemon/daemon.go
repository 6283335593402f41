package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"amp/internal/config"
	"amp/internal/coordinator"
	"amp/internal/logging"
	"amp/internal/store"
)

// Daemon owns the long-running page-side process: the coordinator and the
// single-instance lock. The IPC server fronts it; the CLI talks to that.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store
	coord  *coordinator.Coordinator

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	StateDBPath  string
	LockFilePath string
	Coordinator  coordinator.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, coord *coordinator.Coordinator, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || coord == nil {
		return nil, errors.New("daemon requires config, store, and coordinator")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "ampd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		coord:    coord,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the single-instance lock and launches the coordinator.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another amp daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.coord.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start coordinator: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("amp daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops the coordinator and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.coord.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("amp daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Coordinator exposes the message endpoints to the IPC layer.
func (d *Daemon) Coordinator() *coordinator.Coordinator {
	return d.coord
}

// Running reports whether the daemon has been started.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Status assembles runtime information for the control surface.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		StateDBPath:  d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
		Coordinator:  d.coord.CurrentStatus(ctx),
	}
}

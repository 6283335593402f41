package daemon_test

import (
	"context"
	"testing"

	"amp/internal/config"
	"amp/internal/coordinator"
	"amp/internal/daemon"
	"amp/internal/engine"
	"amp/internal/entitlement"
	"amp/internal/logging"
	"amp/internal/media"
	"amp/internal/store"
	"amp/internal/testsupport"
)

func newDaemon(t *testing.T, cfg *config.Config) (*daemon.Daemon, *store.Store) {
	t.Helper()

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	st := testsupport.MustOpenStore(t, cfg)
	eng := engine.New(cfg.Engine, logging.NewNop())
	t.Cleanup(eng.Close)
	resolver := entitlement.NewResolver(st, logging.NewNop())
	provider := media.NewDirectoryProvider(cfg.Paths.MediaDir)
	coord := coordinator.New(cfg, st, eng, resolver, provider, nil, logging.NewNop())

	d, err := daemon.New(cfg, st, coord, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d, st
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, _ := newDaemon(t, cfg)

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !d.Running() {
		t.Fatal("daemon should report running")
	}

	status := d.Status(ctx)
	if !status.Running || status.PID == 0 {
		t.Fatalf("status = %+v", status)
	}
	if status.StateDBPath != cfg.DatabasePath() {
		t.Fatalf("state db path = %q, want %q", status.StateDBPath, cfg.DatabasePath())
	}

	d.Stop()
	if d.Running() {
		t.Fatal("daemon should report stopped")
	}
}

func TestDaemonSecondInstanceRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, _ := newDaemon(t, cfg)

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer first.Stop()

	second, _ := newDaemon(t, cfg)
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("second instance should fail to acquire the lock")
	}
}

func TestDaemonDoubleStartRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, _ := newDaemon(t, cfg)

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	if err := d.Start(ctx); err == nil {
		t.Fatal("double start should be rejected")
	}
}

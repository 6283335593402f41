package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"amp/internal/config"
	"amp/internal/coordinator"
	"amp/internal/daemon"
	"amp/internal/engine"
	"amp/internal/entitlement"
	"amp/internal/ipc"
	"amp/internal/logging"
	"amp/internal/notifications"
	"amp/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewForDir(cfg.Paths.LogDir, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open state store", logging.Error(err))
		return
	}

	d, err := buildDaemon(cfg, st, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		_ = st.Close()
		return
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		return
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("ampd shutting down")
}

func buildDaemon(cfg *config.Config, st *store.Store, logger *slog.Logger) (*daemon.Daemon, error) {
	eng := engine.New(cfg.Engine, logger)
	resolver := entitlement.NewResolver(st, logger)
	notifier := notifications.NewService(cfg)
	provider := newProvider(cfg)
	coord := coordinator.New(cfg, st, eng, resolver, provider, notifier, logger)
	return daemon.New(cfg, st, coord, logger)
}

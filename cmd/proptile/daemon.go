package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/proptile/internal/config"
	"github.com/1broseidon/proptile/internal/grid"
	"github.com/1broseidon/proptile/internal/ipc"
	"github.com/1broseidon/proptile/internal/layoutstore"
	"github.com/1broseidon/proptile/internal/manager"
	"github.com/1broseidon/proptile/internal/platform"
)

func runDaemon() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, logClose, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer logClose()
	slog.SetDefault(logger)

	backend, err := platform.NewX11Backend()
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer backend.Close()
	go backend.EventLoop()

	logger.Info("proptile daemon starting",
		"mode", cfg.Mode,
		"divisions", cfg.Divisions,
		"poll_interval", cfg.PollInterval())

	mgr := manager.New(backend, managerConfig(cfg, logger))

	store, err := layoutstore.Default()
	if err != nil {
		log.Fatalf("Failed to open layout store: %v", err)
	}

	reloadChan := make(chan struct{}, 1)
	ipcServer, err := ipc.NewServer(mgr, store, reloadChan, logger)
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer ipcServer.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		for {
			select {
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGHUP:
					logger.Info("received SIGHUP, reloading config")
					reloadConfig(mgr, logger)
				case os.Interrupt, syscall.SIGTERM:
					logger.Info("shutting down proptile daemon")
					cancel()
					return
				}
			case <-reloadChan:
				logger.Info("config reload requested via IPC")
				reloadConfig(mgr, logger)
			case <-ctx.Done():
				return
			}
		}
	}()

	mgr.Run(ctx)
}

// reloadConfig re-reads the config file and pushes the new tuning into the
// manager. A broken file keeps the previous configuration.
func reloadConfig(mgr *manager.Manager, logger *slog.Logger) {
	newCfg, err := config.Load()
	if err != nil {
		logger.Error("config reload failed", "error", err)
		return
	}
	mgr.UpdateConfig(managerConfig(newCfg, logger))
	logger.Info("config reloaded")
}

func managerConfig(cfg *config.Config, logger *slog.Logger) manager.Config {
	modes := make(map[string]grid.Mode)
	divisions := make(map[string]int)
	for name, mc := range cfg.Monitors {
		if mc.Mode != "" {
			modes[name] = grid.Mode(mc.Mode)
		}
		if mc.Divisions > 0 {
			divisions[name] = mc.Divisions
		}
	}
	return manager.Config{
		Mode:             grid.Mode(cfg.Mode),
		Divisions:        cfg.Divisions,
		EdgeTolerancePx:  cfg.EdgeTolerancePx,
		NoiseThresholdPx: cfg.NoiseThresholdPx,
		DragThresholdPx:  cfg.DragThresholdPx,
		MinProportion:    cfg.MinProportion,
		PollInterval:     cfg.PollInterval(),
		LivenessInterval: cfg.LivenessInterval(),
		Logger:           logger,
		MonitorModes:     modes,
		MonitorDivisions: divisions,
	}
}

// newLogger builds the daemon logger from the configured level and optional
// log file. The returned close function is a no-op when logging to stderr.
func newLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	out := os.Stderr
	closeFn := func() {}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, err
		}
		out = f
		closeFn = func() { f.Close() }
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	return slog.New(handler), closeFn, nil
}

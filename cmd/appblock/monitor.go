package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_block/internal/config"
	"github.com/eliteGoblin/focusd/app_block/internal/daemon"
	"github.com/eliteGoblin/focusd/app_block/internal/domain"
	"github.com/eliteGoblin/focusd/app_block/internal/infra"
	"github.com/eliteGoblin/focusd/app_block/internal/metrics"
	"github.com/eliteGoblin/focusd/app_block/internal/policy"
	"github.com/eliteGoblin/focusd/app_block/internal/usecase"
)

// monitor bundles the wired controller with what must be closed after it.
type monitor struct {
	controller *daemon.Controller
	settings   domain.SettingsStore
}

func (m *monitor) close() {
	_ = m.settings.Close()
}

// buildMonitor wires frontmost provider -> journal -> observer -> loop.
func buildMonitor(cfg *config.Config, logger *zap.Logger) (*monitor, error) {
	registry, err := policy.NewRegistryFromConfig(cfg.Monitor.Policies, cfg.Monitor.Targets)
	if err != nil {
		return nil, err
	}
	targets := registry.TargetSet()

	settings, err := infra.OpenSettings(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	journal := infra.NewFocusJournal(
		infra.NewFrontmostProvider(logger),
		2*cfg.Monitor.ObservationWindow,
		logger,
	)
	observer := usecase.NewActivityObserver(journal, cfg.Monitor.ObservationWindow)
	gate := usecase.NewInterventionGate()

	notice := infra.Notice{Title: cfg.Notice.Title, Message: cfg.Notice.Message, Button: cfg.Notice.Button}
	var presenter domain.InterventionPresenter
	if cfg.Notice.Surface == config.SurfaceLog {
		presenter = infra.NewLogPresenter(notice, logger)
	} else {
		presenter = infra.NewDialogPresenter(notice, logger)
	}

	newLoop := func() daemon.TickRunner {
		return usecase.NewMonitorLoop(targets, observer, gate, presenter, cfg.Monitor.Cooldown, logger)
	}

	controller := daemon.NewController(
		daemon.WatcherConfig{PollInterval: cfg.Monitor.PollInterval},
		settings,
		newLoop,
		presenter,
		infra.NewDesktopNotifier(logger),
		logger,
	).WithBackground(func(ctx context.Context) {
		journal.Run(ctx, cfg.Monitor.PollInterval)
	})

	logger.Info("monitor configured",
		zap.Strings("policies", registry.List()),
		zap.Int("targets", targets.Len()),
		zap.Duration("cooldown", cfg.Monitor.Cooldown),
		zap.Duration("window", cfg.Monitor.ObservationWindow))

	return &monitor{controller: controller, settings: settings}, nil
}

// serveMetrics exposes Prometheus metrics on addr; a no-op when addr is empty.
func serveMetrics(ctx context.Context, addr string, logger *zap.Logger) func() {
	if addr == "" {
		return func() {}
	}
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Warn("failed to register metrics", zap.Error(err))
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("metrics server listening", zap.String("addr", addr))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}

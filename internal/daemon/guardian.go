package daemon

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

// GuardianConfig holds daemon housekeeping configuration.
type GuardianConfig struct {
	HeartbeatInterval      time.Duration // How often to update heartbeat
	AutostartCheckInterval time.Duration // How often to check the login entry
}

// DefaultGuardianConfig returns default guardian configuration.
func DefaultGuardianConfig() GuardianConfig {
	return GuardianConfig{
		HeartbeatInterval:      30 * time.Second,
		AutostartCheckInterval: 60 * time.Second,
	}
}

// Guardian is the daemon's outer loop: it registers the process,
// forwards restart signals to the controller, heartbeats and keeps the
// autostart entry in place.
type Guardian struct {
	config     GuardianConfig
	controller domain.MonitorController
	registry   domain.DaemonRegistry
	autostart  domain.AutostartManager
	execPath   string
	restarts   <-chan os.Signal
	daemon     domain.Daemon
	logger     *zap.Logger
}

// NewGuardian creates a guardian. autostart may be nil; restarts carries
// the replace signal (SIGHUP).
func NewGuardian(
	config GuardianConfig,
	controller domain.MonitorController,
	registry domain.DaemonRegistry,
	autostart domain.AutostartManager,
	execPath string,
	restarts <-chan os.Signal,
	daemon domain.Daemon,
	logger *zap.Logger,
) *Guardian {
	return &Guardian{
		config:     config,
		controller: controller,
		registry:   registry,
		autostart:  autostart,
		execPath:   execPath,
		restarts:   restarts,
		daemon:     daemon,
		logger:     logger,
	}
}

// Run blocks until ctx is canceled, or returns nil right away when the
// persisted toggle is off at boot.
func (g *Guardian) Run(ctx context.Context) error {
	if err := g.registry.Register(g.daemon); err != nil {
		g.logger.Error("failed to register daemon", zap.Error(err))
		return err
	}
	defer g.unregister()

	g.logger.Info("daemon started",
		zap.Int("pid", g.daemon.PID),
		zap.String("version", g.daemon.AppVersion))

	res, err := g.controller.HandleRestart(ctx, domain.RestartBoot)
	if err != nil {
		return err
	}
	if res == domain.StartResultDisabled {
		g.logger.Info("monitoring disabled, daemon exiting")
		return nil
	}

	g.ensureAutostart()

	heartbeatTicker := time.NewTicker(g.config.HeartbeatInterval)
	autostartTicker := time.NewTicker(g.config.AutostartCheckInterval)
	defer func() {
		heartbeatTicker.Stop()
		autostartTicker.Stop()
	}()

	for {
		select {
		case <-ctx.Done():
			g.logger.Info("daemon stopping")
			if err := g.controller.Stop(); err != nil {
				g.logger.Warn("failed to stop monitor cleanly", zap.Error(err))
			}
			return ctx.Err()

		case sig := <-g.restarts:
			g.logger.Info("restart signal received", zap.Stringer("signal", sig))
			_, _ = g.controller.HandleRestart(ctx, domain.RestartReplaced)

		case <-heartbeatTicker.C:
			if err := g.registry.UpdateHeartbeat(); err != nil {
				g.logger.Warn("failed to update heartbeat", zap.Error(err))
			}

		case <-autostartTicker.C:
			g.ensureAutostart()
		}
	}
}

// unregister clears the registry if it still points at this process.
func (g *Guardian) unregister() {
	entry, err := g.registry.Get()
	if err != nil || entry == nil || entry.PID != g.daemon.PID {
		return
	}
	if err := g.registry.Clear(); err != nil {
		g.logger.Warn("failed to clear registry", zap.Error(err))
	}
}

// ensureAutostart restores a deleted or outdated login entry.
func (g *Guardian) ensureAutostart() {
	if g.autostart == nil || g.execPath == "" {
		return
	}

	if !g.autostart.IsInstalled() {
		g.logger.Info("autostart entry missing, restoring", zap.String("path", g.autostart.GetPath()))
		if err := g.autostart.Install(g.execPath); err != nil {
			g.logger.Error("failed to restore autostart entry", zap.Error(err))
		}
		return
	}
	if g.autostart.NeedsUpdate(g.execPath) {
		g.logger.Info("autostart entry outdated, updating")
		if err := g.autostart.Update(g.execPath); err != nil {
			g.logger.Error("failed to update autostart entry", zap.Error(err))
		}
	}
}

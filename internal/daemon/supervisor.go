package daemon

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

// Supervisor is the CLI side of the lifecycle: it flips the persisted
// toggle and starts, signals or stops the daemon process to match.
type Supervisor struct {
	settings       domain.SettingsStore
	registry       domain.DaemonRegistry
	processManager domain.ProcessManager
	spawn          func() error
	logger         *zap.Logger
}

// NewSupervisor creates a supervisor. spawn starts a detached daemon.
func NewSupervisor(
	settings domain.SettingsStore,
	registry domain.DaemonRegistry,
	pm domain.ProcessManager,
	spawn func() error,
	logger *zap.Logger,
) *Supervisor {
	return &Supervisor{
		settings:       settings,
		registry:       registry,
		processManager: pm,
		spawn:          spawn,
		logger:         logger,
	}
}

// Enable persists true and makes sure a daemon picks it up.
func (s *Supervisor) Enable() (domain.StartResult, error) {
	if err := s.settings.SetMonitoringEnabled(true); err != nil {
		return 0, fmt.Errorf("failed to enable monitoring: %w", err)
	}

	if pid, ok := s.livePID(); ok {
		// A disabled daemon exits on its own, so a live one is either
		// running or about to re-read the toggle.
		if err := s.processManager.Hangup(pid); err != nil {
			return 0, fmt.Errorf("failed to signal daemon %d: %w", pid, err)
		}
		return domain.StartResultAlreadyRunning, nil
	}

	if err := s.spawn(); err != nil {
		return 0, fmt.Errorf("failed to start daemon: %w", err)
	}
	return domain.StartResultStarted, nil
}

// Disable persists false and terminates the daemon.
func (s *Supervisor) Disable() error {
	if err := s.settings.SetMonitoringEnabled(false); err != nil {
		return fmt.Errorf("failed to disable monitoring: %w", err)
	}

	pid, ok := s.livePID()
	if !ok {
		return nil
	}
	if err := s.processManager.Terminate(pid); err != nil {
		return fmt.Errorf("failed to stop daemon %d: %w", pid, err)
	}
	s.logger.Info("daemon stopped", zap.Int("pid", pid))
	return nil
}

// Boot is the restart trigger: it starts a daemon only when the toggle
// is on and none is alive.
func (s *Supervisor) Boot() (domain.StartResult, error) {
	enabled, err := s.settings.MonitoringEnabled()
	if err != nil {
		return 0, fmt.Errorf("failed to read monitoring state: %w", err)
	}
	if !enabled {
		return domain.StartResultDisabled, nil
	}
	if _, ok := s.livePID(); ok {
		return domain.StartResultAlreadyRunning, nil
	}
	if err := s.spawn(); err != nil {
		return 0, fmt.Errorf("failed to start daemon: %w", err)
	}
	return domain.StartResultStarted, nil
}

// livePID returns the registered daemon PID if that process is alive.
func (s *Supervisor) livePID() (int, bool) {
	alive, err := s.registry.IsAlive()
	if err != nil {
		s.logger.Warn("failed to read daemon registry", zap.Error(err))
		return 0, false
	}
	if !alive {
		return 0, false
	}
	entry, err := s.registry.Get()
	if err != nil || entry == nil {
		return 0, false
	}
	return entry.PID, true
}

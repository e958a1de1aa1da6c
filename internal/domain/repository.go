package domain

import (
	"context"
	"time"
)

// ProcessManager handles OS process operations.
// Implementation: uses gopsutil for cross-platform support.
type ProcessManager interface {
	// FindByName returns PIDs of processes matching the pattern.
	FindByName(pattern string) ([]int, error)

	// NameOf returns the executable name of a PID.
	NameOf(pid int) (string, error)

	// Terminate asks a process to exit (SIGTERM).
	Terminate(pid int) error

	// Hangup sends SIGHUP, the daemon's restart signal.
	Hangup(pid int) error

	// IsRunning checks if a PID exists and is running.
	IsRunning(pid int) bool

	// GetCurrentPID returns the current process PID.
	GetCurrentPID() int
}

// FrontmostProvider reports the application that currently has focus.
// An empty ApplicationID with a nil error means nothing is focused.
type FrontmostProvider interface {
	Frontmost(ctx context.Context) (ApplicationID, error)
}

// ForegroundEventSource is the host capability that lists foreground
// transitions in a time range, oldest first.
type ForegroundEventSource interface {
	QueryForegroundEvents(ctx context.Context, begin, end time.Time) ([]ForegroundEvent, error)
}

// ActivityObserver samples the most recent foreground application.
type ActivityObserver interface {
	// Sample returns the app of the last move-to-foreground event in the
	// trailing window ending at now. ok is false when there was none.
	// Host failures wrap ErrObservationUnavailable.
	Sample(ctx context.Context, now time.Time) (app ApplicationID, ok bool, err error)
}

// InterventionGate guarantees at most one intervention surface at a time.
type InterventionGate interface {
	// RequestShow atomically claims the gate.
	RequestShow() ShowResult

	// Release frees the gate. Safe to call when already free.
	Release()

	// Active reports whether a surface currently holds the gate.
	Active() bool
}

// InterventionPresenter is the blocking surface.
type InterventionPresenter interface {
	// Present shows the blocking notice for app. dismissed is called exactly
	// once when the surface goes away for any reason. If Present returns an
	// error, dismissed is never called.
	Present(ctx context.Context, app ApplicationID, dismissed func()) error

	// Dismiss tears down any showing surface. Safe when nothing is shown.
	Dismiss() error
}

// Notifier posts a non-blocking status notification.
type Notifier interface {
	Notify(title, message string) error
}

// SettingsStore persists the monitoring toggle.
// Implementation: SQLCipher encrypted SQLite database.
type SettingsStore interface {
	// MonitoringEnabled returns the persisted toggle (false when unset).
	MonitoringEnabled() (bool, error)

	// SetMonitoringEnabled persists the toggle.
	SetMonitoringEnabled(enabled bool) error

	// Close releases resources (e.g., database connection).
	Close() error
}

// MonitorController is the lifecycle surface of the monitor.
type MonitorController interface {
	// Start reads the persisted toggle once and schedules ticking if it is on.
	Start(ctx context.Context) (StartResult, error)

	// Stop cancels ticking. Idempotent.
	Stop() error

	// IsRunning reports whether ticks are scheduled.
	IsRunning() bool

	// HandleRestart re-arms the monitor after a boot or replace signal.
	HandleRestart(ctx context.Context, reason RestartReason) (StartResult, error)
}

// DaemonRegistry provides daemon discovery and registration.
// Implementation: hidden JSON file guarded by flock.
type DaemonRegistry interface {
	// Register saves the daemon's PID.
	Register(daemon Daemon) error

	// UpdateHeartbeat updates timestamp for liveness check.
	UpdateHeartbeat() error

	// IsAlive checks if the registered daemon is running via PID.
	IsAlive() (bool, error)

	// Get returns the registry state, nil when nothing is registered.
	Get() (*RegistryEntry, error)

	// Clear removes the registry file.
	Clear() error

	// GetRegistryPath returns the registry file path (for tests).
	GetRegistryPath() string
}

// AutostartManager installs the login hook that fires the restart trigger.
type AutostartManager interface {
	// Install writes and loads the autostart entry.
	Install(execPath string) error

	// Uninstall removes the autostart entry.
	Uninstall() error

	// IsInstalled checks if the entry exists.
	IsInstalled() bool

	// NeedsUpdate checks if the entry exists but has different content than expected.
	NeedsUpdate(execPath string) bool

	// Update rewrites the entry.
	Update(execPath string) error

	// GetPath returns the entry file path.
	GetPath() string
}

// KeyProvider abstracts the source of encryption keys.
type KeyProvider interface {
	// GetKey returns the encryption key bytes.
	GetKey() ([]byte, error)

	// StoreKey persists a new encryption key.
	StoreKey(key []byte) error

	// KeyExists checks if a key has been generated.
	KeyExists() bool
}

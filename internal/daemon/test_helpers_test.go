package daemon

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

var errDiskFull = errors.New("disk full")

// mockSettings is an in-memory SettingsStore with injectable failures.
type mockSettings struct {
	mu       sync.Mutex
	enabled  bool
	readErr  error
	writeErr error
	reads    int
}

func (m *mockSettings) MonitoringEnabled() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.readErr != nil {
		return false, m.readErr
	}
	return m.enabled, nil
}

func (m *mockSettings) SetMonitoringEnabled(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.enabled = enabled
	return nil
}

func (m *mockSettings) Close() error { return nil }

// countingLoop counts ticks and can block inside one.
type countingLoop struct {
	ticks  atomic.Int32
	result domain.TickResult
	block  chan struct{}
}

func (l *countingLoop) Tick(ctx context.Context, now time.Time) domain.TickResult {
	l.ticks.Add(1)
	if l.block != nil {
		<-l.block
	}
	res := l.result
	res.At = now
	return res
}

// mockPresenter counts Dismiss calls.
type mockPresenter struct {
	dismisses atomic.Int32
}

func (p *mockPresenter) Present(ctx context.Context, app domain.ApplicationID, dismissed func()) error {
	dismissed()
	return nil
}

func (p *mockPresenter) Dismiss() error {
	p.dismisses.Add(1)
	return nil
}

// mockNotifier records notifications.
type mockNotifier struct {
	mu     sync.Mutex
	titles []string
	err    error
}

func (n *mockNotifier) Notify(title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
	return n.err
}

// mockProcessManager is a test double for ProcessManager
type mockProcessManager struct {
	mu         sync.Mutex
	running    map[int]bool
	terminated []int
	hungUp     []int
}

func newMockProcessManager() *mockProcessManager {
	return &mockProcessManager{running: make(map[int]bool)}
}

func (m *mockProcessManager) FindByName(string) ([]int, error) { return nil, nil }
func (m *mockProcessManager) NameOf(int) (string, error)       { return "appblock", nil }
func (m *mockProcessManager) GetCurrentPID() int               { return os.Getpid() }

func (m *mockProcessManager) Terminate(pid int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.terminated = append(m.terminated, pid)
	delete(m.running, pid)
	return nil
}

func (m *mockProcessManager) Hangup(pid int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hungUp = append(m.hungUp, pid)
	return nil
}

func (m *mockProcessManager) IsRunning(pid int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running[pid]
}

// mockDaemonRegistry is a test double for domain.DaemonRegistry
type mockDaemonRegistry struct {
	mu         sync.Mutex
	entry      *domain.RegistryEntry
	pm         *mockProcessManager
	heartbeats int
	cleared    bool
}

func newMockDaemonRegistry(pm *mockProcessManager) *mockDaemonRegistry {
	return &mockDaemonRegistry{pm: pm}
}

func (m *mockDaemonRegistry) Register(d domain.Daemon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry = &domain.RegistryEntry{Version: 1, PID: d.PID, StartedAt: d.StartedAt.Unix(), AppVersion: d.AppVersion}
	return nil
}

func (m *mockDaemonRegistry) UpdateHeartbeat() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.heartbeats++
	return nil
}

func (m *mockDaemonRegistry) IsAlive() (bool, error) {
	m.mu.Lock()
	entry := m.entry
	m.mu.Unlock()
	if entry == nil {
		return false, nil
	}
	return m.pm.IsRunning(entry.PID), nil
}

func (m *mockDaemonRegistry) Get() (*domain.RegistryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entry == nil {
		return nil, nil
	}
	e := *m.entry
	return &e, nil
}

func (m *mockDaemonRegistry) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry = nil
	m.cleared = true
	return nil
}

func (m *mockDaemonRegistry) GetRegistryPath() string { return "/tmp/mock-registry" }

// mockAutostart is a test double for domain.AutostartManager.
type mockAutostart struct {
	mu        sync.Mutex
	installed bool
	stale     bool
	installs  int
	updates   int
}

func (m *mockAutostart) Install(string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installed = true
	m.installs++
	return nil
}

func (m *mockAutostart) Uninstall() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installed = false
	return nil
}

func (m *mockAutostart) IsInstalled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.installed
}

func (m *mockAutostart) NeedsUpdate(string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.installed && m.stale
}

func (m *mockAutostart) Update(string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stale = false
	m.updates++
	return nil
}

func (m *mockAutostart) GetPath() string { return "/tmp/mock-autostart" }

package infra

import (
	"context"
	"os"
	"sync"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

// mockProcessManager is a test double for ProcessManager
type mockProcessManager struct {
	runningPIDs    map[int]bool
	terminatedPIDs []int
}

func newMockProcessManager() *mockProcessManager {
	return &mockProcessManager{runningPIDs: make(map[int]bool)}
}

func (m *mockProcessManager) FindByName(pattern string) ([]int, error) { return nil, nil }

func (m *mockProcessManager) NameOf(pid int) (string, error) { return "appblock", nil }

func (m *mockProcessManager) Terminate(pid int) error {
	m.terminatedPIDs = append(m.terminatedPIDs, pid)
	delete(m.runningPIDs, pid)
	return nil
}

func (m *mockProcessManager) Hangup(pid int) error { return nil }

func (m *mockProcessManager) IsRunning(pid int) bool { return m.runningPIDs[pid] }

func (m *mockProcessManager) GetCurrentPID() int { return os.Getpid() }

func (m *mockProcessManager) SetRunning(pid int, running bool) {
	m.runningPIDs[pid] = running
}

// scriptedFrontmost returns queued answers, repeating the last one.
type scriptedFrontmost struct {
	mu      sync.Mutex
	answers []frontmostAnswer
	calls   int
}

type frontmostAnswer struct {
	app domain.ApplicationID
	err error
}

func (f *scriptedFrontmost) push(app string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, frontmostAnswer{app: domain.ApplicationID(app), err: err})
}

func (f *scriptedFrontmost) Frontmost(ctx context.Context) (domain.ApplicationID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.answers) == 0 {
		return "", nil
	}
	i := f.calls
	if i >= len(f.answers) {
		i = len(f.answers) - 1
	}
	f.calls++
	return f.answers[i].app, f.answers[i].err
}

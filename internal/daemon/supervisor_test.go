package daemon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

type supervisorFixture struct {
	sup      *Supervisor
	settings *mockSettings
	registry *mockDaemonRegistry
	pm       *mockProcessManager
	spawns   int
	spawnErr error
}

func newSupervisorFixture(enabled bool) *supervisorFixture {
	f := &supervisorFixture{settings: &mockSettings{enabled: enabled}, pm: newMockProcessManager()}
	f.registry = newMockDaemonRegistry(f.pm)
	f.sup = NewSupervisor(f.settings, f.registry, f.pm, func() error {
		f.spawns++
		return f.spawnErr
	}, zap.NewNop())
	return f
}

func (f *supervisorFixture) liveDaemon(pid int) {
	_ = f.registry.Register(domain.Daemon{PID: pid, StartedAt: time.Now()})
	f.pm.running[pid] = true
}

func TestSupervisor_Boot(t *testing.T) {
	tests := []struct {
		name       string
		enabled    bool
		alive      bool
		want       domain.StartResult
		wantSpawns int
	}{
		{name: "disabled", enabled: false, want: domain.StartResultDisabled},
		{name: "enabled, no daemon", enabled: true, want: domain.StartResultStarted, wantSpawns: 1},
		{name: "enabled, daemon alive", enabled: true, alive: true, want: domain.StartResultAlreadyRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSupervisorFixture(tt.enabled)
			if tt.alive {
				f.liveDaemon(100)
			}

			res, err := f.sup.Boot()
			require.NoError(t, err)
			assert.Equal(t, tt.want, res)
			assert.Equal(t, tt.wantSpawns, f.spawns)
		})
	}
}

func TestSupervisor_BootIgnoresDeadRegistration(t *testing.T) {
	f := newSupervisorFixture(true)
	_ = f.registry.Register(domain.Daemon{PID: 100, StartedAt: time.Now()})

	res, err := f.sup.Boot()
	require.NoError(t, err)
	assert.Equal(t, domain.StartResultStarted, res)
	assert.Equal(t, 1, f.spawns)
}

func TestSupervisor_EnableSpawnsOrSignals(t *testing.T) {
	f := newSupervisorFixture(false)

	res, err := f.sup.Enable()
	require.NoError(t, err)
	assert.Equal(t, domain.StartResultStarted, res)
	assert.True(t, f.settings.enabled)
	assert.Equal(t, 1, f.spawns)

	f.liveDaemon(200)
	res, err = f.sup.Enable()
	require.NoError(t, err)
	assert.Equal(t, domain.StartResultAlreadyRunning, res)
	assert.Equal(t, 1, f.spawns, "no second daemon")
	assert.Equal(t, []int{200}, f.pm.hungUp)
}

func TestSupervisor_EnableWriteFailure(t *testing.T) {
	f := newSupervisorFixture(false)
	f.settings.writeErr = errDiskFull

	_, err := f.sup.Enable()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errDiskFull))
	assert.Equal(t, 0, f.spawns)
}

func TestSupervisor_Disable(t *testing.T) {
	f := newSupervisorFixture(true)
	f.liveDaemon(300)

	require.NoError(t, f.sup.Disable())
	assert.False(t, f.settings.enabled)
	assert.Equal(t, []int{300}, f.pm.terminated)

	require.NoError(t, f.sup.Disable(), "nothing running is fine")
	assert.Equal(t, []int{300}, f.pm.terminated)
}

func TestSupervisor_DisableWriteFailureLeavesDaemon(t *testing.T) {
	f := newSupervisorFixture(true)
	f.liveDaemon(300)
	f.settings.writeErr = errDiskFull

	require.Error(t, f.sup.Disable())
	assert.Empty(t, f.pm.terminated)
	assert.True(t, f.pm.IsRunning(300))
}

func TestSupervisor_SeesForegroundRunner(t *testing.T) {
	f := newSupervisorFixture(true)
	f.pm.running[4343] = true

	// A foreground run: guardian with the shared registry, no autostart.
	ctrl := NewController(WatcherConfig{PollInterval: 5 * time.Millisecond}, f.settings,
		func() TickRunner { return &countingLoop{} }, &mockPresenter{}, nil, zap.NewNop())
	guardian := NewGuardian(DefaultGuardianConfig(), ctrl, f.registry, nil, "", nil,
		domain.Daemon{PID: 4343, StartedAt: time.Now()}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- guardian.Run(ctx) }()
	require.Eventually(t, ctrl.IsRunning, time.Second, time.Millisecond)

	res, err := f.sup.Boot()
	require.NoError(t, err)
	assert.Equal(t, domain.StartResultAlreadyRunning, res)

	res, err = f.sup.Enable()
	require.NoError(t, err)
	assert.Equal(t, domain.StartResultAlreadyRunning, res)
	assert.Equal(t, 0, f.spawns, "no second monitor beside the foreground one")
	assert.Equal(t, []int{4343}, f.pm.hungUp)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.True(t, f.registry.cleared)
}

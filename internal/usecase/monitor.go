// Package usecase contains application business logic.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

// DefaultCooldown is the minimum time between two shown interventions.
const DefaultCooldown = 5 * time.Second

// MonitorLoop is the polling/debounce/trigger state machine.
// Tick must only be called from one goroutine at a time; the debounce
// state is not locked.
type MonitorLoop struct {
	targets   domain.TargetSet
	observer  domain.ActivityObserver
	gate      domain.InterventionGate
	presenter domain.InterventionPresenter
	cooldown  time.Duration
	logger    *zap.Logger

	lastObservedApp    domain.ApplicationID
	hasObserved        bool
	lastInterventionAt time.Time
	hasIntervened      bool
}

// NewMonitorLoop creates a loop with fresh debounce state.
func NewMonitorLoop(
	targets domain.TargetSet,
	observer domain.ActivityObserver,
	gate domain.InterventionGate,
	presenter domain.InterventionPresenter,
	cooldown time.Duration,
	logger *zap.Logger,
) *MonitorLoop {
	if cooldown < 0 {
		cooldown = 0
	}
	return &MonitorLoop{
		targets:   targets,
		observer:  observer,
		gate:      gate,
		presenter: presenter,
		cooldown:  cooldown,
		logger:    logger,
	}
}

// LastObserved returns the app seen by the last sampling tick.
func (m *MonitorLoop) LastObserved() (domain.ApplicationID, bool) {
	return m.lastObservedApp, m.hasObserved
}

// LastInterventionAt returns when the last intervention was shown.
func (m *MonitorLoop) LastInterventionAt() (time.Time, bool) {
	return m.lastInterventionAt, m.hasIntervened
}

// Tick runs one poll at the given instant.
func (m *MonitorLoop) Tick(ctx context.Context, now time.Time) domain.TickResult {
	result := domain.TickResult{At: now}

	// Cooldown short-circuits before sampling, so lastObservedApp is not
	// refreshed while it runs.
	if m.hasIntervened && now.Sub(m.lastInterventionAt) < m.cooldown {
		result.CooldownSkip = true
		return result
	}

	app, ok, err := m.observer.Sample(ctx, now)
	if err != nil {
		result.Err = err
		result.Degraded = errors.Is(err, domain.ErrObservationUnavailable)
		ok = false
	}
	if !ok {
		return result
	}

	result.Observed = app
	result.HasObservation = true

	if m.hasObserved && app == m.lastObservedApp {
		return result
	}
	if !m.targets.Contains(app) {
		m.observe(app)
		return result
	}

	result.Transition = true
	m.intervene(ctx, now, app, &result)
	m.observe(app)
	return result
}

// intervene claims the gate and presents the surface.
func (m *MonitorLoop) intervene(ctx context.Context, now time.Time, app domain.ApplicationID, result *domain.TickResult) {
	if m.gate.RequestShow() == domain.ShowResultSuppressed {
		m.logger.Debug("intervention suppressed, surface already showing",
			zap.String("app", string(app)))
		result.Suppressed = true
		return
	}

	m.logger.Info("blocking app", zap.String("app", string(app)))

	if err := m.presenter.Present(ctx, app, m.gate.Release); err != nil {
		m.gate.Release()
		result.Err = fmt.Errorf("%w: %v", domain.ErrInterventionPresentation, err)
		return
	}

	m.lastInterventionAt = now
	m.hasIntervened = true
	result.Intervened = true
}

func (m *MonitorLoop) observe(app domain.ApplicationID) {
	m.lastObservedApp = app
	m.hasObserved = true
}

// Package daemon runs the monitor loop as a long-lived process.
package daemon

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
	"github.com/eliteGoblin/focusd/app_block/internal/metrics"
)

// TickRunner is the monitor state machine driven by the Watcher.
type TickRunner interface {
	Tick(ctx context.Context, now time.Time) domain.TickResult
}

// WatcherConfig holds scheduler configuration.
type WatcherConfig struct {
	PollInterval time.Duration // How often to tick (default 1s)
}

// DefaultWatcherConfig returns default watcher configuration.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{PollInterval: time.Second}
}

// Watcher drives a TickRunner from a single goroutine. Ticks never
// overlap; a tick delivered more than one interval late is dropped.
type Watcher struct {
	config   WatcherConfig
	loop     TickRunner
	logger   *zap.Logger
	now      func() time.Time
	onResult func(domain.TickResult)

	degraded bool
}

// NewWatcher creates a scheduler for loop. onResult may be nil.
func NewWatcher(config WatcherConfig, loop TickRunner, onResult func(domain.TickResult), logger *zap.Logger) *Watcher {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultWatcherConfig().PollInterval
	}
	return &Watcher{
		config:   config,
		loop:     loop,
		logger:   logger,
		now:      time.Now,
		onResult: onResult,
	}
}

// Run ticks immediately, then on every interval until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("monitor loop started", zap.Duration("poll_interval", w.config.PollInterval))

	w.runTick(ctx, w.now())

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("monitor loop stopping")
			return ctx.Err()

		case scheduled := <-ticker.C:
			// Stop wins over a tick that raced with it.
			if ctx.Err() != nil {
				continue
			}
			w.handleTick(ctx, scheduled, w.now())
		}
	}
}

// handleTick runs the tick unless it is stale. Reports whether it ran.
func (w *Watcher) handleTick(ctx context.Context, scheduled, now time.Time) bool {
	if late := now.Sub(scheduled); late > w.config.PollInterval {
		metrics.IncStaleTick()
		w.logger.Debug("skipping stale tick", zap.Duration("late", late))
		return false
	}
	w.runTick(ctx, now)
	return true
}

func (w *Watcher) runTick(ctx context.Context, now time.Time) {
	res := w.loop.Tick(ctx, now)
	w.record(res)
	if w.onResult != nil {
		w.onResult(res)
	}
}

// record logs and counts a tick outcome.
func (w *Watcher) record(res domain.TickResult) {
	switch {
	case res.CooldownSkip:
		metrics.IncTick(metrics.OutcomeCooldown)
	case res.Degraded:
		metrics.IncTick(metrics.OutcomeDegraded)
	default:
		metrics.IncTick(metrics.OutcomeSampled)
	}

	if res.Degraded {
		metrics.IncObservationError()
		if !w.degraded {
			w.logger.Warn("foreground activity unavailable, monitoring degraded", zap.Error(res.Err))
			w.degraded = true
		}
	} else if w.degraded && !res.CooldownSkip {
		w.logger.Info("foreground activity available again")
		w.degraded = false
	}

	switch {
	case res.Intervened:
		metrics.IncIntervention(metrics.ResultShown)
	case res.Suppressed:
		metrics.IncIntervention(metrics.ResultSuppressed)
	case errors.Is(res.Err, domain.ErrInterventionPresentation):
		metrics.IncIntervention(metrics.ResultFailed)
		w.logger.Error("failed to present intervention",
			zap.String("app", string(res.Observed)), zap.Error(res.Err))
	}
}

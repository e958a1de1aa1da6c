package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
	"github.com/eliteGoblin/focusd/app_block/internal/infra"
	"github.com/eliteGoblin/focusd/app_block/internal/metrics"
)

// Controller owns the {stopped, running} state of the monitor.
type Controller struct {
	config    WatcherConfig
	settings  domain.SettingsStore
	newLoop   func() TickRunner
	presenter domain.InterventionPresenter
	notifier  domain.Notifier
	logger    *zap.Logger

	// background runs alongside each run, e.g. the focus journal poller.
	background []func(ctx context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	errMu   sync.Mutex
	lastErr error
}

// NewController creates a stopped controller. newLoop must return fresh
// debounce state on every call. notifier may be nil.
func NewController(
	config WatcherConfig,
	settings domain.SettingsStore,
	newLoop func() TickRunner,
	presenter domain.InterventionPresenter,
	notifier domain.Notifier,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		config:    config,
		settings:  settings,
		newLoop:   newLoop,
		presenter: presenter,
		notifier:  notifier,
		logger:    logger,
	}
}

// WithBackground registers fn to run for the lifetime of every run.
func (c *Controller) WithBackground(fn func(ctx context.Context)) *Controller {
	c.background = append(c.background, fn)
	return c
}

// Start reads the persisted toggle once and starts ticking if it is on.
func (c *Controller) Start(ctx context.Context) (domain.StartResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.runningLocked() {
		return domain.StartResultAlreadyRunning, nil
	}

	enabled, err := c.settings.MonitoringEnabled()
	if err != nil {
		return 0, fmt.Errorf("failed to read monitoring state: %w", err)
	}
	if !enabled {
		c.logger.Info("monitoring disabled, not starting")
		return domain.StartResultDisabled, nil
	}

	c.startLocked(ctx)
	return domain.StartResultStarted, nil
}

func (c *Controller) startLocked(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done

	var wg sync.WaitGroup
	for _, fn := range c.background {
		wg.Add(1)
		go func(fn func(context.Context)) {
			defer wg.Done()
			fn(runCtx)
		}(fn)
	}

	watcher := NewWatcher(c.config, c.newLoop(), c.recordResult, c.logger)
	go func() {
		defer close(done)
		defer metrics.SetRunning(false)
		_ = watcher.Run(runCtx)
		cancel()
		wg.Wait()
	}()

	metrics.SetRunning(true)
	c.logger.Info("monitoring started")

	if c.notifier != nil {
		if err := c.notifier.Notify(infra.MonitorActiveTitle, infra.MonitorActiveMessage); err != nil {
			c.logger.Debug("status notification failed", zap.Error(err))
		}
	}
}

// Stop cancels ticking, waits for the in-flight tick and tears down any
// showing surface. Idempotent.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		<-c.done
		c.cancel = nil
		c.done = nil
		c.logger.Info("monitoring stopped")
	}

	if err := c.presenter.Dismiss(); err != nil {
		return fmt.Errorf("failed to tear down intervention: %w", err)
	}
	return nil
}

// IsRunning reports whether ticks are scheduled.
func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runningLocked()
}

func (c *Controller) runningLocked() bool {
	if c.done == nil {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// HandleRestart re-arms the monitor after a boot or replace signal.
func (c *Controller) HandleRestart(ctx context.Context, reason domain.RestartReason) (domain.StartResult, error) {
	res, err := c.Start(ctx)
	if err != nil {
		c.logger.Error("restart failed", zap.String("reason", string(reason)), zap.Error(err))
		return res, err
	}
	c.logger.Info("restart handled", zap.String("reason", string(reason)), zap.Stringer("result", res))
	return res, nil
}

// Enable persists the toggle, then starts. A write failure leaves the
// controller as it was.
func (c *Controller) Enable(ctx context.Context) (domain.StartResult, error) {
	if err := c.settings.SetMonitoringEnabled(true); err != nil {
		return 0, fmt.Errorf("failed to enable monitoring: %w", err)
	}
	return c.Start(ctx)
}

// Disable persists the toggle, then stops. A write failure leaves the
// monitor running.
func (c *Controller) Disable() error {
	if err := c.settings.SetMonitoringEnabled(false); err != nil {
		return fmt.Errorf("failed to disable monitoring: %w", err)
	}
	return c.Stop()
}

// LastError returns the most recent presentation failure, if any.
func (c *Controller) LastError() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.lastErr
}

func (c *Controller) recordResult(res domain.TickResult) {
	if errors.Is(res.Err, domain.ErrInterventionPresentation) {
		c.errMu.Lock()
		c.lastErr = res.Err
		c.errMu.Unlock()
	}
}

// Ensure Controller implements domain.MonitorController.
var _ domain.MonitorController = (*Controller)(nil)

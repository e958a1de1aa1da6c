package infra

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

const (
	// DefaultJournalRetention keeps events a little longer than the default window.
	DefaultJournalRetention = 2 * time.Minute
	maxJournalEvents        = 1024
)

// FocusJournal turns frontmost-app polling into a foreground event log,
// the same shape the OS usage-event APIs expose.
type FocusJournal struct {
	provider  domain.FrontmostProvider
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time

	// pollMu serialises the provider read with its recording, so a slow
	// read never lands after a newer one.
	pollMu sync.Mutex

	mu      sync.Mutex
	events  []domain.ForegroundEvent
	current domain.ApplicationID
}

// NewFocusJournal creates a journal over provider.
func NewFocusJournal(provider domain.FrontmostProvider, retention time.Duration, logger *zap.Logger) *FocusJournal {
	if retention <= 0 {
		retention = DefaultJournalRetention
	}
	return &FocusJournal{
		provider:  provider,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Poll records a transition if the frontmost app changed.
func (j *FocusJournal) Poll(ctx context.Context) error {
	j.pollMu.Lock()
	defer j.pollMu.Unlock()

	app, err := j.provider.Frontmost(ctx)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	if app != j.current {
		if j.current != "" {
			j.events = append(j.events, domain.ForegroundEvent{App: j.current, Timestamp: now, Type: domain.EventMoveToBackground})
		}
		if app != "" {
			j.events = append(j.events, domain.ForegroundEvent{App: app, Timestamp: now, Type: domain.EventMoveToForeground})
		}
		j.current = app
	}
	j.trim(now)
	return nil
}

// trim drops events older than retention and caps the journal length.
func (j *FocusJournal) trim(now time.Time) {
	cutoff := now.Add(-j.retention)
	i := 0
	for i < len(j.events) && j.events[i].Timestamp.Before(cutoff) {
		i++
	}
	if over := len(j.events) - i - maxJournalEvents; over > 0 {
		i += over
	}
	if i > 0 {
		j.events = append(j.events[:0:0], j.events[i:]...)
	}
}

// Run polls on interval until ctx is cancelled, so switches between
// monitor ticks are still recorded.
func (j *FocusJournal) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	failing := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := j.Poll(ctx)
			switch {
			case err != nil && !failing:
				j.logger.Debug("frontmost poll failed", zap.Error(err))
				failing = true
			case err == nil:
				failing = false
			}
		}
	}
}

// QueryForegroundEvents polls once for freshness and returns journal
// events with begin <= timestamp <= end, oldest first.
func (j *FocusJournal) QueryForegroundEvents(ctx context.Context, begin, end time.Time) ([]domain.ForegroundEvent, error) {
	if err := j.Poll(ctx); err != nil {
		return nil, fmt.Errorf("frontmost app query failed: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	window := domain.ObservationWindow{Begin: begin, End: end}
	var out []domain.ForegroundEvent
	for _, ev := range j.events {
		if window.Contains(ev.Timestamp) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// Current returns the last polled frontmost app.
func (j *FocusJournal) Current() domain.ApplicationID {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.current
}

// Ensure FocusJournal implements domain.ForegroundEventSource.
var _ domain.ForegroundEventSource = (*FocusJournal)(nil)

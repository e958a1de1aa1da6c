package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

// DefaultObservationWindow is how far back each sample looks.
const DefaultObservationWindow = 60 * time.Second

// UsageObserver implements domain.ActivityObserver over a host event source.
type UsageObserver struct {
	source domain.ForegroundEventSource
	window time.Duration
}

// NewActivityObserver creates an observer with the given trailing window.
// A non-positive window falls back to DefaultObservationWindow.
func NewActivityObserver(source domain.ForegroundEventSource, window time.Duration) *UsageObserver {
	if window <= 0 {
		window = DefaultObservationWindow
	}
	return &UsageObserver{source: source, window: window}
}

// Window returns the trailing window width.
func (o *UsageObserver) Window() time.Duration {
	return o.window
}

// Sample returns the app of the last move-to-foreground event in
// [now-window, now]. Earlier events in the window are discarded.
func (o *UsageObserver) Sample(ctx context.Context, now time.Time) (domain.ApplicationID, bool, error) {
	w := domain.NewObservationWindow(now, o.window)

	events, err := o.source.QueryForegroundEvents(ctx, w.Begin, w.End)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", domain.ErrObservationUnavailable, err)
	}

	var (
		last  domain.ApplicationID
		found bool
	)
	for _, ev := range events {
		if ev.Type != domain.EventMoveToForeground {
			continue
		}
		last = ev.App
		found = true
	}
	return last, found, nil
}

// Ensure UsageObserver implements domain.ActivityObserver.
var _ domain.ActivityObserver = (*UsageObserver)(nil)

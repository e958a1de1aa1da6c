package fixtures

import (
	"context"
	"sync"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

// RecordingPresenter records every presented app. With AutoDismiss the
// surface goes away as soon as it is shown; otherwise it stays up until
// Dismiss is called.
type RecordingPresenter struct {
	AutoDismiss bool

	mu        sync.Mutex
	presented []domain.ApplicationID
	pending   func()
	dismisses int
}

// Present implements domain.InterventionPresenter.
func (p *RecordingPresenter) Present(ctx context.Context, app domain.ApplicationID, dismissed func()) error {
	p.mu.Lock()
	p.presented = append(p.presented, app)
	if !p.AutoDismiss {
		p.pending = dismissed
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	dismissed()
	return nil
}

// Dismiss implements domain.InterventionPresenter.
func (p *RecordingPresenter) Dismiss() error {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.dismisses++
	p.mu.Unlock()

	if pending != nil {
		pending()
	}
	return nil
}

// Presented returns the apps presented so far, in order.
func (p *RecordingPresenter) Presented() []domain.ApplicationID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.ApplicationID(nil), p.presented...)
}

// Showing reports whether a surface is up and not yet dismissed.
func (p *RecordingPresenter) Showing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending != nil
}

// NopNotifier discards notifications.
type NopNotifier struct{}

// Notify implements domain.Notifier.
func (NopNotifier) Notify(title, message string) error { return nil }

var (
	_ domain.InterventionPresenter = (*RecordingPresenter)(nil)
	_ domain.Notifier              = NopNotifier{}
)

package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

// observation is one scripted Sample return.
type observation struct {
	app domain.ApplicationID
	ok  bool
	err error
}

func seen(app string) observation { return observation{app: domain.ApplicationID(app), ok: true} }
func none() observation           { return observation{} }
func unavailable() observation {
	return observation{err: errors.Join(domain.ErrObservationUnavailable, errors.New("permission revoked"))}
}

// scriptedObserver replays observations in order and repeats the last one.
type scriptedObserver struct {
	script []observation
	calls  int
	times  []time.Time
}

func (o *scriptedObserver) Sample(ctx context.Context, now time.Time) (domain.ApplicationID, bool, error) {
	o.times = append(o.times, now)
	if len(o.script) == 0 {
		return "", false, nil
	}
	i := o.calls
	if i >= len(o.script) {
		i = len(o.script) - 1
	}
	o.calls++
	obs := o.script[i]
	return obs.app, obs.ok, obs.err
}

// mockPresenter records presentations; dismissal is manual unless autoDismiss.
type mockPresenter struct {
	mu          sync.Mutex
	presentErr  error
	autoDismiss bool
	presented   []domain.ApplicationID
	dismissFns  []func()
	dismissed   int
}

func (p *mockPresenter) Present(ctx context.Context, app domain.ApplicationID, dismissed func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.presentErr != nil {
		return p.presentErr
	}
	p.presented = append(p.presented, app)
	if p.autoDismiss {
		dismissed()
		return nil
	}
	p.dismissFns = append(p.dismissFns, dismissed)
	return nil
}

func (p *mockPresenter) Dismiss() error {
	p.mu.Lock()
	fns := p.dismissFns
	p.dismissFns = nil
	p.dismissed += len(fns)
	p.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return nil
}

func (p *mockPresenter) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.presented)
}

// mockEventSource returns fixed events and records the queried range.
type mockEventSource struct {
	events     []domain.ForegroundEvent
	err        error
	begin, end time.Time
}

func (s *mockEventSource) QueryForegroundEvents(ctx context.Context, begin, end time.Time) ([]domain.ForegroundEvent, error) {
	s.begin, s.end = begin, end
	if s.err != nil {
		return nil, s.err
	}
	return s.events, nil
}

// at returns a tick instant n seconds after a fixed epoch.
func at(n int) time.Time {
	return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(n) * time.Second)
}

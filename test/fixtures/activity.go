// Package fixtures provides scripted host collaborators for integration tests.
package fixtures

import (
	"context"
	"sync"
	"time"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

// ScriptedSource is a ForegroundEventSource that answers each query with
// the next scripted observation. "" means no foreground event in the window.
// Once the script runs out the last step repeats.
type ScriptedSource struct {
	mu    sync.Mutex
	steps []string
	next  int
	err   error
	calls int
}

// NewScriptedSource creates a source that plays steps in order.
func NewScriptedSource(steps ...string) *ScriptedSource {
	return &ScriptedSource{steps: steps}
}

// FailWith makes every following query fail with err; nil restores the script.
func (s *ScriptedSource) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Calls returns how many queries were made.
func (s *ScriptedSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// QueryForegroundEvents implements domain.ForegroundEventSource.
func (s *ScriptedSource) QueryForegroundEvents(ctx context.Context, begin, end time.Time) ([]domain.ForegroundEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.steps) == 0 {
		return nil, nil
	}

	step := s.steps[len(s.steps)-1]
	if s.next < len(s.steps) {
		step = s.steps[s.next]
		s.next++
	}
	if step == "" {
		return nil, nil
	}
	return []domain.ForegroundEvent{{
		App:       domain.ApplicationID(step),
		Timestamp: end,
		Type:      domain.EventMoveToForeground,
	}}, nil
}

// ScriptedFrontmost is a FrontmostProvider whose answer tests set directly.
type ScriptedFrontmost struct {
	mu  sync.Mutex
	app domain.ApplicationID
	err error
}

// Focus makes app the frontmost application.
func (f *ScriptedFrontmost) Focus(app string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.app = domain.ApplicationID(app)
	f.err = nil
}

// Fail makes the provider report err until the next Focus.
func (f *ScriptedFrontmost) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Frontmost implements domain.FrontmostProvider.
func (f *ScriptedFrontmost) Frontmost(ctx context.Context) (domain.ApplicationID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.app, f.err
}

var (
	_ domain.ForegroundEventSource = (*ScriptedSource)(nil)
	_ domain.FrontmostProvider     = (*ScriptedFrontmost)(nil)
)

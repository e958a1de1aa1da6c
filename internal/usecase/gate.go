package usecase

import (
	"sync/atomic"

	"github.com/eliteGoblin/focusd/app_block/internal/domain"
)

// AtomicGate implements domain.InterventionGate with a compare-and-set flag.
// It is a trylock, not a counting lock: one Release undoes any number of
// suppressed RequestShow calls.
type AtomicGate struct {
	active atomic.Bool
}

// NewInterventionGate creates a released gate.
func NewInterventionGate() *AtomicGate {
	return &AtomicGate{}
}

// RequestShow claims the gate if it is free.
func (g *AtomicGate) RequestShow() domain.ShowResult {
	if g.active.CompareAndSwap(false, true) {
		return domain.ShowResultShown
	}
	return domain.ShowResultSuppressed
}

// Release frees the gate unconditionally.
func (g *AtomicGate) Release() {
	g.active.Store(false)
}

// Active reports whether a surface holds the gate.
func (g *AtomicGate) Active() bool {
	return g.active.Load()
}

// Ensure AtomicGate implements domain.InterventionGate.
var _ domain.InterventionGate = (*AtomicGate)(nil)

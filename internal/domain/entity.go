// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import (
	"sort"
	"time"
)

// MonitoringEnabledKey is the settings key of the persisted monitoring toggle.
const MonitoringEnabledKey = "isMonitoring"

// ApplicationID identifies an application on the host.
// On macOS this is a bundle identifier, on Linux a process name.
type ApplicationID string

// TargetSet is the immutable deny-list of application identifiers.
type TargetSet struct {
	apps map[ApplicationID]struct{}
}

// NewTargetSet builds a TargetSet. Empty identifiers are ignored.
func NewTargetSet(ids ...string) TargetSet {
	apps := make(map[ApplicationID]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		apps[ApplicationID(id)] = struct{}{}
	}
	return TargetSet{apps: apps}
}

// Contains reports whether app is on the deny-list.
func (s TargetSet) Contains(app ApplicationID) bool {
	_, ok := s.apps[app]
	return ok
}

// Len returns the number of targets.
func (s TargetSet) Len() int {
	return len(s.apps)
}

// List returns the targets sorted.
func (s TargetSet) List() []ApplicationID {
	out := make([]ApplicationID, 0, len(s.apps))
	for app := range s.apps {
		out = append(out, app)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ObservationWindow is the trailing interval queried for foreground events.
type ObservationWindow struct {
	Begin time.Time
	End   time.Time
}

// NewObservationWindow returns [now-width, now].
func NewObservationWindow(now time.Time, width time.Duration) ObservationWindow {
	return ObservationWindow{Begin: now.Add(-width), End: now}
}

// Contains reports whether t falls inside the window (inclusive).
func (w ObservationWindow) Contains(t time.Time) bool {
	return !t.Before(w.Begin) && !t.After(w.End)
}

// EventType classifies a foreground-activity event.
type EventType int

const (
	EventMoveToForeground EventType = iota + 1
	EventMoveToBackground
)

func (t EventType) String() string {
	switch t {
	case EventMoveToForeground:
		return "move_to_foreground"
	case EventMoveToBackground:
		return "move_to_background"
	default:
		return "unknown"
	}
}

// ForegroundEvent is one transition reported by the host.
type ForegroundEvent struct {
	App       ApplicationID
	Timestamp time.Time
	Type      EventType
}

// ShowResult is the outcome of asking the gate to show an intervention.
type ShowResult int

const (
	ShowResultShown ShowResult = iota
	ShowResultSuppressed
)

func (r ShowResult) String() string {
	if r == ShowResultShown {
		return "shown"
	}
	return "suppressed"
}

// StartResult is the outcome of a controller start request.
type StartResult int

const (
	StartResultStarted StartResult = iota + 1
	StartResultAlreadyRunning
	// StartResultDisabled means the persisted toggle was off and nothing was scheduled.
	StartResultDisabled
)

func (r StartResult) String() string {
	switch r {
	case StartResultStarted:
		return "started"
	case StartResultAlreadyRunning:
		return "already_running"
	case StartResultDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// RestartReason names the host signal that asked the monitor to re-arm.
type RestartReason string

const (
	RestartBoot     RestartReason = "boot"
	RestartReplaced RestartReason = "replaced"
)

// TickResult captures what happened during a single monitor tick.
type TickResult struct {
	At             time.Time
	CooldownSkip   bool          // cooldown still running, nothing sampled
	Observed       ApplicationID // sampled foreground app, if HasObservation
	HasObservation bool
	Transition     bool // new transition into a target app
	Intervened     bool // intervention surface was presented
	Suppressed     bool // gate refused, a surface is already showing
	Degraded       bool // observation was unavailable this tick
	Err            error
}

// Daemon represents the running monitor process.
type Daemon struct {
	PID        int
	StartedAt  time.Time
	AppVersion string
}

// RegistryEntry is persisted so other invocations can find the daemon.
type RegistryEntry struct {
	Version       int    `json:"version"`
	PID           int    `json:"pid"`
	StartedAt     int64  `json:"started_at"`
	LastHeartbeat int64  `json:"last_heartbeat"`
	Mode          string `json:"mode,omitempty"`        // "user" or "system"
	AppVersion    string `json:"app_version,omitempty"` // Version of the running daemon
}

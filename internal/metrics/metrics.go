// Package metrics exposes Prometheus collectors for the monitor daemon.
package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tick outcomes used as the "outcome" label.
const (
	OutcomeSampled  = "sampled"
	OutcomeCooldown = "cooldown"
	OutcomeDegraded = "degraded"
)

// Intervention results used as the "result" label.
const (
	ResultShown      = "shown"
	ResultSuppressed = "suppressed"
	ResultFailed     = "failed"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	monitorTicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "appblock",
			Subsystem: "monitor",
			Name:      "ticks_total",
			Help:      "Number of monitor ticks by outcome.",
		}, []string{"outcome"},
	)
	interventions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "appblock",
			Subsystem: "monitor",
			Name:      "interventions_total",
			Help:      "Number of intervention requests by result.",
		}, []string{"result"},
	)
	observationErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "appblock",
			Subsystem: "monitor",
			Name:      "observation_errors_total",
			Help:      "Number of ticks where foreground activity could not be read.",
		},
	)
	staleTicks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "appblock",
			Subsystem: "monitor",
			Name:      "stale_ticks_total",
			Help:      "Number of ticks dropped because they fired too late.",
		},
	)
	running = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "appblock",
			Subsystem: "monitor",
			Name:      "running",
			Help:      "1 while the monitor loop is running.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// Subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{monitorTicks, interventions, observationErrors, staleTicks, running}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves metrics for the DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

// HandlerFor serves metrics from a specific gatherer.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Helpers below no-op until Register has been called.

func IncTick(outcome string) {
	if regOK.Load() {
		monitorTicks.WithLabelValues(outcome).Inc()
	}
}

func IncIntervention(result string) {
	if regOK.Load() {
		interventions.WithLabelValues(result).Inc()
	}
}

func IncObservationError() {
	if regOK.Load() {
		observationErrors.Inc()
	}
}

func IncStaleTick() {
	if regOK.Load() {
		staleTicks.Inc()
	}
}

func SetRunning(on bool) {
	if regOK.Load() {
		var v float64
		if on {
			v = 1
		}
		running.Set(v)
	}
}

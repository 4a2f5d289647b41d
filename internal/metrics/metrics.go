// Package metrics holds the Prometheus collectors for the listener bridge.
// Collectors are registered with the default registry at init, like the
// HTTP collectors in httpapi.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Event outcomes.
const (
	OutcomeDispatched = "dispatched"
	OutcomeFailed     = "failed"
	OutcomeSkipped    = "skipped"
	OutcomeRejected   = "rejected" // dispatch after the handle was destroyed
)

var (
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "querylog",
			Subsystem: "listener",
			Name:      "events_total",
			Help:      "Lifecycle events seen by listeners, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "querylog",
			Subsystem: "listener",
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent encoding and handing an event to the native engine",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1, .5},
		},
		[]string{"kind"},
	)

	liveListeners = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "querylog",
			Subsystem: "listener",
			Name:      "live",
			Help:      "Listener instances whose native context is not yet destroyed",
		},
	)

	destroyedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "querylog",
			Subsystem: "listener",
			Name:      "contexts_destroyed_total",
			Help:      "Native contexts destroyed, by trigger",
		},
		[]string{"trigger"},
	)

	creationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "querylog",
			Subsystem: "listener",
			Name:      "creations_total",
			Help:      "Listener creation attempts, by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(eventsTotal, dispatchDuration, liveListeners, destroyedTotal, creationsTotal)
}

// ObserveEvent counts one event and, for dispatched events, its latency.
func ObserveEvent(kind, outcome string, d time.Duration) {
	eventsTotal.WithLabelValues(kind, outcome).Inc()
	if outcome == OutcomeDispatched {
		dispatchDuration.WithLabelValues(kind).Observe(d.Seconds())
	}
}

// ListenerCreated records a creation attempt.
func ListenerCreated(ok bool) {
	if ok {
		creationsTotal.WithLabelValues("ok").Inc()
		liveListeners.Inc()
		return
	}
	creationsTotal.WithLabelValues("error").Inc()
}

// ContextDestroyed records a release. trigger is one of close, unreachable,
// shutdown or rollback.
func ContextDestroyed(trigger string) {
	destroyedTotal.WithLabelValues(trigger).Inc()
	if trigger != "rollback" {
		liveListeners.Dec()
	}
}

// Package metrics holds the Prometheus collectors for voxnote.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// turnsTotal counts processed utterances.
	// Labels: operation (create_confirm, find, error, ...)
	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voxnote",
		Subsystem: "conversation",
		Name:      "turns_total",
		Help:      "Total processed utterances by resulting operation",
	}, []string{"operation"})

	// turnLatency measures one full turn, guard evaluation through persistence.
	// Labels: guard
	turnLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "voxnote",
		Subsystem: "conversation",
		Name:      "turn_duration_seconds",
		Help:      "Turn processing latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"guard"})

	// turnFaults counts turns that ended in the apology after an error or panic.
	turnFaults = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voxnote",
		Subsystem: "conversation",
		Name:      "faults_total",
		Help:      "Total turns reset to idle after an unexpected fault",
	})

	// activeSessions tracks live conversation sessions.
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "voxnote",
		Subsystem: "conversation",
		Name:      "active_sessions",
		Help:      "Number of live conversation sessions",
	})

	// toolCalls counts note tool invocations.
	// Labels: tool (create, update, delete, find), outcome (ok, not_found, confirm, error)
	toolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voxnote",
		Subsystem: "tools",
		Name:      "calls_total",
		Help:      "Total note tool invocations",
	}, []string{"tool", "outcome"})

	// saves counts document save attempts.
	// Labels: outcome (ok, retry, failed)
	saves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voxnote",
		Subsystem: "store",
		Name:      "saves_total",
		Help:      "Total document save attempts",
	}, []string{"outcome"})

	// fallbacks counts consultations of the language-model selector.
	// Labels: outcome (selected, unknown, error)
	fallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voxnote",
		Subsystem: "llm",
		Name:      "fallbacks_total",
		Help:      "Total language-model selector consultations",
	}, []string{"outcome"})
)

// ObserveTurn records a finished turn.
func ObserveTurn(guard, operation string, elapsed time.Duration) {
	turnsTotal.WithLabelValues(operation).Inc()
	turnLatency.WithLabelValues(guard).Observe(elapsed.Seconds())
}

// Fault records a turn that was reset after a fault.
func Fault() { turnFaults.Inc() }

// SetSessions sets the live session gauge.
func SetSessions(n int) { activeSessions.Set(float64(n)) }

// Tool records a tool invocation outcome.
func Tool(tool, outcome string) { toolCalls.WithLabelValues(tool, outcome).Inc() }

// Save records a save attempt outcome.
func Save(outcome string) { saves.WithLabelValues(outcome).Inc() }

// Fallback records a selector consultation outcome.
func Fallback(outcome string) { fallbacks.WithLabelValues(outcome).Inc() }

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }

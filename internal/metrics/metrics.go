// Package metrics exposes Prometheus collectors for the swipe engine and the
// matchmaking backend. Label sets are small, fixed enums to keep cardinality
// bounded.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// decisions counts submit outcomes by direction.
	decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swipe_decisions_total",
			Help: "Swipe submissions by direction and outcome.",
		},
		[]string{"direction", "outcome"},
	)

	undos = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swipe_undo_total",
			Help: "Undo requests by outcome.",
		},
		[]string{"outcome"},
	)

	refills = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swipe_queue_refills_total",
			Help: "Queue refills by result (ok, failed, reserve, superseded).",
		},
		[]string{"result"},
	)

	// degraded counts queues, one per session, currently serving the reserve set.
	degraded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "swipe_queues_degraded",
			Help: "Queues currently serving the reserve set.",
		},
	)

	persistLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "swipe_persist_duration_seconds",
			Help:    "Latency of decision persistence calls.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// backendCalls counts matchmaking RPCs by method and gRPC code.
	backendCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaking_rpc_total",
			Help: "Matchmaking backend RPCs by method and status code.",
		},
		[]string{"method", "code"},
	)
)

func init() {
	prometheus.MustRegister(decisions, undos, refills, degraded, persistLatency, backendCalls)
}

func Decision(direction, outcome string) { decisions.WithLabelValues(direction, outcome).Inc() }

func Undo(outcome string) { undos.WithLabelValues(outcome).Inc() }

func QueueRefill(result string) { refills.WithLabelValues(result).Inc() }

// QueueDegraded and QueueRecovered must be called once per transition.
func QueueDegraded() { degraded.Inc() }

func QueueRecovered() { degraded.Dec() }

func ObservePersist(d time.Duration) { persistLatency.Observe(d.Seconds()) }

func BackendCall(method, code string) { backendCalls.WithLabelValues(method, code).Inc() }

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

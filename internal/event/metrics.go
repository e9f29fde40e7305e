package event

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// runtimeMetrics groups the Prometheus collectors the event core exports,
// mirroring the teacher's grouped-counter shape (internal/networking.SnapshotMetrics)
// but backed by real collectors instead of plain maps.
type runtimeMetrics struct {
	tickDuration    *prometheus.HistogramVec
	queueDepth      *prometheus.GaugeVec
	handlerFailures prometheus.Counter
	entryPointFails prometheus.Counter
}

var (
	metricsOnce sync.Once
	metrics     *runtimeMetrics
)

func newRuntimeMetrics() *runtimeMetrics {
	return &runtimeMetrics{
		tickDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lanecore",
			Subsystem: "event",
			Name:      "tick_duration_seconds",
			Help:      "Duration of a single Lane tick, including all drains.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"lane"}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "lanecore",
			Subsystem: "event",
			Name:      "queue_depth",
			Help:      "Number of payloads drained from a Channel's Binding on its last call().",
		}, []string{"lane", "event_id"}),
		handlerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lanecore",
			Subsystem: "event",
			Name:      "handler_failures_total",
			Help:      "Count of handler panics recovered during Binding.call().",
		}),
		entryPointFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lanecore",
			Subsystem: "event",
			Name:      "entry_point_failures_total",
			Help:      "Count of EntryPoint callbacks that returned an error or panicked.",
		}),
	}
}

// Metrics lazily constructs and registers the package's Prometheus collectors
// against the default registry, returning the same instance on every call.
func Metrics() *runtimeMetrics {
	metricsOnce.Do(func() {
		metrics = newRuntimeMetrics()
		prometheus.MustRegister(
			metrics.tickDuration,
			metrics.queueDepth,
			metrics.handlerFailures,
			metrics.entryPointFails,
		)
	})
	return metrics
}

func recordHandlerFailure() {
	Metrics().handlerFailures.Inc()
}

func recordEntryPointFailure() {
	Metrics().entryPointFails.Inc()
}

package netty

import "github.com/prometheus/client_golang/prometheus"

// Metrics collects pipeline lifecycle and mutation-latency measurements.
// A nil *Metrics disables collection: every method below is a no-op on a
// nil receiver, so call sites never have to branch on "is metrics enabled".
type Metrics struct {
	lifecycleTotal *prometheus.CounterVec
	mutationLatency *prometheus.HistogramVec
}

// NewMetrics builds a Metrics registered against reg. Pass nil to use the
// default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		lifecycleTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netty",
			Subsystem: "pipeline",
			Name:      "lifecycle_total",
			Help:      "Count of handler lifecycle callbacks invoked, by handler type and event.",
		}, []string{"handler_type", "event"}),
		mutationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "netty",
			Subsystem: "pipeline",
			Name:      "mutation_latency_seconds",
			Help:      "Latency from a pipeline mutation call to its deferred result being fulfilled.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.lifecycleTotal, m.mutationLatency)
	return m
}

func (m *Metrics) observeLifecycle(handlerType, event string) {
	if m == nil {
		return
	}
	m.lifecycleTotal.WithLabelValues(handlerType, event).Inc()
}

func (m *Metrics) observeMutation(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.mutationLatency.WithLabelValues(operation).Observe(seconds)
}

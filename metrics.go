package lrudict

import "github.com/prometheus/client_golang/prometheus"

// Metrics mirrors the §4.7 counters (plus busy-rejections and purge-queue
// depth, which spec.md exposes as a read-only knob in §6) as Prometheus
// instruments, for embedding into a service's existing registry. Stats()
// remains the zero-dependency snapshot; Metrics is purely additive and
// only touched when a caller opts in via WithMetrics.
type Metrics struct {
	hits            prometheus.Counter
	misses          prometheus.Counter
	evictions       prometheus.Counter
	busyRejections  prometheus.Counter
	swallowedErrors prometheus.Counter
	purgeQueueDepth prometheus.GaugeFunc
}

// NewMetrics builds a Metrics instance under the given namespace/subsystem
// (e.g. NewMetrics("myservice", "session_cache")), ready to be registered
// into a *prometheus.Registry with Register. depthFn is polled on demand
// by Prometheus scrapes and should return the live purge-queue depth,
// typically d.PurgeQueueSize.
func NewMetrics(namespace, subsystem string, depthFn func() int) *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		})
	}
	m := &Metrics{
		hits:            counter("hits_total", "Number of LRUDict lookups that found a live key."),
		misses:          counter("misses_total", "Number of LRUDict lookups that found no live key."),
		evictions:       counter("evictions_total", "Number of entries evicted to respect the capacity bound."),
		busyRejections:  counter("busy_rejections_total", "Number of writes rejected because a write was already in progress."),
		swallowedErrors: counter("callback_errors_total", "Number of eviction-callback errors routed to the unraisable hook."),
	}
	if depthFn != nil {
		m.purgeQueueDepth = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "purge_queue_depth",
			Help:      "Number of evicted entries awaiting eviction-callback delivery.",
		}, func() float64 { return float64(depthFn()) })
	}
	return m
}

// Register registers every instrument that was constructed (purgeQueueDepth
// is skipped if NewMetrics was called with a nil depthFn) into reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{m.hits, m.misses, m.evictions, m.busyRejections, m.swallowedErrors}
	if m.purgeQueueDepth != nil {
		collectors = append(collectors, m.purgeQueueDepth)
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "academy"

// Metrics holds the collectors of the service. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry       *prometheus.Registry
	punchOps       *prometheus.CounterVec
	staleOpenGauge prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		punchOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "punch",
			Name:      "operations_total",
			Help:      "Attendance ledger operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		staleOpenGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "punch",
			Name:      "stale_open_records",
			Help:      "Punch records from previous days that were never punched out.",
		}),
	}
	reg.MustRegister(m.punchOps, m.staleOpenGauge)

	return m
}

// ObservePunch counts one ledger operation. A nil err is recorded as "ok".
func (m *Metrics) ObservePunch(operation string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.punchOps.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) SetStaleOpenRecords(n int64) {
	if m == nil {
		return
	}
	m.staleOpenGauge.Set(float64(n))
}

// StreamStats reports live feed subscriptions.
type StreamStats interface {
	TotalSubscribers() int
	SubscriberCount(topic string) int
}

// WatchStream exports the subscriber count of the live feed, in total and for
// each of topics.
func (m *Metrics) WatchStream(stats StreamStats, topics ...string) {
	if m == nil || stats == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "stream",
		Name:      "subscribers",
		Help:      "Open live feed subscriptions.",
	}, func() float64 { return float64(stats.TotalSubscribers()) }))

	for _, topic := range topics {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "stream",
			Name:        "topic_subscribers",
			Help:        "Open live feed subscriptions of a topic.",
			ConstLabels: prometheus.Labels{"topic": topic},
		}, func() float64 { return float64(stats.SubscriberCount(topic)) }))
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

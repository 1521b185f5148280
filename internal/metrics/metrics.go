// Package metrics exposes queue counters and gauges to Prometheus.
package metrics

import (
	"net/http"

	"advising_queue/internal/models"
	"advising_queue/internal/notify"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "advising_queue"

type Metrics struct {
	transitions    *prometheus.CounterVec
	pendingNoShows prometheus.Gauge
	subscribers    *prometheus.GaugeVec
	published      *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entry_transitions_total",
			Help:      "Entries entering each status, per queue.",
		}, []string{"queue", "status"}),
		pendingNoShows: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "noshow_timers_pending",
			Help:      "No-show grace timers currently armed.",
		}),
		subscribers: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "Live websocket subscribers per topic.",
		}, []string{"topic"}),
		published: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Notification publish attempts by event kind and result.",
		}, []string{"kind", "result"}),
		gatherer: reg,
	}
}

func (m *Metrics) ObserveTransition(queueID string, to models.Status) {
	m.transitions.WithLabelValues(queueID, string(to)).Inc()
}

func (m *Metrics) SetPendingNoShows(n int) {
	m.pendingNoShows.Set(float64(n))
}

func (m *Metrics) SetSubscribers(topic string, n int) {
	if n == 0 {
		m.subscribers.DeleteLabelValues(topic)
		return
	}
	m.subscribers.WithLabelValues(topic).Set(float64(n))
}

func (m *Metrics) ObservePublish(kind notify.Kind, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.published.WithLabelValues(string(kind), result).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tour-server/models"
)

// Metrics groups the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	TriggersTotal    *prometheus.CounterVec
	TicksTotal       *prometheus.CounterVec
	DeliveriesTotal  *prometheus.CounterVec
	Subscribers      prometheus.Gauge
	TourActive       prometheus.Gauge
	ToursStarted     prometheus.Counter
	ResolutionErrors prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TriggersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tour_triggers_total",
				Help: "Trigger events published, by kind",
			},
			[]string{"kind"},
		),
		TicksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tour_ticks_total",
				Help: "Trigger evaluations, by outcome",
			},
			[]string{"outcome"},
		),
		DeliveriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tour_broadcast_deliveries_total",
				Help: "Per-subscriber delivery attempts, by result",
			},
			[]string{"result"},
		),
		Subscribers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tour_subscribers",
			Help: "Currently registered subscribers",
		}),
		TourActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tour_active",
			Help: "1 while a tour is running",
		}),
		ToursStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "tour_started_total",
			Help: "Tours started",
		}),
		ResolutionErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "tour_content_resolution_errors_total",
			Help: "Catalog records that could not be resolved into a payload",
		}),
	}
}

func (m *Metrics) trigger(kind models.EventKind) {
	if m == nil {
		return
	}
	m.TriggersTotal.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) tick(outcome string) {
	if m == nil {
		return
	}
	m.TicksTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) delivery(result string) {
	if m == nil {
		return
	}
	m.DeliveriesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) subscribers(n int) {
	if m == nil {
		return
	}
	m.Subscribers.Set(float64(n))
}

func (m *Metrics) tourActive(active bool) {
	if m == nil {
		return
	}
	if active {
		m.TourActive.Set(1)
		m.ToursStarted.Inc()
		return
	}
	m.TourActive.Set(0)
}

func (m *Metrics) resolutionError() {
	if m == nil {
		return
	}
	m.ResolutionErrors.Inc()
}

// Package metrics holds the Prometheus counters the box office exports.
// All methods are safe on a nil *Metrics so services can run without them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reg *prometheus.Registry

	reservations  *prometheus.CounterVec
	expiredSeats  prometheus.Counter
	payments      *prometheus.CounterVec
	webhooks      *prometheus.CounterVec
	ticketsIssued prometheus.Counter
	deliveries    *prometheus.CounterVec
	checkins      *prometheus.CounterVec
}

// New registers the counters on a fresh registry together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		reservations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "boxoffice_reservations_total",
			Help: "Reservation attempts by source and result.",
		}, []string{"source", "result"}),
		expiredSeats: f.NewCounter(prometheus.CounterOpts{
			Name: "boxoffice_expired_seats_total",
			Help: "Seats released because their reservation window passed.",
		}),
		payments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "boxoffice_payments_total",
			Help: "Payment completion signals by result.",
		}, []string{"result"}),
		webhooks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "boxoffice_webhooks_total",
			Help: "Payment webhook deliveries by event type.",
		}, []string{"type"}),
		ticketsIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "boxoffice_tickets_issued_total",
			Help: "Ticket tokens minted.",
		}),
		deliveries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "boxoffice_ticket_deliveries_total",
			Help: "Ticket delivery hand-offs by result.",
		}, []string{"result"}),
		checkins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "boxoffice_checkins_total",
			Help: "Check-in attempts by result.",
		}, []string{"result"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) Reservation(source, result string) {
	if m != nil {
		m.reservations.WithLabelValues(source, result).Inc()
	}
}

func (m *Metrics) SeatsExpired(n int) {
	if m != nil && n > 0 {
		m.expiredSeats.Add(float64(n))
	}
}

func (m *Metrics) Payment(result string) {
	if m != nil {
		m.payments.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) Webhook(eventType string) {
	if m != nil {
		m.webhooks.WithLabelValues(eventType).Inc()
	}
}

func (m *Metrics) TicketsIssued(n int) {
	if m != nil && n > 0 {
		m.ticketsIssued.Add(float64(n))
	}
}

func (m *Metrics) Delivery(result string) {
	if m != nil {
		m.deliveries.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) CheckIn(result string) {
	if m != nil {
		m.checkins.WithLabelValues(result).Inc()
	}
}

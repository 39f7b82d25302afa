package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	reg *prometheus.Registry

	ticketsPurchased    *prometheus.CounterVec
	purchasesRejected   *prometheus.CounterVec
	ticketsCancelled    *prometheus.CounterVec
	ticketsUsed         *prometheus.CounterVec
	invariantViolations *prometheus.CounterVec
	publishFailures     *prometheus.CounterVec
	catalogSyncs        *prometheus.CounterVec
	rateLimited         prometheus.Counter
	bookingDuration     prometheus.Histogram
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		ticketsPurchased: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketing_tickets_purchased_total",
			Help: "Total number of tickets purchased.",
		}, []string{"tier"}),
		purchasesRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketing_purchases_rejected_total",
			Help: "Total number of purchase attempts rejected, by reason.",
		}, []string{"reason"}),
		ticketsCancelled: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketing_tickets_cancelled_total",
			Help: "Total number of tickets cancelled.",
		}, []string{"tier"}),
		ticketsUsed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketing_tickets_used_total",
			Help: "Total number of tickets checked in.",
		}, []string{"tier"}),
		invariantViolations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketing_invariant_violations_total",
			Help: "Total number of inventory invariant violations detected.",
		}, []string{"kind"}),
		publishFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketing_event_publish_failures_total",
			Help: "Total number of ticket lifecycle events that failed to publish.",
		}, []string{"type"}),
		catalogSyncs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketing_catalog_sync_messages_total",
			Help: "Total number of catalog sync messages handled, by outcome.",
		}, []string{"outcome"}),
		rateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "ticketing_purchases_rate_limited_total",
			Help: "Total number of purchase requests refused by the throttle.",
		}),
		bookingDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ticketing_booking_duration_seconds",
			Help:    "Time spent in the reserve and ticket write unit of work.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (m *Metrics) TicketPurchased(tier string, took time.Duration) {
	if m == nil {
		return
	}
	m.ticketsPurchased.WithLabelValues(tier).Inc()
	m.bookingDuration.Observe(took.Seconds())
}

func (m *Metrics) PurchaseRejected(reason string) {
	if m == nil {
		return
	}
	m.purchasesRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) TicketCancelled(tier string) {
	if m == nil {
		return
	}
	m.ticketsCancelled.WithLabelValues(tier).Inc()
}

func (m *Metrics) TicketUsed(tier string) {
	if m == nil {
		return
	}
	m.ticketsUsed.WithLabelValues(tier).Inc()
}

func (m *Metrics) InvariantViolation(kind string) {
	if m == nil {
		return
	}
	m.invariantViolations.WithLabelValues(kind).Inc()
}

func (m *Metrics) PublishFailed(eventType string) {
	if m == nil {
		return
	}
	m.publishFailures.WithLabelValues(eventType).Inc()
}

func (m *Metrics) CatalogSync(outcome string) {
	if m == nil {
		return
	}
	m.catalogSyncs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

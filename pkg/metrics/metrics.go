// Package metrics exposes Prometheus collectors for carts, orders and AI
// content generation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can create as many as they like.
type Metrics struct {
	registry        *prometheus.Registry
	cartMutations   *prometheus.CounterVec
	storageFailures *prometheus.CounterVec
	orders          *prometheus.CounterVec
	generations     *prometheus.CounterVec
	openSessions    prometheus.GaugeFunc
}

// New registers all collectors. sessions, if non-nil, reports the number of
// open cart sessions.
func New(sessions func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cart_mutations_total",
			Help: "Cart state transitions by operation.",
		}, []string{"op"}),
		storageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cart_storage_failures_total",
			Help: "Absorbed cart persistence failures by operation.",
		}, []string{"op"}),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_submitted_total",
			Help: "Order submissions by payment method and outcome.",
		}, []string{"payment_method", "outcome"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ai_generations_total",
			Help: "AI content generations by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
	m.registry.MustRegister(
		m.cartMutations,
		m.storageFailures,
		m.orders,
		m.generations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if sessions != nil {
		m.openSessions = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "cart_open_sessions",
			Help: "Cart sessions currently held in memory.",
		}, func() float64 { return float64(sessions()) })
		m.registry.MustRegister(m.openSessions)
	}
	return m
}

// Mutation implements cart.Observer.
func (m *Metrics) Mutation(op string) { m.cartMutations.WithLabelValues(op).Inc() }

// StorageFailure implements cart.Observer.
func (m *Metrics) StorageFailure(op string) { m.storageFailures.WithLabelValues(op).Inc() }

// OrderSubmitted counts an order attempt.
func (m *Metrics) OrderSubmitted(paymentMethod, outcome string) {
	m.orders.WithLabelValues(paymentMethod, outcome).Inc()
}

// Generation counts an AI content request.
func (m *Metrics) Generation(kind, outcome string) {
	m.generations.WithLabelValues(kind, outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// internal/pkg/metrics/metrics.go
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/your-org/storefront-api/internal/domain/apperr"
)

const namespace = "storefront"

// Metrics holds the application collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	cartMutations  *prometheus.CounterVec
	orderEvents    *prometheus.CounterVec
	stockMovements *prometheus.CounterVec
}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		cartMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Cart add/update/remove operations by outcome.",
		}, []string{"operation", "result"}),
		orderEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_operations_total",
			Help:      "Checkout, cancel, edit and status operations by outcome.",
		}, []string{"operation", "result"}),
		stockMovements: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_units_total",
			Help:      "Units taken from or returned to stock.",
		}, []string{"direction"}),
	}
}

// ObserveHTTP records one finished request
func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// CartMutation counts a cart operation; err selects the result label
func (m *Metrics) CartMutation(operation string, err error) {
	if m == nil {
		return
	}
	m.cartMutations.WithLabelValues(operation, result(err)).Inc()
}

// OrderOperation counts an order operation; err selects the result label
func (m *Metrics) OrderOperation(operation string, err error) {
	if m == nil {
		return
	}
	m.orderEvents.WithLabelValues(operation, result(err)).Inc()
}

// StockDecremented counts units reserved by checkout
func (m *Metrics) StockDecremented(units int) {
	if m == nil {
		return
	}
	m.stockMovements.WithLabelValues("decrement").Add(float64(units))
}

// StockRestored counts units returned by cancellation
func (m *Metrics) StockRestored(units int) {
	if m == nil {
		return
	}
	m.stockMovements.WithLabelValues("restore").Add(float64(units))
}

func result(err error) string {
	if err == nil {
		return "ok"
	}
	return apperr.KindOf(err).String()
}

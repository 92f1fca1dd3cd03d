// Package metrics содержит Prometheus-метрики платёжного сервиса.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Значения метки outcome помимо причин отказа.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics хранит счётчики платежей и реестр, в котором они зарегистрированы.
type Metrics struct {
	registry       *prometheus.Registry
	paymentsTotal  *prometheus.CounterVec
	paymentLatency *prometheus.HistogramVec
}

// New создаёт набор метрик в отдельном реестре.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		paymentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payments",
			Name:      "requests_total",
			Help:      "Total payment requests by scheme and outcome",
		}, []string{"scheme", "outcome"}),
		paymentLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "payments",
			Name:      "duration_seconds",
			Help:      "Payment processing duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"scheme"}),
	}

	m.registry.MustRegister(m.paymentsTotal, m.paymentLatency)

	return m
}

// ObservePayment учитывает один обработанный платёж. Вызов на nil безопасен.
func (m *Metrics) ObservePayment(scheme, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.paymentsTotal.WithLabelValues(scheme, outcome).Inc()
	m.paymentLatency.WithLabelValues(scheme).Observe(seconds)
}

// Gatherer возвращает реестр метрик.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Handler возвращает HTTP-обработчик для выдачи метрик.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

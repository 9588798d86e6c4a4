// Package metrics собирает счётчики сервиса в отдельном реестре Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	Transitions    *prometheus.CounterVec
	InvoiceWrites  *prometheus.CounterVec
	ImportOutcomes *prometheus.CounterVec
	ImportedRows   *prometheus.CounterVec
	FollowUpErrors prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderflow",
			Name:      "order_transitions_total",
			Help:      "Order actions by result (applied or skipped).",
		}, []string{"action", "result"}),
		InvoiceWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderflow",
			Name:      "invoice_writes_total",
			Help:      "Invoice rows written by the rule engine.",
		}, []string{"status"}),
		ImportOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderflow",
			Name:      "import_outcomes_total",
			Help:      "Import pipeline runs by outcome status.",
		}, []string{"status"}),
		ImportedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderflow",
			Name:      "import_rows_total",
			Help:      "Imported rows by insert result.",
		}, []string{"result"}),
		FollowUpErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orderflow",
			Name:      "follow_up_errors_total",
			Help:      "Transitions saved whose invoice or event step failed.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.Transitions,
		m.InvoiceWrites,
		m.ImportOutcomes,
		m.ImportedRows,
		m.FollowUpErrors,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveTransition(action string, applied bool) {
	if m == nil {
		return
	}
	result := "skipped"
	if applied {
		result = "applied"
	}
	m.Transitions.WithLabelValues(action, result).Inc()
}

func (m *Metrics) ObserveInvoiceWrite(status string) {
	if m == nil {
		return
	}
	m.InvoiceWrites.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveImport(status string, inserted, failed int) {
	if m == nil {
		return
	}
	m.ImportOutcomes.WithLabelValues(status).Inc()
	m.ImportedRows.WithLabelValues("inserted").Add(float64(inserted))
	m.ImportedRows.WithLabelValues("failed").Add(float64(failed))
}

func (m *Metrics) ObserveFollowUpError() {
	if m == nil {
		return
	}
	m.FollowUpErrors.Inc()
}

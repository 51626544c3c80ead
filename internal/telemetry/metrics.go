// Package telemetry provides Prometheus metrics for lookups and reports
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors for one process. All methods are safe on a nil receiver.
type Metrics struct {
	Registry *prometheus.Registry

	ProviderRequestsTotal   *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec
	LookupsTotal            *prometheus.CounterVec
	ReportsGeneratedTotal   prometheus.Counter
	ReportDuration          prometheus.Histogram
}

// NewMetrics creates a registry and registers all collectors on it
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		ProviderRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "motreport_provider_requests_total",
				Help: "Total number of upstream provider requests",
			},
			[]string{"provider", "status"},
		),

		ProviderRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "motreport_provider_request_duration_seconds",
				Help:    "Duration of upstream provider requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),

		LookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "motreport_lookups_total",
				Help: "Total number of vehicle lookups by outcome",
			},
			[]string{"outcome"},
		),

		ReportsGeneratedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "motreport_reports_generated_total",
				Help: "Total number of PDF reports generated",
			},
		),

		ReportDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "motreport_report_duration_seconds",
				Help:    "Time spent rendering PDF reports in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),
	}
}

// ObserveProviderRequest records one upstream fetch
func (m *Metrics) ObserveProviderRequest(provider string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ProviderRequestsTotal.WithLabelValues(provider, status).Inc()
	m.ProviderRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// ObserveLookup records the outcome of a lookup (ok, not_found, upstream_error, malformed, error)
func (m *Metrics) ObserveLookup(outcome string) {
	if m == nil {
		return
	}
	m.LookupsTotal.WithLabelValues(outcome).Inc()
}

// ObserveReport records a generated report
func (m *Metrics) ObserveReport(duration time.Duration) {
	if m == nil {
		return
	}
	m.ReportsGeneratedTotal.Inc()
	m.ReportDuration.Observe(duration.Seconds())
}

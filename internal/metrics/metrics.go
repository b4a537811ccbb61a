// Package metrics exposes the ledger's Prometheus instruments.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Report outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeMissingRate = "missing_rate"
	OutcomeError       = "error"
)

// Metrics holds every collector on a private registry. A nil *Metrics
// records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	httpDuration   *prometheus.HistogramVec
	reports        *prometheus.CounterVec
	missingRates   prometheus.Counter
	rejections     *prometheus.CounterVec
	recorded       *prometheus.CounterVec
	publishErrors  prometheus.Counter
	exports        *prometheus.CounterVec
	reportDuration *prometheus.HistogramVec
	rateLimited    prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "conti_http_request_duration_seconds",
				Help:    "Duration of HTTP requests by route, method and status.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
		reports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conti_reports_total",
				Help: "Reports requested by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		missingRates: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "conti_missing_rate_diagnostics_total",
				Help: "Missing exchange rate diagnostics emitted by rejected reports.",
			},
		),
		rejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conti_validation_rejections_total",
				Help: "Transaction writes rejected by validation rule.",
			},
			[]string{"rule"},
		),
		recorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conti_transactions_recorded_total",
				Help: "Transactions stored by operation and type.",
			},
			[]string{"operation", "type"},
		),
		publishErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "conti_event_publish_errors_total",
				Help: "TransactionRecorded events that could not be published.",
			},
		),
		exports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conti_exports_total",
				Help: "Transactions exported by the worker, by outcome.",
			},
			[]string{"outcome"},
		),
		reportDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "conti_report_duration_seconds",
				Help:    "Time spent building reports by kind.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		rateLimited: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "conti_http_rate_limited_total",
				Help: "Write requests refused by the per-client rate limiter.",
			},
		),
	}
}

func (m *Metrics) ObserveHTTP(route, method, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(route, method, status).Observe(d.Seconds())
}

// ObserveReport records one report request. missing is the number of
// diagnostics when the report was rejected for absent rates.
func (m *Metrics) ObserveReport(kind, outcome string, missing int, d time.Duration) {
	if m == nil {
		return
	}
	m.reports.WithLabelValues(kind, outcome).Inc()
	m.reportDuration.WithLabelValues(kind).Observe(d.Seconds())
	if missing > 0 {
		m.missingRates.Add(float64(missing))
	}
}

func (m *Metrics) IncRejection(rule string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(rule).Inc()
}

func (m *Metrics) IncRecorded(operation, txType string) {
	if m == nil {
		return
	}
	m.recorded.WithLabelValues(operation, txType).Inc()
}

func (m *Metrics) IncPublishError() {
	if m == nil {
		return
	}
	m.publishErrors.Inc()
}

func (m *Metrics) IncRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

func (m *Metrics) IncExport(outcome string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(outcome).Inc()
}

// Snapshot is a point-in-time read of the counters, used by tests and logs.
type Snapshot struct {
	Reports       map[string]float64
	MissingRates  float64
	Rejections    map[string]float64
	PublishErrors float64
	Exports       map[string]float64
	RateLimited   float64
}

func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		Reports:       map[string]float64{},
		Rejections:    map[string]float64{},
		Exports:       map[string]float64{},
		MissingRates:  counterValue(m.missingRates),
		PublishErrors: counterValue(m.publishErrors),
		RateLimited:   counterValue(m.rateLimited),
	}
	families, err := m.Registry.Gather()
	if err != nil {
		return s
	}
	for _, mf := range families {
		var target map[string]float64
		switch mf.GetName() {
		case "conti_reports_total":
			target = s.Reports
		case "conti_validation_rejections_total":
			target = s.Rejections
		case "conti_exports_total":
			target = s.Exports
		default:
			continue
		}
		for _, metric := range mf.GetMetric() {
			target[labelKey(metric)] += metric.GetCounter().GetValue()
		}
	}
	return s
}

// labelKey joins label values with "/" in label-name order.
func labelKey(metric *dto.Metric) string {
	key := ""
	for i, lp := range metric.GetLabel() {
		if i > 0 {
			key += "/"
		}
		key += lp.GetValue()
	}
	return key
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

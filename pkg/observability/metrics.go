package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the evaluator.
type Metrics struct {
	// Authorization metrics
	ChecksTotal   *prometheus.CounterVec
	CheckDuration *prometheus.HistogramVec

	// Mutation metrics
	MaskMutationsTotal *prometheus.CounterVec
	RuleOpsTotal       *prometheus.CounterVec

	// Storage metrics
	StorageOperationsTotal *prometheus.CounterVec
	StorageErrorsTotal     *prometheus.CounterVec

	// State gauges
	ActiveTargetedRules *prometheus.GaugeVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		ChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tgsentry_checks_total",
				Help: "Total number of authorization checks",
			},
			[]string{"outcome", "source"},
		),
		CheckDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tgsentry_check_duration_seconds",
				Help:    "Authorization check duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		MaskMutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tgsentry_mask_mutations_total",
				Help: "Total number of mask bit mutations",
			},
			[]string{"kind"},
		),
		RuleOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tgsentry_rule_operations_total",
				Help: "Total number of targeted-rule operations",
			},
			[]string{"operation"},
		),
		StorageOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tgsentry_storage_operations_total",
				Help: "Total number of storage operations",
			},
			[]string{"operation", "status"},
		),
		StorageErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tgsentry_storage_errors_total",
				Help: "Total number of storage errors",
			},
			[]string{"operation"},
		),
		ActiveTargetedRules: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tgsentry_active_targeted_rules",
				Help: "Number of active targeted rules by target type",
			},
			[]string{"target_type"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.ChecksTotal,
		m.CheckDuration,
		m.MaskMutationsTotal,
		m.RuleOpsTotal,
		m.StorageOperationsTotal,
		m.StorageErrorsTotal,
		m.ActiveTargetedRules,
	)

	return m
}

// Handler returns an HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

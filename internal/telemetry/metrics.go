package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the orchestrator's Prometheus collectors. NewMetrics
// registers them on the registry it is given (the default registry when
// nil); cmd/bio-gen passes its own registry and serves it at /metrics via
// promhttp.HandlerFor.
type Metrics struct {
	ItemsSucceeded prometheus.Counter
	ItemsFailed    prometheus.Counter
	ActiveWorkers  prometheus.Gauge
	QuotaUsagePct  prometheus.Gauge
	PauseEvents    prometheus.Counter
}

// NewMetrics constructs and registers the orchestrator's collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ItemsSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bio_gen_items_succeeded_total",
			Help: "Work items whose remote call and downstream pipeline succeeded.",
		}),
		ItemsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bio_gen_items_failed_total",
			Help: "Work items that produced a failure Response Record.",
		}),
		ActiveWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bio_gen_active_workers",
			Help: "Number of worker pool slots currently processing a work item.",
		}),
		QuotaUsagePct: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bio_gen_quota_usage_percentage",
			Help: "Most recently observed quota usage percentage.",
		}),
		PauseEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bio_gen_pause_events_total",
			Help: "Number of times the pause controller transitioned to paused.",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.ItemsSucceeded, m.ItemsFailed, m.ActiveWorkers, m.QuotaUsagePct, m.PauseEvents)
	return m
}

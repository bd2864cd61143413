package runtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace groups every flowlang metric under one Prometheus namespace.
const Namespace = "flowlang"

// MetricsCollector aggregates the runtime's Prometheus instrumentation.
// Narrower than the teacher's MetricsCollector (no HTTP/query/cluster/Raft
// subsystems — those describe a distributed search engine this program
// doesn't have), scoped to what the Program Driver actually observes: runs,
// statements, stages by category, and errors by kind.
type MetricsCollector struct {
	RunsTotal       *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	StatementsTotal *prometheus.CounterVec
	StagesTotal     *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec
}

// NewMetricsCollector registers and returns a collector for one component
// name (mirrors the teacher's per-component Subsystem convention).
func NewMetricsCollector(component string) *MetricsCollector {
	return &MetricsCollector{
		RunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: component,
				Name:      "runs_total",
				Help:      "Total number of program runs, by outcome",
			},
			[]string{"status"},
		),
		RunDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: component,
				Name:      "run_duration_seconds",
				Help:      "Program run duration in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),
		StatementsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: component,
				Name:      "statements_total",
				Help:      "Total number of statements executed, by kind",
			},
			[]string{"kind"},
		),
		StagesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: component,
				Name:      "stages_total",
				Help:      "Total number of stage applications, by category",
			},
			[]string{"category"},
		),
		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: component,
				Name:      "errors_total",
				Help:      "Total number of run failures, by error kind",
			},
			[]string{"kind"},
		),
	}
}

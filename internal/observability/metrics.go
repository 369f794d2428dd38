package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "climate_trend"

// Metrics holds the Prometheus counters, histograms, and gauges for one batch run.
type Metrics struct {
	RecordsLoaded   *prometheus.CounterVec // labels: table
	GroupsSkipped   *prometheus.CounterVec // labels: stage
	UnitsRanked     *prometheus.GaugeVec   // labels: level
	JoinMismatches  *prometheus.GaugeVec   // labels: join, direction={missing_from_lookup,missing_from_results}
	StageDuration   *prometheus.HistogramVec
	OutputsWritten  *prometheus.CounterVec // labels: sink
	PipelineRunning prometheus.Gauge
	LastSuccess     prometheus.Gauge

	gatherer prometheus.Gatherer
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_loaded_total",
			Help:      "Input rows read, by table.",
		}, []string{"table"}),
		GroupsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "groups_skipped_total",
			Help:      "Groups excluded for insufficient data, by stage.",
		}, []string{"stage"}),
		UnitsRanked: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "units_ranked",
			Help:      "Units in the ranked annual table, by level.",
		}, []string{"level"}),
		JoinMismatches: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "join_mismatches",
			Help:      "Ids left unmatched by a join, by join and direction.",
		}, []string{"join", "direction"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each extract, transform and load stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		OutputsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outputs_written_total",
			Help:      "Output artifacts written, by sink.",
		}, []string{"sink"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that wrote all outputs.",
		}),
	}
}

func (m *Metrics) register(r prometheus.Registerer) {
	r.MustRegister(
		m.RecordsLoaded,
		m.GroupsSkipped,
		m.UnitsRanked,
		m.JoinMismatches,
		m.StageDuration,
		m.OutputsWritten,
		m.PipelineRunning,
		m.LastSuccess,
	)
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	m.register(prometheus.DefaultRegisterer)
	m.gatherer = prometheus.DefaultGatherer
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	reg := prometheus.NewRegistry()
	m := newMetrics()
	m.register(reg)
	m.gatherer = reg
	return m
}

// WriteTextfile writes every registered metric to path in the text exposition
// format, for collection by node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

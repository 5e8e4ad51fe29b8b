package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "aircombine_"

	resultSuccess = "success"
	resultError   = "error"
	resultSkipped = "skipped"
)

// Metrics bundles the counters of one pipeline run.
type Metrics struct {
	registry *prometheus.Registry

	FilesTotal     *prometheus.CounterVec
	RowsLoaded     *prometheus.CounterVec
	SensorsDropped prometheus.Counter
	RowsResampled  prometheus.Counter
	OutputsTotal   *prometheus.CounterVec
	RunsTotal      *prometheus.CounterVec
	RunDuration    prometheus.Histogram
}

// New constructs metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FilesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "files_total",
				Help: "Total input files by kind and result",
			},
			[]string{"kind", "result"},
		),
		RowsLoaded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "rows_loaded_total",
				Help: "Total input rows loaded by kind",
			},
			[]string{"kind"},
		),
		SensorsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "sensors_dropped_total",
			Help: "Sensors without samples inside the resample grid",
		}),
		RowsResampled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "rows_resampled_total",
			Help: "Total resampled output rows",
		}),
		OutputsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "outputs_total",
				Help: "Total output files by name and result",
			},
			[]string{"output", "result"},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "runs_total",
				Help: "Total pipeline runs by result",
			},
			[]string{"result"},
		),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricPrefix + "run_duration_seconds",
			Help:    "Pipeline run duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(
		m.FilesTotal,
		m.RowsLoaded,
		m.SensorsDropped,
		m.RowsResampled,
		m.OutputsTotal,
		m.RunsTotal,
		m.RunDuration,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveFiles records loaded and skipped files of one kind.
func (m *Metrics) ObserveFiles(kind string, loaded, skipped int) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	if loaded > 0 {
		m.FilesTotal.WithLabelValues(kind, resultSuccess).Add(float64(loaded))
	}
	if skipped > 0 {
		m.FilesTotal.WithLabelValues(kind, resultSkipped).Add(float64(skipped))
	}
}

// AddRows records loaded rows of one kind.
func (m *Metrics) AddRows(kind string, rows int) {
	if m == nil || rows <= 0 {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.RowsLoaded.WithLabelValues(kind).Add(float64(rows))
}

// ObserveResample records the resampled row count and dropped sensors.
func (m *Metrics) ObserveResample(rows, dropped int) {
	if m == nil {
		return
	}
	if rows > 0 {
		m.RowsResampled.Add(float64(rows))
	}
	if dropped > 0 {
		m.SensorsDropped.Add(float64(dropped))
	}
}

// ObserveOutput records one output file write.
func (m *Metrics) ObserveOutput(output string, err error) {
	if m == nil {
		return
	}
	if output == "" {
		output = "unknown"
	}
	m.OutputsTotal.WithLabelValues(output, result(err)).Inc()
}

// ObserveRun records run result and duration.
func (m *Metrics) ObserveRun(err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(result(err)).Inc()
	m.RunDuration.Observe(duration.Seconds())
}

// WriteTextfile writes all metrics in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	ResultSkipped = resultSkipped
)

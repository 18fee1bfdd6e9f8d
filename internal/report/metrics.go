package report

import (
	"path/filepath"

	"github.com/Afrawles/timereport/internal/tracker"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsExporter writes tracker timings in the Prometheus text format, for
// node_exporter's textfile collector.
type MetricsExporter struct {
	OutputDir string
}

func NewMetricsExporter(outputDir string) *MetricsExporter {
	return &MetricsExporter{OutputDir: outputDir}
}

func (e *MetricsExporter) Name() string { return FormatMetrics }

// Registry builds a fresh registry holding the tracker's metrics. Tasks that
// share a name are summed.
func (e *MetricsExporter) Registry(tr *tracker.Tracker) (*prometheus.Registry, error) {
	taskDuration := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "timereport_task_duration_seconds",
			Help: "Time spent on a task",
		},
		[]string{"tracker", "task"},
	)
	totalDuration := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "timereport_total_duration_seconds",
			Help: "Time spent on all tasks of a tracker",
		},
		[]string{"tracker"},
	)
	taskCount := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "timereport_tasks",
			Help: "Number of tasks recorded by a tracker",
		},
		[]string{"tracker"},
	)

	reg := prometheus.NewRegistry()
	for _, c := range []prometheus.Collector{taskDuration, totalDuration, taskCount} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	for _, row := range tr.Rows() {
		taskDuration.WithLabelValues(tr.Name(), row.Name).Add(row.Duration.Seconds())
	}
	totalDuration.WithLabelValues(tr.Name()).Set(tr.TotalDuration().Seconds())
	taskCount.WithLabelValues(tr.Name()).Set(float64(tr.Len()))

	return reg, nil
}

func (e *MetricsExporter) Export(tr *tracker.Tracker) (string, error) {
	reg, err := e.Registry(tr)
	if err != nil {
		return "", err
	}

	path := filepath.Join(e.OutputDir, FileName(tr.Name(), "prom"))
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return "", &tracker.IOError{Op: "write metrics", Path: path, Err: err}
	}
	return path, nil
}

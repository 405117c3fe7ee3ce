package rollblock

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsNamespace prefixes every metric name.
const MetricsNamespace = "rollblock"

// Metrics collects counters for smoothing runs.
type Metrics struct {
	registry *prometheus.Registry

	rowsRead       prometheus.Counter
	rowsWritten    prometheus.Counter
	windows        prometheus.Counter
	bytesWritten   prometheus.Counter
	runDuration    prometheus.Gauge
	lastSuccess    prometheus.Gauge
	failures       *prometheus.CounterVec
	lastBlockSize  prometheus.Gauge
	lastSeriesSize prometheus.Gauge
}

// NewMetrics creates run metrics registered on a fresh registry.
func NewMetrics(namespace string) (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Number of input rows parsed",
		}),
		rowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Number of output rows written",
		}),
		windows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "windows_computed_total",
			Help:      "Number of rolling-average windows computed",
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "output_bytes_total",
			Help:      "Number of bytes stored for output series",
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the most recent run",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the most recent successful run",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_failures_total",
			Help:      "Number of failed runs by error kind",
		}, []string{"kind"}),
		lastBlockSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_block_size",
			Help:      "Window size of the most recent run",
		}),
		lastSeriesSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_series_length",
			Help:      "Input series length of the most recent run",
		}),
	}

	err := errors.Join(
		m.registry.Register(m.rowsRead),
		m.registry.Register(m.rowsWritten),
		m.registry.Register(m.windows),
		m.registry.Register(m.bytesWritten),
		m.registry.Register(m.runDuration),
		m.registry.Register(m.lastSuccess),
		m.registry.Register(m.failures),
		m.registry.Register(m.lastBlockSize),
		m.registry.Register(m.lastSeriesSize),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Registry exposes the underlying registry, e.g. for an HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observe(res *RunResult, block int) {
	m.rowsRead.Add(float64(res.RowsRead))
	m.rowsWritten.Add(float64(res.RowsWritten))
	m.windows.Add(float64(res.Windows))
	m.bytesWritten.Add(float64(res.BytesWritten))
	m.runDuration.Set(res.Duration.Seconds())
	m.lastBlockSize.Set(float64(block))
	m.lastSeriesSize.Set(float64(res.RowsRead))
	m.lastSuccess.Set(float64(time.Now().Unix()))
}

func (m *Metrics) fail(err error, d time.Duration) {
	m.failures.WithLabelValues(errorKind(err)).Inc()
	m.runDuration.Set(d.Seconds())
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return newStorageError(StorageErrorTypeWrite, "failed to write metrics", path, err)
	}
	return nil
}

func errorKind(err error) string {
	switch ExitCode(err) {
	case ExitParse:
		return "parse"
	case ExitConfig:
		return "config"
	}
	if errors.Is(err, ErrRender) {
		return "render"
	}
	return "io"
}

package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments writers. A nil *Metrics records nothing.
type Metrics struct {
	rowsWritten   prometheus.Counter
	rowGroups     prometheus.Counter
	bytesWritten  prometheus.Counter
	rowGroupBytes prometheus.Histogram
	filesFinished prometheus.Counter
	writeFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		rowsWritten: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "prism_writer_rows_written_total",
			Help: "Total number of rows accepted by writers.",
		}),
		rowGroups: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "prism_writer_row_groups_flushed_total",
			Help: "Total number of row groups written.",
		}),
		bytesWritten: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "prism_writer_bytes_written_total",
			Help: "Total number of bytes written to sinks.",
		}),
		rowGroupBytes: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "prism_writer_row_group_size_bytes",
			Help:    "Size of written row groups.",
			Buckets: prometheus.ExponentialBuckets(64<<10, 4, 8),
		}),
		filesFinished: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "prism_writer_files_finished_total",
			Help: "Total number of files completed with a footer.",
		}),
		writeFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "prism_writer_failures_total",
			Help: "Total number of writes aborted by a fatal error.",
		}),
	}
}

func (m *Metrics) observeRow() {
	if m == nil {
		return
	}
	m.rowsWritten.Inc()
}

func (m *Metrics) observeRowGroup(size int64) {
	if m == nil {
		return
	}
	m.rowGroups.Inc()
	m.rowGroupBytes.Observe(float64(size))
}

func (m *Metrics) observeBytes(n int64) {
	if m == nil {
		return
	}
	m.bytesWritten.Add(float64(n))
}

func (m *Metrics) observeFinish() {
	if m == nil {
		return
	}
	m.filesFinished.Inc()
}

func (m *Metrics) observeFailure() {
	if m == nil {
		return
	}
	m.writeFailures.Inc()
}

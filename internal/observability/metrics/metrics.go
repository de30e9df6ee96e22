package metrics

import "github.com/prometheus/client_golang/prometheus"

// ImportMetrics exposes counters/histograms for the bulk import pipeline.
type ImportMetrics struct {
	importsTotal   *prometheus.CounterVec
	rowsTotal      *prometheus.CounterVec
	importDuration *prometheus.HistogramVec
}

func NewImportMetrics(reg prometheus.Registerer) *ImportMetrics {
	m := &ImportMetrics{
		importsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grooming",
			Subsystem: "importer",
			Name:      "imports_total",
			Help:      "Total import runs by final status",
		}, []string{"status"}),
		rowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grooming",
			Subsystem: "importer",
			Name:      "rows_total",
			Help:      "Total processed rows by outcome",
		}, []string{"outcome"}),
		importDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "grooming",
			Subsystem: "importer",
			Name:      "import_duration_seconds",
			Help:      "Wall-clock duration of import runs",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.importsTotal, m.rowsTotal, m.importDuration)
	return m
}

func (m *ImportMetrics) ObserveImport(status string, seconds float64) {
	if m == nil {
		return
	}
	m.importsTotal.WithLabelValues(status).Inc()
	m.importDuration.WithLabelValues(status).Observe(seconds)
}

func (m *ImportMetrics) ObserveRow(outcome string) {
	if m == nil {
		return
	}
	m.rowsTotal.WithLabelValues(outcome).Inc()
}

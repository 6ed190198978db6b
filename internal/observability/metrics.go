package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the composite pipeline.
type Metrics struct {
	PipelineRunning    prometheus.Gauge
	StageDuration      *prometheus.HistogramVec // labels: stage={query,fetch,load,rotate,crop,render,write,publish}
	CompositesRendered prometheus.Counter
	CompositeBytes     prometheus.Gauge

	// Archive metrics.
	RecordsFound    *prometheus.CounterVec // labels: instrument
	FilesDownloaded prometheus.Counter
	FilesSkipped    prometheus.Counter
	BytesDownloaded prometheus.Counter
	ArchiveRequests *prometheus.CounterVec // labels: method={query,getdata,download}, outcome={success,error}

	// Map metrics.
	MapsLoaded *prometheus.CounterVec // labels: instrument
}

func newMetrics() *Metrics {
	return &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sdo_composite",
			Name:      "pipeline_running",
			Help:      "1 while the pipeline is running, 0 otherwise.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sdo_composite",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}, []string{"stage"}),
		CompositesRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sdo_composite",
			Name:      "composites_rendered_total",
			Help:      "Total composite figures rendered.",
		}),
		CompositeBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sdo_composite",
			Name:      "composite_bytes",
			Help:      "Encoded size of the last composite.",
		}),
		RecordsFound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sdo_composite",
			Name:      "records_found_total",
			Help:      "Archive records returned by searches, by instrument.",
		}, []string{"instrument"}),
		FilesDownloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sdo_composite",
			Name:      "files_downloaded_total",
			Help:      "Total files transferred from the archive.",
		}),
		FilesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sdo_composite",
			Name:      "files_skipped_total",
			Help:      "Total files already present locally and not transferred.",
		}),
		BytesDownloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sdo_composite",
			Name:      "bytes_downloaded_total",
			Help:      "Total bytes transferred from the archive.",
		}),
		ArchiveRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sdo_composite",
			Name:      "archive_requests_total",
			Help:      "Archive requests by method and outcome.",
		}, []string{"method", "outcome"}),
		MapsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sdo_composite",
			Name:      "maps_loaded_total",
			Help:      "Image maps decoded from local files, by instrument.",
		}, []string{"instrument"}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PipelineRunning,
		m.StageDuration,
		m.CompositesRendered,
		m.CompositeBytes,
		m.RecordsFound,
		m.FilesDownloaded,
		m.FilesSkipped,
		m.BytesDownloaded,
		m.ArchiveRequests,
		m.MapsLoaded,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

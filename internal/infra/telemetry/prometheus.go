package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"mcpreg/internal/domain"
)

type PrometheusMetrics struct {
	scans         prometheus.Counter
	scanDuration  prometheus.Histogram
	scanSkipped   prometheus.Counter
	toolsByStatus *prometheus.GaugeVec
	builds        *prometheus.CounterVec
	buildDuration *prometheus.HistogramVec
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		scans: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mcpreg_scans_total",
				Help: "Total number of completed registry scans",
			},
		),
		scanDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mcpreg_scan_duration_seconds",
				Help:    "Duration of registry scans in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),
		scanSkipped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mcpreg_scan_skipped_total",
				Help: "Total number of candidate directories that could not be classified",
			},
		),
		toolsByStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mcpreg_tools",
				Help: "Number of tools per lifecycle status in the latest scan",
			},
			[]string{"status"},
		),
		builds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpreg_builds_total",
				Help: "Total number of build attempts",
			},
			[]string{"tool", "result"},
		),
		buildDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mcpreg_build_duration_seconds",
				Help:    "Duration of tool builds in seconds",
				Buckets: []float64{1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"result"},
		),
	}
}

func (p *PrometheusMetrics) ObserveScan(metric domain.ScanMetric) {
	p.scans.Inc()
	p.scanDuration.Observe(metric.Duration.Seconds())
	if metric.Skipped > 0 {
		p.scanSkipped.Add(float64(metric.Skipped))
	}
	for _, status := range domain.AllStatuses {
		p.toolsByStatus.WithLabelValues(string(status)).Set(float64(metric.Counts[status]))
	}
}

func (p *PrometheusMetrics) ObserveBuild(tool string, result domain.BuildResult, duration time.Duration) {
	p.builds.WithLabelValues(tool, string(result)).Inc()
	p.buildDuration.WithLabelValues(string(result)).Observe(duration.Seconds())
}

var _ domain.Metrics = (*PrometheusMetrics)(nil)

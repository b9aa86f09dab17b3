package domain

import "time"

// ScanMetric captures one completed scan.
type ScanMetric struct {
	Duration time.Duration
	Counts   map[ToolStatus]int
	Skipped  int
}

// BuildResult labels the outcome of a build.
type BuildResult string

const (
	BuildResultSuccess BuildResult = "success"
	BuildResultFailure BuildResult = "failure"
)

// Metrics records registry activity.
type Metrics interface {
	ObserveScan(metric ScanMetric)
	ObserveBuild(tool string, result BuildResult, duration time.Duration)
}

// NoopMetrics discards all observations.
type NoopMetrics struct{}

func (NoopMetrics) ObserveScan(ScanMetric)                          {}
func (NoopMetrics) ObserveBuild(string, BuildResult, time.Duration) {}

package telemetry

import (
	"sort"
	"sync"
	"time"
)

// HealthReport is the /healthz response body.
type HealthReport struct {
	Status string        `json:"status"`
	Scan   *ScanHealth   `json:"scan,omitempty"`
	Checks []HealthCheck `json:"checks,omitempty"`
}

type HealthCheck struct {
	Name     string    `json:"name"`
	Status   string    `json:"status"`
	LastBeat time.Time `json:"lastBeat,omitempty"`
}

// HealthTracker aggregates heartbeats from background loops.
// A loop is stale when it has not beaten within its deadline.
type HealthTracker struct {
	mu    sync.Mutex
	loops map[string]*Heartbeat
	now   func() time.Time
}

type Heartbeat struct {
	tracker  *HealthTracker
	name     string
	deadline time.Duration
	last     time.Time
}

func NewHealthTracker() *HealthTracker {
	return &HealthTracker{
		loops: make(map[string]*Heartbeat),
		now:   time.Now,
	}
}

// Register adds a named loop. A zero deadline never goes stale.
func (t *HealthTracker) Register(name string, deadline time.Duration) *Heartbeat {
	t.mu.Lock()
	defer t.mu.Unlock()

	beat := &Heartbeat{tracker: t, name: name, deadline: deadline}
	t.loops[name] = beat
	return beat
}

func (h *Heartbeat) Beat() {
	if h == nil || h.tracker == nil {
		return
	}
	h.tracker.mu.Lock()
	h.last = h.tracker.now()
	h.tracker.mu.Unlock()
}

func (t *HealthTracker) Report() HealthReport {
	if t == nil {
		return HealthReport{Status: "ok"}
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	report := HealthReport{Status: "ok"}
	for _, beat := range t.loops {
		check := HealthCheck{Name: beat.name, Status: "ok", LastBeat: beat.last}
		switch {
		case beat.last.IsZero():
			check.Status = "starting"
		case beat.deadline > 0 && now.Sub(beat.last) > beat.deadline:
			check.Status = "stale"
			report.Status = "degraded"
		}
		report.Checks = append(report.Checks, check)
	}
	sort.Slice(report.Checks, func(i, j int) bool {
		return report.Checks[i].Name < report.Checks[j].Name
	})
	return report
}

package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"mcpreg/internal/domain"
	"mcpreg/internal/infra/telemetry"
)

var rescanParser = cron.NewParser(
	cron.Minute |
		cron.Hour |
		cron.Dom |
		cron.Month |
		cron.Dow |
		cron.Descriptor,
)

// Rescanner runs the scan behind a watcher trigger or a schedule tick and
// reports status transitions since the previous scan.
type Rescanner struct {
	registry *Registry
	logger   *zap.Logger

	mu       sync.Mutex
	previous []domain.ToolRecord
	primed   bool
}

func NewRescanner(registry *Registry, logger *zap.Logger) *Rescanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rescanner{registry: registry, logger: logger.Named("rescan")}
}

// Rescan scans and returns the changes relative to the previous rescan.
// Scans run for List or Info calls do not move the baseline.
func (r *Rescanner) Rescan(ctx context.Context, event string) ([]domain.StatusChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report, err := r.registry.Scan(ctx)
	if err != nil {
		return nil, err
	}
	previous, primed := r.previous, r.primed
	r.previous, r.primed = report.Records, true
	if !primed {
		return nil, nil
	}
	changes := domain.DiffScans(previous, report.Records)
	for _, change := range changes {
		r.logger.Info("tool status changed",
			telemetry.EventField(event),
			telemetry.ScanIDField(report.ID),
			telemetry.ToolField(change.Name),
			zap.String("from", string(change.From)),
			zap.String("to", string(change.To)),
		)
	}
	return changes, nil
}

// RescanScheduler triggers rescans on a cron schedule.
type RescanScheduler struct {
	spec      string
	schedule  cron.Schedule
	rescanner *Rescanner
	health    *telemetry.HealthTracker
	logger    *zap.Logger
	cron      *cron.Cron
}

// ParseRescanSchedule accepts five-field cron expressions and descriptors
// such as "@every 5m" or "@hourly".
func ParseRescanSchedule(spec string) (cron.Schedule, error) {
	clean := strings.TrimSpace(spec)
	if clean == "" {
		return nil, fmt.Errorf("rescan schedule is required")
	}
	schedule, err := rescanParser.Parse(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid rescan schedule: %w", err)
	}
	return schedule, nil
}

// NewRescanScheduler returns nil when spec is empty.
func NewRescanScheduler(spec string, rescanner *Rescanner, health *telemetry.HealthTracker, logger *zap.Logger) (*RescanScheduler, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}
	schedule, err := ParseRescanSchedule(spec)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RescanScheduler{
		spec:      strings.TrimSpace(spec),
		schedule:  schedule,
		rescanner: rescanner,
		health:    health,
		logger:    logger.Named("scheduler"),
	}, nil
}

// Start registers the job and runs it until ctx is done.
func (s *RescanScheduler) Start(ctx context.Context) {
	if s == nil {
		return
	}
	var beat *telemetry.Heartbeat
	if s.health != nil {
		beat = s.health.Register("rescan", 2*schedulePeriod(s.schedule, time.Now()))
	}
	s.cron = cron.New(cron.WithParser(rescanParser))
	s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		if _, err := s.rescanner.Rescan(ctx, telemetry.EventScheduledScan); err != nil {
			s.logger.Warn("scheduled rescan failed", zap.Error(err))
			return
		}
		beat.Beat()
	}))
	s.cron.Start()
	beat.Beat()
	s.logger.Info("rescan schedule started", zap.String("schedule", s.spec))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop halts the schedule and waits for a running rescan to finish.
func (s *RescanScheduler) Stop() {
	if s == nil || s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

func schedulePeriod(schedule cron.Schedule, now time.Time) time.Duration {
	next := schedule.Next(now)
	after := schedule.Next(next)
	if after.IsZero() || next.IsZero() {
		return 0
	}
	return after.Sub(next)
}

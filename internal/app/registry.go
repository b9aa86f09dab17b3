package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mcpreg/internal/domain"
	"mcpreg/internal/infra/classifier"
	"mcpreg/internal/infra/enumerator"
	"mcpreg/internal/infra/manifest"
	"mcpreg/internal/infra/telemetry"
)

// Registry scans the tool roots and serves the presentation operations.
// Every operation classifies from a fresh scan; the latest scan is kept only
// for change reporting.
type Registry struct {
	cfg        domain.RegistryConfig
	enumerator *enumerator.Enumerator
	membership domain.MembershipReader
	classifier *classifier.Classifier
	builder    domain.Builder
	history    domain.BuildHistory
	metrics    domain.Metrics
	logger     *zap.Logger
	now        func() time.Time

	mu   sync.RWMutex
	last *ScanReport
}

// RegistryOptions captures dependencies for Registry.
type RegistryOptions struct {
	Config     domain.RegistryConfig
	Membership domain.MembershipReader
	Discoverer domain.CapabilityDiscoverer
	Builder    domain.Builder
	History    domain.BuildHistory
	Metrics    domain.Metrics
	Logger     *zap.Logger
}

// ScanReport is the product of one scan.
type ScanReport struct {
	ID         string              `json:"id"`
	StartedAt  time.Time           `json:"startedAt"`
	Duration   time.Duration       `json:"duration"`
	Configured int                 `json:"configuredEntries"`
	Skipped    int                 `json:"skipped"`
	Records    []domain.ToolRecord `json:"records"`
}

func NewRegistry(opts RegistryOptions) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := opts.Config.WithDefaults()

	membership := opts.Membership
	if membership == nil {
		membership = emptyMembership{}
	}
	builder := opts.Builder
	if builder == nil {
		builder = domain.BuilderFunc(func(context.Context, string) error {
			return errors.New("no builder configured")
		})
	}
	history := opts.History
	if history == nil {
		history = domain.NoopBuildHistory{}
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = domain.NoopMetrics{}
	}

	return &Registry{
		cfg:        cfg,
		enumerator: enumerator.New(cfg.ToolPrefix, logger),
		membership: membership,
		classifier: classifier.New(classifier.Options{
			ArchiveRoot:  cfg.ArchiveRoot,
			ToolPrefix:   cfg.ToolPrefix,
			ManifestName: cfg.ManifestName,
			DefaultEntry: cfg.DefaultEntryPoint,
			Discoverer:   opts.Discoverer,
			Logger:       logger,
		}),
		builder: builder,
		history: history,
		metrics: metrics,
		logger:  logger.Named("registry"),
		now:     time.Now,
	}
}

// Config returns the effective registry configuration.
func (r *Registry) Config() domain.RegistryConfig {
	return r.cfg
}

// Scan classifies every candidate directory. Membership is read once before
// any classification; records keep enumeration order, candidate root first.
func (r *Registry) Scan(ctx context.Context) (ScanReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	id, ok := telemetry.ScanIDFromContext(ctx)
	if !ok {
		id = telemetry.NewScanID()
		ctx = telemetry.WithScanID(ctx, id)
	}
	logger := r.logger.With(telemetry.ScanIDField(id))
	started := r.now()
	logger.Debug("scan started", telemetry.EventField(telemetry.EventScanStart))

	members := r.membership.Read(ctx)
	paths := r.candidatePaths()

	records := make([]domain.ToolRecord, len(paths))
	found := make([]bool, len(paths))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.cfg.ScanConcurrency)
	for i, path := range paths {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			records[i], found[i] = r.classifier.Classify(groupCtx, path, members)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return ScanReport{}, domain.E(domain.CodeCanceled, "scan", "scan canceled", err)
	}

	report := ScanReport{
		ID:         id,
		StartedAt:  started,
		Configured: members.Len(),
		Records:    make([]domain.ToolRecord, 0, len(paths)),
	}
	for i := range paths {
		if !found[i] {
			report.Skipped++
			continue
		}
		logger.Debug("tool classified",
			telemetry.ToolField(records[i].Name),
			telemetry.StatusField(string(records[i].Status)),
		)
		report.Records = append(report.Records, records[i])
	}
	report.Duration = r.now().Sub(started)

	counts := countStatuses(report.Records)
	r.metrics.ObserveScan(domain.ScanMetric{
		Duration: report.Duration,
		Counts:   counts,
		Skipped:  report.Skipped,
	})
	logger.Info("scan complete",
		telemetry.EventField(telemetry.EventScanComplete),
		telemetry.DurationField(report.Duration),
		zap.Int("tools", len(report.Records)),
		zap.Int("skipped", report.Skipped),
		zap.Int("configured_entries", report.Configured),
	)

	r.mu.Lock()
	last := report
	r.last = &last
	r.mu.Unlock()
	return report, nil
}

// LastScan returns the most recent completed scan.
func (r *Registry) LastScan() (ScanReport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return ScanReport{}, false
	}
	return *r.last, true
}

// ScanStatus summarises the last completed scan for /healthz.
func (r *Registry) ScanStatus() (telemetry.ScanStatus, bool) {
	report, ok := r.LastScan()
	if !ok {
		return telemetry.ScanStatus{}, false
	}
	return telemetry.ScanStatus{
		ID:          report.ID,
		CompletedAt: report.StartedAt.Add(report.Duration),
		Tools:       len(report.Records),
		Skipped:     report.Skipped,
	}, true
}

var _ telemetry.ScanSource = (*Registry)(nil)

// List returns records matching the status filter ("" or "all" for every
// status), sorted by name.
func (r *Registry) List(ctx context.Context, filter string) ([]domain.ListEntry, error) {
	status, all, err := domain.ParseStatusFilter(filter)
	if err != nil {
		return nil, domain.E(domain.CodeInvalidArgument, "list", err.Error(), err)
	}
	report, err := r.Scan(ctx)
	if err != nil {
		return nil, err
	}
	selected := make([]domain.ToolRecord, 0, len(report.Records))
	for _, record := range report.Records {
		if all || record.Status == status {
			selected = append(selected, record)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Name < selected[j].Name
	})
	entries := make([]domain.ListEntry, 0, len(selected))
	for _, record := range selected {
		entries = append(entries, domain.NewListEntry(record))
	}
	return entries, nil
}

// Info returns the record whose name is name or the prefixed form of name.
func (r *Registry) Info(ctx context.Context, name string) (domain.ToolDetail, error) {
	record, err := r.lookup(ctx, "info", name)
	if err != nil {
		return domain.ToolDetail{}, err
	}
	detail := domain.ToolDetail{
		ToolRecord:       record,
		CanonicalVersion: manifest.CanonicalVersion(record.Version),
	}
	last, ok, err := r.history.Last(record.Name)
	if err != nil {
		r.logger.Warn("build history lookup failed", telemetry.ToolField(record.Name), zap.Error(err))
	} else if ok {
		detail.LastBuild = &last
	}
	return detail, nil
}

// ConfigSnippet renders the client configuration fragment for a tool.
func (r *Registry) ConfigSnippet(ctx context.Context, name string) (string, error) {
	record, err := r.lookup(ctx, "snippet", name)
	if err != nil {
		return "", err
	}
	return RenderSnippet(record, r.cfg.Snippet)
}

// Build runs the configured build steps in the tool root and records the attempt.
func (r *Registry) Build(ctx context.Context, name string) (string, error) {
	record, err := r.lookup(ctx, "build", name)
	if err != nil {
		return "", err
	}

	buildID := telemetry.NewBuildID()
	logger := r.logger.With(telemetry.BuildIDField(buildID), telemetry.ToolField(record.Name))
	logger.Info("build started", telemetry.EventField(telemetry.EventBuildStart), zap.String("path", record.Path))

	started := r.now()
	buildErr := r.builder.RunBuild(ctx, record.Path)
	duration := r.now().Sub(started)

	entry := domain.BuildRecord{
		ID:        buildID,
		Tool:      record.Name,
		Path:      record.Path,
		StartedAt: started,
		Duration:  duration,
		Succeeded: buildErr == nil,
	}
	result := domain.BuildResultSuccess
	if buildErr != nil {
		entry.Error = buildErr.Error()
		result = domain.BuildResultFailure
	}
	if err := r.history.Append(entry); err != nil {
		logger.Warn("build history append failed", zap.Error(err))
	}
	r.metrics.ObserveBuild(record.Name, result, duration)

	if buildErr != nil {
		logger.Warn("build failed",
			telemetry.EventField(telemetry.EventBuildFailure),
			telemetry.DurationField(duration),
			zap.Error(buildErr),
		)
		return "", &domain.Error{
			Code:    domain.CodeFailedPrecond,
			Op:      "build",
			Message: fmt.Sprintf("Failed to build %s: %s", record.Name, buildErr.Error()),
			Cause:   fmt.Errorf("%w: %w", domain.ErrBuildFailed, buildErr),
			Meta:    map[string]string{"tool": record.Name, "buildId": buildID},
		}
	}
	logger.Info("build succeeded",
		telemetry.EventField(telemetry.EventBuildSuccess),
		telemetry.DurationField(duration),
	)
	return "Successfully built " + record.Name, nil
}

// Summary aggregates status counts over a fresh scan.
func (r *Registry) Summary(ctx context.Context) (domain.Summary, error) {
	report, err := r.Scan(ctx)
	if err != nil {
		return domain.Summary{}, err
	}
	return domain.Summarize(report.Records), nil
}

// History lists recorded builds, newest first. An empty name lists every tool.
func (r *Registry) History(name string, limit int) ([]domain.BuildRecord, error) {
	tool := strings.TrimSpace(name)
	if tool != "" && r.cfg.ToolPrefix != "" && !strings.HasPrefix(tool, r.cfg.ToolPrefix) {
		tool = r.cfg.ToolPrefix + tool
	}
	records, err := r.history.List(tool, limit)
	if err != nil {
		return nil, domain.Wrap(domain.CodeInternal, "history", err)
	}
	return records, nil
}

// lookup matches name or the prefixed name. Records from the candidate root
// come first in scan order, so they win over archived namesakes.
func (r *Registry) lookup(ctx context.Context, op, name string) (domain.ToolRecord, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return domain.ToolRecord{}, domain.E(domain.CodeInvalidArgument, op, "tool name is required", nil)
	}
	report, err := r.Scan(ctx)
	if err != nil {
		return domain.ToolRecord{}, err
	}
	prefixed := r.cfg.ToolPrefix + trimmed
	for _, record := range report.Records {
		if record.Name == trimmed || record.Name == prefixed {
			return record, nil
		}
	}
	return domain.ToolRecord{}, domain.ToolNotFound(op, trimmed)
}

func (r *Registry) candidatePaths() []string {
	roots := []string{r.cfg.CandidateRoot, r.cfg.ArchiveRoot}
	seen := make(map[string]struct{})
	var paths []string
	for _, root := range roots {
		for _, path := range r.enumerator.Candidates(root) {
			key := filepath.Clean(path)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			paths = append(paths, path)
		}
	}
	return paths
}

// RenderSnippet renders { <shortName>: { command, args: [<path>/<entry>] } }.
func RenderSnippet(record domain.ToolRecord, cfg domain.SnippetConfig) (string, error) {
	command := cfg.Command
	if command == "" {
		command = domain.DefaultSnippetCommand
	}
	entry := cfg.EntryPoint
	if entry == "" {
		entry = domain.DefaultSnippetEntryPoint
	}
	fragment := map[string]snippetServer{
		record.ShortName: {
			Command: command,
			Args:    []string{filepath.Join(record.Path, filepath.FromSlash(entry))},
		},
	}
	data, err := json.MarshalIndent(fragment, "", "  ")
	if err != nil {
		return "", domain.Wrap(domain.CodeInternal, "snippet", err)
	}
	return string(data), nil
}

type snippetServer struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

type emptyMembership struct{}

func (emptyMembership) Read(context.Context) domain.Membership {
	return domain.NewMembership()
}

var _ domain.RegistryService = (*Registry)(nil)

func countStatuses(records []domain.ToolRecord) map[domain.ToolStatus]int {
	counts := make(map[domain.ToolStatus]int, len(domain.AllStatuses))
	for _, record := range records {
		counts[record.Status]++
	}
	return counts
}

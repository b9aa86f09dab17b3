package app

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"mcpreg/internal/infra/mcpserver"
	"mcpreg/internal/infra/telemetry"
	"mcpreg/internal/infra/watch"
)

// ServeConfig selects the optional background services of serve.
type ServeConfig struct {
	Settings      Settings
	Watch         bool
	Observability *ObservabilityOptions
}

// Application runs the MCP registry server and its background services.
type Application struct {
	ctx           context.Context
	settings      Settings
	watch         bool
	observability *ObservabilityOptions
	logger        *zap.Logger
	registry      *Registry
	gatherer      prometheus.Gatherer
	health        *telemetry.HealthTracker
	rescanner     *Rescanner
	scheduler     *RescanScheduler
	server        *mcpserver.Server
}

// ApplicationOptions captures dependencies and settings for Application.
type ApplicationOptions struct {
	Context     context.Context
	ServeConfig ServeConfig
	Logger      *zap.Logger
	Registry    *Registry
	Metrics     *prometheus.Registry
	Health      *telemetry.HealthTracker
	Rescanner   *Rescanner
	Scheduler   *RescanScheduler
	Server      *mcpserver.Server
}

// NewApplication constructs the application runtime.
func NewApplication(opts ApplicationOptions) *Application {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return &Application{
		ctx:           ctx,
		settings:      opts.ServeConfig.Settings,
		watch:         opts.ServeConfig.Watch,
		observability: opts.ServeConfig.Observability,
		logger:        opts.Logger,
		registry:      opts.Registry,
		gatherer:      opts.Metrics,
		health:        opts.Health,
		rescanner:     opts.Rescanner,
		scheduler:     opts.Scheduler,
		server:        opts.Server,
	}
}

// Run serves MCP over stdio and blocks until the client disconnects or ctx is done.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(a.ctx)
	defer cancel()

	cfg := a.registry.Config()
	a.logger.Info("registry configured",
		zap.String("candidate_root", cfg.CandidateRoot),
		zap.String("archive_root", cfg.ArchiveRoot),
		zap.String("config_document", cfg.ConfigDocumentPath),
		zap.String("settings_file", a.settings.SettingsFile),
	)

	if _, err := a.rescanner.Rescan(ctx, telemetry.EventScanStart); err != nil {
		a.logger.Warn("initial scan failed", zap.Error(err))
	}

	metricsEnabled, healthzEnabled := resolveObservabilityDefaults(a.observability)
	if addr := a.settings.ObservabilityListenAddress; addr != "" {
		observability := telemetry.NewServer(telemetry.ServerOptions{
			Addr:     addr,
			Metrics:  metricsEnabled,
			Healthz:  healthzEnabled,
			Gatherer: a.gatherer,
			Health:   a.health,
			Scans:    a.registry,
		}, a.logger)
		if observability.Enabled() {
			go func() {
				if err := observability.Serve(ctx); err != nil {
					a.logger.Warn("observability server failed", zap.Error(err))
				}
			}()
		}
	}

	a.scheduler.Start(ctx)

	if a.watch {
		go a.runWatcher(ctx)
	}

	return a.server.Run(ctx)
}

func (a *Application) runWatcher(ctx context.Context) {
	cfg := a.registry.Config()
	beat := a.health.Register("watch", 0)
	watcher := watch.New(watch.Options{
		Roots:      []string{cfg.CandidateRoot, cfg.ArchiveRoot},
		ConfigPath: cfg.ConfigDocumentPath,
		ToolPrefix: cfg.ToolPrefix,
		Logger:     a.logger,
	})
	beat.Beat()
	err := watcher.Run(ctx, func(ctx context.Context, _ watch.Trigger) {
		if _, err := a.rescanner.Rescan(ctx, telemetry.EventWatchTrigger); err != nil {
			a.logger.Warn("watch rescan failed", zap.Error(err))
			return
		}
		beat.Beat()
	})
	if err != nil {
		a.logger.Warn("watcher stopped", zap.Error(err))
	}
}

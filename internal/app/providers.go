package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"mcpreg/internal/domain"
	"mcpreg/internal/infra/buildlog"
	"mcpreg/internal/infra/builder"
	"mcpreg/internal/infra/capability"
	"mcpreg/internal/infra/mcpserver"
	"mcpreg/internal/infra/membership"
	"mcpreg/internal/infra/telemetry"
)

func NewServeSettings(cfg ServeConfig) Settings {
	return cfg.Settings
}

func NewRegistryConfig(settings Settings) domain.RegistryConfig {
	return settings.Registry.WithDefaults()
}

func NewMetricsRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	registry.MustRegister(prometheus.NewGoCollector())
	return registry
}

func NewMetrics(registry *prometheus.Registry) domain.Metrics {
	return telemetry.NewPrometheusMetrics(registry)
}

func NewHealthTracker() *telemetry.HealthTracker {
	return telemetry.NewHealthTracker()
}

func NewMembershipReader(cfg domain.RegistryConfig, logger *zap.Logger) domain.MembershipReader {
	return membership.NewReader(membership.Options{
		Path:       cfg.ConfigDocumentPath,
		Format:     cfg.ConfigFormat,
		ServersKey: cfg.ServersKey,
		Logger:     logger,
	})
}

func NewCapabilityDiscoverer(cfg domain.RegistryConfig, logger *zap.Logger) (domain.CapabilityDiscoverer, error) {
	pattern := capability.NewPatternDiscoverer(cfg.CapabilitySource, cfg.ToolPrefix, logger)
	return capability.NewCachingDiscoverer(pattern, pattern, cfg.CapabilityCacheSize)
}

func NewBuilder(cfg domain.RegistryConfig, logger *zap.Logger) domain.Builder {
	return builder.New(builder.Options{
		Steps:  cfg.BuildSteps,
		Logger: logger,
	})
}

// NewBuildHistory opens the build log. When the database cannot be opened
// (another process holds the lock), builds still run without history.
func NewBuildHistory(settings Settings, logger *zap.Logger) (domain.BuildHistory, func(), error) {
	if settings.BuildLogPath == "" {
		return domain.NoopBuildHistory{}, func() {}, nil
	}
	store, err := buildlog.OpenStore(settings.BuildLogPath)
	if err != nil {
		logger.Warn("build log unavailable", zap.String("path", settings.BuildLogPath), zap.Error(err))
		return domain.NoopBuildHistory{}, func() {}, nil
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("build log close failed", zap.Error(err))
		}
	}
	return store, cleanup, nil
}

func NewRegistryService(
	cfg domain.RegistryConfig,
	membership domain.MembershipReader,
	discoverer domain.CapabilityDiscoverer,
	builder domain.Builder,
	history domain.BuildHistory,
	metrics domain.Metrics,
	logger *zap.Logger,
) *Registry {
	return NewRegistry(RegistryOptions{
		Config:     cfg,
		Membership: membership,
		Discoverer: discoverer,
		Builder:    builder,
		History:    history,
		Metrics:    metrics,
		Logger:     logger,
	})
}

func NewRescanSchedulerProvider(
	settings Settings,
	rescanner *Rescanner,
	health *telemetry.HealthTracker,
	logger *zap.Logger,
) (*RescanScheduler, error) {
	return NewRescanScheduler(settings.RescanSchedule, rescanner, health, logger)
}

func NewMCPServer(registry *Registry, logger *zap.Logger) *mcpserver.Server {
	return mcpserver.New(registry, mcpserver.Options{
		Version: Version,
		Logger:  logger,
	})
}

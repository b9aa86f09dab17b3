//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
)

var CoreInfraSet = wire.NewSet(
	NewLogging,
	NewLogger,
	NewMetricsRegistry,
	NewMetrics,
	NewHealthTracker,
)

var RegistrySet = wire.NewSet(
	NewRegistryConfig,
	NewMembershipReader,
	NewCapabilityDiscoverer,
	NewBuilder,
	NewBuildHistory,
	NewRegistryService,
)

var ServeSet = wire.NewSet(
	NewServeSettings,
	NewRescanner,
	NewRescanSchedulerProvider,
	NewMCPServer,
	wire.Struct(new(ApplicationOptions), "*"),
)

var AppSet = wire.NewSet(
	CoreInfraSet,
	RegistrySet,
	ServeSet,
	NewApplication,
)

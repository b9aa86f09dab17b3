//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"
)

func InitializeApplication(ctx context.Context, cfg ServeConfig, logging LoggingConfig) (*Application, func(), error) {
	wire.Build(AppSet)
	return nil, nil, nil
}

func InitializeRegistry(settings Settings, logging LoggingConfig) (*Registry, func(), error) {
	wire.Build(CoreInfraSet, RegistrySet)
	return nil, nil, nil
}

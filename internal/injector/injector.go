//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"context"

	"github.com/google/wire"

	"github.com/roketz/terrain/internal/config"
	"github.com/roketz/terrain/internal/core/events/bus"
	"github.com/roketz/terrain/internal/core/observability/log"
	"github.com/roketz/terrain/internal/core/terrain"
	"github.com/roketz/terrain/internal/server"
)

func InitializeApp(ctx context.Context, c *config.Config, data terrain.Data) (*App, func(), error) {
	wire.Build(
		ProvideLogger,
		wire.Bind(new(log.Log), new(*log.Logger)),
		bus.New,
		terrain.OptionsFromConfig,
		terrain.New,
		server.OptionsFromConfig,
		ProvideDebugServer,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

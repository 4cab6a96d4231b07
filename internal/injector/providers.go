package injector

import (
	"github.com/roketz/terrain/internal/config"
	"github.com/roketz/terrain/internal/core/events/bus"
	"github.com/roketz/terrain/internal/core/observability/log"
	"github.com/roketz/terrain/internal/core/terrain"
	"github.com/roketz/terrain/internal/server"
)

// App is everything cmd/terrainview runs.
type App struct {
	Logger  *log.Logger
	Bus     bus.EventBus
	Terrain *terrain.Terrain
	Server  *server.DebugServer
}

func ProvideLogger(c *config.Config) (*log.Logger, error) {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	return log.New(log.Options{Level: level, Development: c.Log.Development}), nil
}

func ProvideDebugServer(
	opts server.Options,
	t *terrain.Terrain,
	eventBus bus.EventBus,
	logger log.Log,
) (*server.DebugServer, func(), error) {
	srv, err := server.New(opts, t, eventBus, logger)
	if err != nil {
		return nil, nil, err
	}
	return srv, func() { _ = srv.Close() }, nil
}

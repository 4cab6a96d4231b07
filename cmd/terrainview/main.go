package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/roketz/terrain/internal/config"
	"github.com/roketz/terrain/internal/core/observability/log"
	"github.com/roketz/terrain/internal/core/terrain"
	"github.com/roketz/terrain/internal/injector"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	manifestPath := flag.String("manifest", "", "path to a map manifest")
	flag.Parse()

	if err := run(*configPath, *manifestPath); err != nil {
		fmt.Fprintln(os.Stderr, "terrainview:", err)
		os.Exit(1)
	}
}

func run(configPath, manifestPath string) error {
	if manifestPath == "" {
		return fmt.Errorf("-manifest is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	manifest, data, err := terrain.LoadMap(manifestPath)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, cleanup, err := injector.InitializeApp(ctx, cfg, data)
	if err != nil {
		return err
	}
	defer cleanup()
	defer func() { _ = app.Logger.Sync() }()

	app.Logger.Info("Terrain loaded",
		log.String("map", manifest.Name),
		log.Uint32("width", app.Terrain.Width()),
		log.Uint32("height", app.Terrain.Height()),
		log.Int("spawns", len(manifest.Spawns)),
		log.Uint64("checksum", app.Terrain.Checksum()))

	if err := app.Server.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := app.Server.Stop(stopCtx); err != nil {
		app.Logger.Error("Error stopping server", log.Error(err))
	}
	return nil
}

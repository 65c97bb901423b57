// eveuniverse - local mirror of the EVE Online universe.
//
// Loads the static universe from the public ESI API into SQLite, resolving
// the records each entity references on the way.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/asteroid-belt/eveuniverse/internal/cli"
	"github.com/asteroid-belt/eveuniverse/internal/config"
	"github.com/asteroid-belt/eveuniverse/internal/log"
	"github.com/asteroid-belt/eveuniverse/internal/metrics"
	"github.com/asteroid-belt/eveuniverse/pkg/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}
	cfg.ESI.UserAgent = version.UserAgent(cfg.ESI.UserAgent)

	paths := config.GetPaths(cfg)
	if err := log.Init(log.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Dir: paths.Logs}); err != nil {
		fmt.Fprintf(os.Stderr, "init logging: %v\n", err)
		return 1
	}
	defer func() {
		_ = log.Close()
	}()

	build := version.Current()
	log.Logger().Debug().
		Str("version", build.Version).
		Str("commit", build.Commit).
		Str("go", build.GoVersion).
		Bool("dev", build.DevBuild).
		Msg("starting")

	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		log.Logger().Error().Err(err).Msg("startup failed")
		return 1
	}
	defer func() {
		_ = app.Close()
	}()

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
				log.Logger().Warn().Err(err).Str("addr", cfg.Metrics.Addr).Msg("metrics server stopped")
			}
		}()
	}

	if err := cli.Execute(ctx, app); err != nil {
		return 1
	}
	return 0
}

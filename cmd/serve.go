package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/royalcat/airplaces/geocoder"
	"github.com/royalcat/airplaces/internal/config"
	"github.com/royalcat/airplaces/internal/telemetry"
	"github.com/royalcat/airplaces/server"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func serve(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		return err
	}

	tel, err := telemetry.Setup(ctx.Context, telemetry.Config{
		AppName:  appName,
		Endpoint: cfg.Telemetry.Endpoint,
		LogLevel: level,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tel.Shutdown(shutdownCtx)
	}()

	log := slog.Default()
	svc, err := loadServices(cfg, log)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Run(runCtx, cfg.Server.Listen, svc)
}

// loadConfig reads the config file, if any, and applies the flags that were set.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := ctx.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	if ctx.IsSet("airports") {
		cfg.Data.Airports = ctx.String("airports")
	}
	if ctx.IsSet("cities") {
		cfg.Data.Cities = ctx.String("cities")
	}
	if ctx.IsSet("progress") {
		cfg.Data.Progress = ctx.Bool("progress")
	}
	if ctx.IsSet("airports-remote") {
		cfg.Remote.Airports = ctx.String("airports-remote")
	}
	if ctx.IsSet("timeout") {
		cfg.Remote.Timeout = ctx.Duration("timeout")
	}
	if ctx.IsSet("listen") {
		cfg.Server.Listen = ctx.String("listen")
	}
	if ctx.IsSet("telemetry-endpoint") {
		cfg.Telemetry.Endpoint = ctx.String("telemetry-endpoint")
	}
	if ctx.IsSet("log-level") {
		cfg.Logging.Level = ctx.String("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadServices builds the configured indexes before anything is served.
func loadServices(cfg *config.Config, log *slog.Logger) (server.Services, error) {
	opts := []geocoder.Option{
		geocoder.WithLogger(log),
		geocoder.WithProgress(cfg.Data.Progress),
		geocoder.WithTimeout(cfg.Remote.Timeout),
	}
	svc := server.Services{Logger: log}

	var g errgroup.Group
	if cfg.Data.Progress {
		// one progress bar at a time
		g.SetLimit(1)
	}
	if cfg.Data.Airports != "" {
		g.Go(func() error {
			airports, err := geocoder.LoadAirportsFromFile(cfg.Data.Airports, opts...)
			svc.Airports = airports
			return err
		})
	}
	if cfg.Data.Cities != "" {
		g.Go(func() error {
			cities, err := geocoder.LoadCitiesFromFile(cfg.Data.Cities, opts...)
			svc.Cities = cities
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return svc, err
	}

	var finder geocoder.AirportFinder
	switch {
	case svc.Airports != nil:
		finder = svc.Airports
	case cfg.Remote.Airports != "":
		finder = geocoder.NewRemoteAirports(cfg.Remote.Airports, nil, opts...)
	}
	if svc.Cities != nil && finder != nil {
		svc.Places = geocoder.NewPlaces(svc.Cities, finder, opts...)
	}

	return svc, nil
}

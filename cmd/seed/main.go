package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/iconidentify/newsreel/internal/config"
	"github.com/iconidentify/newsreel/internal/repository"
	"github.com/iconidentify/newsreel/internal/seed"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	fixturePath := flag.String("fixture", "configs/fixture.yaml", "Path to YAML fixture")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	fixture, err := seed.Load(*fixturePath)
	if err != nil {
		logger.Error("failed to load fixture", "path", *fixturePath, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var (
		writer repository.CatalogWriter
		closer func() error
	)
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		if err := repository.MigratePostgres(cfg.Database.PostgresDSN, logger); err != nil {
			logger.Error("failed to migrate", "error", err)
			os.Exit(1)
		}
		store, err := repository.ConnectPostgres(ctx, cfg.Database.PostgresDSN, cfg.Database.MaxConns, logger)
		if err != nil {
			logger.Error("failed to connect postgres", "error", err)
			os.Exit(1)
		}
		writer, closer = store, store.Close
	default:
		store, err := repository.OpenSQLite(ctx, cfg.Database.SQLitePath)
		if err != nil {
			logger.Error("failed to open sqlite", "path", cfg.Database.SQLitePath, "error", err)
			os.Exit(1)
		}
		writer, closer = store, store.Close
	}
	defer closer()

	if err := seed.Apply(ctx, writer, fixture, logger); err != nil {
		logger.Error("failed to apply fixture", "error", err)
		closer()
		os.Exit(1)
	}
}

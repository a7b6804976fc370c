package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iconidentify/newsreel/internal/api"
	"github.com/iconidentify/newsreel/internal/api/handler"
	mw "github.com/iconidentify/newsreel/internal/api/middleware"
	"github.com/iconidentify/newsreel/internal/config"
	"github.com/iconidentify/newsreel/internal/service"
	"github.com/iconidentify/newsreel/internal/stream"
	"github.com/iconidentify/newsreel/internal/telemetry"
	"github.com/iconidentify/newsreel/internal/worker"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("newsreel %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting newsreel",
		"version", Version,
		"build_time", BuildTime,
	)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	shutdownTracing, err := telemetry.Setup(cfg.Telemetry.TracingEnabled, cfg.Telemetry.ServiceName, Version, os.Stderr)
	if err != nil {
		logger.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	// Initialize dependencies
	store, err := openStore(startCtx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}

	media, err := openMedia(startCtx, cfg.Media)
	if err != nil {
		logger.Error("failed to open media store", "backend", cfg.Media.Backend, "error", err)
		os.Exit(1)
	}

	feedCache, err := openCache(startCtx, cfg.Cache, logger)
	if err != nil {
		logger.Error("failed to open feed cache", "backend", cfg.Cache.Backend, "error", err)
		os.Exit(1)
	}

	publisher, err := openPublisher(cfg.Events, logger)
	if err != nil {
		logger.Error("failed to connect event publisher", "error", err)
		os.Exit(1)
	}

	// Initialize view counter
	views := worker.NewViewCounter(
		worker.Config{
			Workers:   cfg.Worker.Count,
			QueueSize: cfg.Worker.QueueSize,
		},
		store,
		publisher,
		logger,
	)
	views.Start()

	// Initialize services
	feedSvc := service.NewFeedService(store, feedCache, logger)
	videoSvc := service.NewVideoService(store, views, logger)
	streamer := stream.NewStreamer(media, stream.Policy{
		MaxChunk:          cfg.Stream.MaxChunkSize,
		DefaultChunk:      cfg.Stream.DefaultChunkSize,
		FullBodyThreshold: cfg.Stream.FullBodyThreshold,
	}, logger)

	// Initialize handlers
	mediaPath := ""
	if cfg.Media.Backend == config.MediaBackendFilesystem {
		mediaPath = cfg.Media.BasePath
	}
	handlers := api.Handlers{
		Feed:     handler.NewFeedHandler(feedSvc, logger),
		Video:    handler.NewVideoHandler(videoSvc, streamer, logger),
		Category: handler.NewCategoryHandler(videoSvc, logger),
		Health:   handler.NewHealthHandler(store, media, mediaPath),
	}

	// Setup router
	router := api.NewRouter(handlers, api.Options{
		AllowedOrigin:  cfg.Server.AllowedOrigin,
		RequestTimeout: cfg.Server.RequestTimeout,
		Verifier:       mw.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
	}, logger)

	// Setup HTTP server. WriteTimeout stays unset by default so long
	// streams are not cut off.
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop accepting new requests
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Flush queued view increments before the store goes away
	if err := views.Stop(10 * time.Second); err != nil {
		logger.Error("view counter shutdown error", "error", err)
	}

	if err := publisher.Close(); err != nil {
		logger.Error("event publisher close error", "error", err)
	}

	if err := store.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	if err := shutdownTracing(ctx); err != nil {
		logger.Error("tracer shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

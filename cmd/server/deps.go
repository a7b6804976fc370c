package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"github.com/iconidentify/newsreel/internal/cache"
	"github.com/iconidentify/newsreel/internal/config"
	"github.com/iconidentify/newsreel/internal/events"
	"github.com/iconidentify/newsreel/internal/repository"
	"github.com/iconidentify/newsreel/internal/storage"
)

func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (repository.FeedStore, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		if err := repository.MigratePostgres(cfg.PostgresDSN, logger); err != nil {
			return nil, err
		}
		store, err := repository.ConnectPostgres(ctx, cfg.PostgresDSN, cfg.MaxConns, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		store, err := repository.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("opened sqlite database", "path", cfg.SQLitePath)
		return store, nil
	}
}

func openMedia(ctx context.Context, cfg config.MediaConfig) (storage.MediaStore, error) {
	switch cfg.Backend {
	case config.MediaBackendS3:
		store, err := storage.NewS3Store(ctx, storage.S3Options{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
			Prefix:   cfg.S3Prefix,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		if err := os.MkdirAll(cfg.BasePath, 0755); err != nil {
			return nil, fmt.Errorf("create media directory: %w", err)
		}
		return storage.NewFilesystemStore(cfg.BasePath), nil
	}
}

func openCache(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (cache.FeedCache, error) {
	switch cfg.Backend {
	case config.CacheBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		c := cache.NewRedisCache(client, cfg.TTL)
		if err := c.Ping(ctx); err != nil {
			client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		logger.Info("feed cache enabled", "backend", "redis", "addr", cfg.RedisAddr, "ttl", cfg.TTL)
		return c, nil
	case config.CacheBackendNone:
		logger.Info("feed cache disabled")
		return cache.Noop{}, nil
	default:
		logger.Info("feed cache enabled", "backend", "memory", "size", cfg.Size, "ttl", cfg.TTL)
		return cache.NewLRUCache(cfg.Size, cfg.TTL), nil
	}
}

func openPublisher(cfg config.EventsConfig, logger *slog.Logger) (events.Publisher, error) {
	if cfg.NATSURL == "" {
		return events.Noop{}, nil
	}
	p, err := events.NewNATSPublisher(events.NATSConfig{
		URL:     cfg.NATSURL,
		Stream:  cfg.Stream,
		Subject: cfg.Subject,
	}, logger)
	if err != nil {
		return nil, err
	}
	return p, nil
}

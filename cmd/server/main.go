package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/tarif/internal/cache"
	"github.com/JonMunkholm/tarif/internal/config"
	"github.com/JonMunkholm/tarif/internal/core"
	_ "github.com/JonMunkholm/tarif/internal/core/tables" // Register all tables
	"github.com/JonMunkholm/tarif/internal/logging"
	"github.com/JonMunkholm/tarif/internal/storage"
	"github.com/JonMunkholm/tarif/internal/web"
)

func main() {
	// Load .env file if it exists; real environment variables win
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.Storage, cfg.Storage.AutoMigrate)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("store opened", "driver", cfg.Storage.Driver)

	var reader core.Reader = store
	if cfg.Cache.RedisURL != "" {
		rdb, err := cache.Connect(ctx, cfg.Cache)
		if err != nil {
			// Lookups still work without the cache.
			slog.Warn("redis unavailable, serving without cache", "error", err)
		} else {
			defer rdb.Close()
			reader = cache.NewReader(store, rdb, cfg.Cache.TTL, cfg.Cache.Prefix)
			slog.Info("lookup cache enabled", "ttl", cfg.Cache.TTL, "prefix", cfg.Cache.Prefix)
		}
	}

	slog.Info("table profiles registered", "count", core.TableCount())

	server := web.NewServer(core.NewService(reader), cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

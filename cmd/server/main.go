package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/marketshare/internal/config"
	"github.com/JonMunkholm/marketshare/internal/core"
	"github.com/JonMunkholm/marketshare/internal/logging"
	"github.com/JonMunkholm/marketshare/internal/store"
	_ "github.com/JonMunkholm/marketshare/internal/store/postgres" // Register store drivers
	_ "github.com/JonMunkholm/marketshare/internal/store/sqlite"
	"github.com/JonMunkholm/marketshare/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store_driver", cfg.Store.Driver,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("configuration", "config", cfg.String())

	ctx := context.Background()

	// The history store is optional; without it every run needs a database upload.
	var history store.Store
	switch st, err := store.Open(ctx, cfg.Store.DriverConfig()); {
	case errors.Is(err, store.ErrNotConfigured):
		slog.Info("no history store configured, database uploads required")
	case err != nil:
		slog.Error("failed to open history store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	default:
		history = st
		defer st.Close()
		slog.Info("history store opened", "driver", cfg.Store.Driver, "write_back", cfg.Store.WriteBack)
	}

	pipeline, err := core.NewPipeline(cfg.Options())
	if err != nil {
		slog.Error("failed to create pipeline", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(cfg, pipeline, history)

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

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

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}

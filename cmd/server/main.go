// Command server serves the test sheet generator over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/testsheet/internal/config"
	"github.com/JonMunkholm/testsheet/internal/core"
	"github.com/JonMunkholm/testsheet/internal/logging"
	"github.com/JonMunkholm/testsheet/internal/web"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// .env values win over the inherited environment for the server
	envErr := godotenv.Overload()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if envErr != nil {
		slog.Info("no .env file loaded, using process environment")
	}

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// run serves until SIGINT or SIGTERM, then drains in-flight generations and
// open connections within the shutdown timeout.
func run(cfg *config.Config) error {
	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"max_file_size", cfg.Upload.MaxFileSize,
		"generate_max_concurrent", cfg.Limits.MaxConcurrent,
		"validation_mode", cfg.Generator.ValidationMode,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	service, err := core.NewService(cfg)
	if err != nil {
		return err
	}
	server := web.NewServer(cfg, service)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Start(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")

		drainCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if active := service.LimiterStatus().Active; active > 0 {
			slog.Info("waiting for generations to complete", "active", active)
			if err := service.WaitForDrain(drainCtx); err != nil {
				slog.Warn("generations did not complete in time", "error", err)
			}
		}
		return server.Shutdown(drainCtx)
	})
	return g.Wait()
}

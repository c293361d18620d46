package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/reshetovitsme/campus-bot/internal/di"
	"github.com/reshetovitsme/campus-bot/internal/shared/config"
	httpServer "github.com/reshetovitsme/campus-bot/internal/transport/http"
	"github.com/samber/do/v2"
	slogmulti "github.com/samber/slog-multi"
)

func main() {
	// Bootstrap logging until the configured logger is available
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	jsonHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	})
	slog.SetDefault(slog.New(slogmulti.Fanout(textHandler, jsonHandler)))

	injector, err := di.Setup()
	if err != nil {
		slog.Error("Failed to setup dependency injection", "error", err)
		os.Exit(1)
	}

	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(do.MustInvoke[*slog.Logger](injector))

	defer func() {
		if err := di.Shutdown(injector); err != nil {
			slog.Error("Error during shutdown", "error", err)
		}
	}()

	b, err := do.Invoke[*bot.Bot](injector)
	if err != nil {
		slog.Error("Failed to create telegram bot", "error", err)
		os.Exit(1)
	}
	server := do.MustInvoke[*httpServer.Server](injector)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := server.Start(); err != nil {
			slog.Error("Failed to start HTTP server", "error", err)
			cancel()
		}
	}()

	go b.Start(ctx)

	slog.Info("Application started", "port", cfg.HTTPPort, "env", cfg.AppEnv)
	slog.Info("Press Ctrl+C to stop")

	<-ctx.Done()
	slog.Info("Shutting down...")
}

package di

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	availabilityRepo "github.com/reshetovitsme/campus-bot/internal/modules/availability/repository"
	availabilityService "github.com/reshetovitsme/campus-bot/internal/modules/availability/service"
	canteenRepo "github.com/reshetovitsme/campus-bot/internal/modules/canteen/repository"
	canteenService "github.com/reshetovitsme/campus-bot/internal/modules/canteen/service"
	feedService "github.com/reshetovitsme/campus-bot/internal/modules/feed/service"
	menuRepo "github.com/reshetovitsme/campus-bot/internal/modules/menu/repository"
	menuService "github.com/reshetovitsme/campus-bot/internal/modules/menu/service"
	"github.com/reshetovitsme/campus-bot/internal/shared/config"
	"github.com/reshetovitsme/campus-bot/internal/shared/fetcher"
	"github.com/reshetovitsme/campus-bot/internal/shared/logger"
	httpServer "github.com/reshetovitsme/campus-bot/internal/transport/http"
	telegramHandler "github.com/reshetovitsme/campus-bot/internal/transport/telegram"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
)

// AvailabilityFetcher names the fetcher reserved for reachability checks. It
// has its own request slots, so slow canteen lookups never hold up a monitor tick.
const AvailabilityFetcher = "availability-fetcher"

// Setup initializes the dependency injection container
func Setup() (do.Injector, error) {
	injector := do.New()

	// Register Config
	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, oops.With("context", "failed to load config").Wrap(err)
		}
		return cfg, nil
	})

	// Register Logger
	do.Provide(injector, func(i do.Injector) (*slog.Logger, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile}), nil
	})

	// Register HTTP Fetcher
	do.Provide(injector, func(i do.Injector) (*fetcher.Fetcher, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*slog.Logger](i)
		return fetcher.New(fetcher.Options{
			Timeout:       cfg.RequestTimeoutDuration(),
			MaxConcurrent: int64(cfg.MaxConcurrentRequests),
			Logger:        log,
		}), nil
	})

	// Register Availability Fetcher
	do.ProvideNamed(injector, AvailabilityFetcher, func(i do.Injector) (*fetcher.Fetcher, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*slog.Logger](i)
		return fetcher.New(fetcher.Options{
			Timeout:       cfg.RequestTimeoutDuration(),
			MaxConcurrent: int64(cfg.MaxConcurrentRequests),
			Logger:        log,
		}), nil
	})

	// Register Canteen Repository
	do.Provide(injector, func(i do.Injector) (canteenRepo.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return canteenRepo.NewAPIStorage(cfg.CanteenAPIURL, do.MustInvoke[*fetcher.Fetcher](i)), nil
	})

	// Register Menu Repository
	do.Provide(injector, func(i do.Injector) (menuRepo.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return menuRepo.NewAPIStorage(cfg.CanteenAPIURL, do.MustInvoke[*fetcher.Fetcher](i)), nil
	})

	// Register Subscription Repository
	do.Provide(injector, func(i do.Injector) (availabilityRepo.Repository, error) {
		return availabilityRepo.NewMemoryStorage(), nil
	})

	// Register Canteen Service
	do.Provide(injector, func(i do.Injector) (*canteenService.Service, error) {
		return canteenService.New(do.MustInvoke[canteenRepo.Repository](i)), nil
	})

	// Register Menu Service
	do.Provide(injector, func(i do.Injector) (*menuService.Service, error) {
		return menuService.New(do.MustInvoke[menuRepo.Repository](i)), nil
	})

	// Register Menu Lookup
	do.Provide(injector, func(i do.Injector) (*menuService.Lookup, error) {
		canteens := do.MustInvoke[*canteenService.Service](i)
		menu := do.MustInvoke[*menuService.Service](i)
		return menuService.NewLookup(canteens, menu), nil
	})

	// Register Availability Checker
	do.Provide(injector, func(i do.Injector) (*availabilityService.Checker, error) {
		return availabilityService.NewChecker(do.MustInvokeNamed[*fetcher.Fetcher](i, AvailabilityFetcher)), nil
	})

	// Register Availability Monitor
	do.Provide(injector, func(i do.Injector) (*availabilityService.Monitor, error) {
		checker := do.MustInvoke[*availabilityService.Checker](i)
		repo := do.MustInvoke[availabilityRepo.Repository](i)
		return availabilityService.NewMonitor(checker, repo), nil
	})

	// Register Feed Service
	do.Provide(injector, func(i do.Injector) (*feedService.Service, error) {
		canteens := do.MustInvoke[*canteenService.Service](i)
		menu := do.MustInvoke[*menuService.Service](i)
		return feedService.New(canteens, menu), nil
	})

	// Register Telegram Handler
	do.Provide(injector, func(i do.Injector) (*telegramHandler.Handler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		canteens := do.MustInvoke[*canteenService.Service](i)
		lookup := do.MustInvoke[*menuService.Lookup](i)
		checker := do.MustInvoke[*availabilityService.Checker](i)
		monitor := do.MustInvoke[*availabilityService.Monitor](i)
		return telegramHandler.New(cfg, canteens, lookup, checker, monitor), nil
	})

	// Register HTTP Server
	do.Provide(injector, func(i do.Injector) (*httpServer.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		server := httpServer.New(
			cfg,
			do.MustInvoke[*canteenService.Service](i),
			do.MustInvoke[*menuService.Service](i),
			do.MustInvoke[*menuService.Lookup](i),
			do.MustInvoke[*feedService.Service](i),
		)
		server.SetLogger(do.MustInvoke[*slog.Logger](i))
		return server, nil
	})

	// Register Bot (needs to be initialized after handlers are ready)
	do.Provide(injector, func(i do.Injector) (*bot.Bot, error) {
		cfg := do.MustInvoke[*config.Config](i)
		handler := do.MustInvoke[*telegramHandler.Handler](i)

		opts := []bot.Option{
			bot.WithDefaultHandler(handler.HandleUpdate),
			bot.WithServerURL(cfg.TelegramAPIURL),
		}

		b, err := bot.New(cfg.TelegramBotToken, opts...)
		if err != nil {
			return nil, oops.With("context", "failed to create telegram bot").Wrap(err)
		}

		handler.RegisterCommands(b)

		return b, nil
	})

	return injector, nil
}

// Shutdown gracefully shuts down all services
func Shutdown(injector do.Injector) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if server, err := do.Invoke[*httpServer.Server](injector); err == nil && server != nil {
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Failed to stop HTTP server", "error", err)
		}
	}

	// Pending subscriptions are dropped, nothing survives a restart.
	if monitor, err := do.Invoke[*availabilityService.Monitor](injector); err == nil && monitor != nil {
		monitor.Stop()
	}

	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"

	"github.com/Subhansheikh5843/Stock-backend/internal/adapter/cache"
	"github.com/Subhansheikh5843/Stock-backend/internal/adapter/handler"
	"github.com/Subhansheikh5843/Stock-backend/internal/adapter/storage/backend"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/config"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/port"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/trading"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/worker"
)

func main() {
	// 1. Setup Logger (level is settled once the config is loaded)
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// 2. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("❌ Invalid configuration", "error", err)
		os.Exit(1)
	}
	level.Set(cfg.LogLevel())

	ctx := context.Background()

	// 3. Connect to Database
	store, err := backend.Open(ctx, cfg)
	if err != nil {
		slog.Error("❌ Database connection failed", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}

	// 4. Optional stock cache
	var stockCache port.StockCache
	closeCache := func() {}
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("❌ Redis connection failed", "error", err)
			store.Close()
			os.Exit(1)
		}
		closeCache = func() { client.Close() }
		stockCache = cache.NewRedisAdapter(client, cfg.StockCacheTTL)
		slog.Info("Stock cache enabled", "ttl", cfg.StockCacheTTL)
	}

	// 5. Service & HTTP
	service := trading.NewService(store, trading.Options{
		Cache:          stockCache,
		Logger:         logger,
		StorageTimeout: cfg.StorageTimeout,
		Prices: trading.PricePolicy{
			Mode:      trading.PriceMode(cfg.PricePolicy),
			Tolerance: cfg.PriceTolerance,
		},
	})
	app := handler.NewApp(handler.Deps{Service: service, Store: store, Cache: stockCache})

	// 6. Start Worker
	workerCtx, stopWorker := context.WithCancel(ctx)
	var janitorDone <-chan struct{}
	if cfg.IdempotencyRetention > 0 {
		janitorDone = worker.StartIdempotencyJanitor(workerCtx, store, cfg.IdempotencyRetention, cfg.JanitorInterval)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	slog.Info("🚀 Server starting", "env", cfg.Env, "port", cfg.Port, "driver", cfg.DatabaseDriver)
	exitCode := 0
	if err := serve(app, ":"+cfg.Port, stop); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		exitCode = 1
	}

	stopWorker()
	if janitorDone != nil {
		<-janitorDone
	}

	closeCache()
	store.Close()
	slog.Info("✅ Database connection closed")

	slog.Info("👋 Server exited", "code", exitCode)
	os.Exit(exitCode)
}

// serve runs app until a stop signal arrives or the listener fails. On a
// signal, in-flight requests are finished before it returns.
func serve(app *fiber.App, addr string, stop <-chan os.Signal) error {
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(addr)
	}()

	select {
	case err := <-listenErr:
		if err == nil {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-stop:
		slog.Info("🛑 Shutting down server...")
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

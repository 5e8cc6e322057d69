// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"historical-places/internal/common/config"
	"historical-places/internal/common/database"
	"historical-places/internal/common/logger"
	"historical-places/internal/common/observability"
	"historical-places/internal/pipeline"
	"historical-places/internal/provider"
	"historical-places/internal/server"
	"historical-places/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting places server...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("Redis unavailable", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected", zap.String("address", cfg.Database.Redis.Address))

	// --- Wire the pipeline ---
	cacheStore := store.NewCacheStore(redisClient, cfg.Cache.CacheTTL(), log)
	statsStore := store.NewStatsStore(redisClient, log)

	geminiClient := provider.NewGeminiClient(
		cfg.Providers.BaseURL,
		cfg.Providers.APIKey,
		config.GetDuration(cfg.Providers.Timeout),
		log,
	)
	fallback := pipeline.NewFallbackController(
		geminiClient,
		cfg.Providers.Default,
		cfg.Providers.FallbackOrder,
		cfg.Providers.MaxAttempts,
		log,
	)
	service := pipeline.NewService(cacheStore, statsStore, fallback, log)
	handler := server.NewHandler(service, geminiClient, redisClient, log)
	router := server.NewRouter(handler, log, obs)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	zapLog.Info("Shutdown signal received, draining requests...")

	shutdownCtx, cancel := context.WithTimeout(ctx, config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Shutdown incomplete", zap.Error(err))
	}

	zapLog.Info("Server stopped")
}

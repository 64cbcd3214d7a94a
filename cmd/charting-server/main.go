// cmd/charting-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"charting-assistant/internal/common/config"
	"charting-assistant/internal/common/database"
	"charting-assistant/internal/common/genai"
	"charting-assistant/internal/common/logger"
	"charting-assistant/internal/common/observability"
	"charting-assistant/internal/common/ratelimit"
	"charting-assistant/internal/handlers/chat"
	"charting-assistant/internal/server"
	"charting-assistant/pkg/registry"
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

// rateLimiting holds the Redis side of /api/chat throttling. ready is only set when
// Redis answered at startup; otherwise the limiter fails open and /ready does not wait on it.
type rateLimiting struct {
	redis   *database.RedisClient
	limiter *ratelimit.Limiter
	ready   server.Pinger
}

func setupRateLimiting(ctx context.Context, cfg *config.Config, attempts int, delay time.Duration, log *zap.Logger) *rateLimiting {
	rl := &rateLimiting{}
	if !cfg.RateLimit.Enabled {
		return rl
	}

	redis, err := database.NewRedis(cfg.Redis)
	if err != nil {
		log.Warn("redis not configured, rate limiting disabled", zap.Error(err))
		return rl
	}
	rl.redis = redis
	rl.limiter = ratelimit.New(redis.GetClient(), cfg.RateLimit.Requests, config.GetDuration(cfg.RateLimit.Window), cfg.RateLimit.Prefix)

	err = retryWithBackoff(func() error {
		return redis.Ping(ctx)
	}, attempts, delay, log, "Redis connection")
	if err != nil {
		log.Warn("redis unavailable, rate limiting will fail open", zap.Error(err))
		return rl
	}
	log.Info("Redis connected successfully")
	rl.ready = redis
	return rl
}

func (rl *rateLimiting) Close() {
	if rl.redis != nil {
		rl.redis.Close()
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting charting assistant...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Upstream client ---
	client, err := genai.NewFromConfig(ctx, cfg.GenAI)
	switch {
	case errors.Is(err, genai.ErrMissingCredentials):
		zapLog.Warn("no API key configured, /api/chat will answer 500 until one is set",
			zap.String("provider", cfg.GenAI.Provider))
		client = nil
	case err != nil:
		zapLog.Fatal("genai client init failed", zap.Error(err))
	default:
		zapLog.Info("GenAI client ready", zap.String("provider", client.Name()), zap.String("model", cfg.GenAI.Model))
	}

	// --- Redis (rate limiting only) ---
	rl := setupRateLimiting(ctx, cfg, 5, time.Second, zapLog)
	defer rl.Close()

	// --- Modes ---
	var extra []registry.Mode
	if path := cfg.Modes.RegistryPath; path != "" {
		reg, err := registry.LoadRegistry(path)
		if err != nil {
			zapLog.Fatal("mode registry load failed", zap.String("path", path), zap.Error(err))
		}
		if err := reg.Validate(); err != nil {
			zapLog.Fatal("mode registry invalid", zap.String("path", path), zap.Error(err))
		}
		extra = reg.Modes
		zapLog.Info("Mode registry loaded", zap.String("path", path), zap.Int("modes", len(extra)))
	}

	handler, err := chat.NewHandler(chat.LoadConfig(cfg), client, extra, obs, log)
	if err != nil {
		zapLog.Fatal("chat handler init failed", zap.Error(err))
	}
	zapLog.Info("Chat handler ready", zap.Strings("modes", handler.Modes()))

	srv := server.New(server.Options{
		Config:  cfg.Server,
		Chat:    handler,
		Limiter: rl.limiter,
		Redis:   rl.ready,
		Version: cfg.App.Version,
		Logger:  log,
	})

	go func() {
		if err := srv.Start(); err != nil {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Charting assistant stopped gracefully")
}

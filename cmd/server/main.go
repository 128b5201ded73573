package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kuotechnology-ui/kindworld-backend/config"
	"github.com/kuotechnology-ui/kindworld-backend/internal/app"
	"github.com/kuotechnology-ui/kindworld-backend/internal/db"
	"github.com/kuotechnology-ui/kindworld-backend/internal/scheduler"
	"github.com/kuotechnology-ui/kindworld-backend/pkg/logger"
	"github.com/kuotechnology-ui/kindworld-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
		Service:     "kindworld-api",
	})

	logger.Info("Starting KindWorld Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis pub/sub (optional)
	var opts []app.Option
	if cfg.Redis.Enabled {
		client, err := redis.Connect(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, notification feed limited to this instance", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer client.Close()
			opts = append(opts, app.WithFeedBus(redis.NewFeedBus(client, redis.DefaultFeedChannel)))
		}
	}

	container := app.NewContainer(ctx, cfg, db.GetDB(), opts...)
	container.RunFeed(ctx)

	// Delivery queue scheduler
	deliveryScheduler := scheduler.NewDeliveryScheduler(container.Queue, cfg.Queue.Schedule)
	if err := deliveryScheduler.Start(ctx); err != nil {
		logger.Fatal("Failed to start delivery scheduler", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           container.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()

	logger.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	// 진행 중인 발송 배치가 끝날 때까지 대기
	deliveryScheduler.Stop()

	logger.Info("Server stopped successfully")
}

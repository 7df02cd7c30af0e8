package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/tally/pkg/api"
	"github.com/platinummonkey/tally/pkg/config"
	"github.com/platinummonkey/tally/pkg/ingest"
	"github.com/platinummonkey/tally/pkg/observability"
	"github.com/platinummonkey/tally/pkg/query"
	"github.com/platinummonkey/tally/pkg/store"
)

func main() {
	startupLog := logrus.New()
	startupLog.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.LoadConfig()
	if err != nil {
		startupLog.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, nil)

	// Aggregate store connection; refuse to start if Redis is unreachable
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		startupLog.Fatalf("Failed to connect to redis at %s: %v", cfg.Redis.Addr(), err)
	}
	startupLog.WithField("addr", cfg.Redis.Addr()).Info("Connected to redis")

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	aggregates := store.New(client, metrics)
	pipeline := ingest.NewPipeline(aggregates, metrics)
	queries := query.NewService(aggregates)

	server := api.NewServer(pipeline, queries, aggregates, logger, metrics, registry)

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return client.Close()
	})

	go func() {
		logger.WithField("addr", httpServer.Addr).Info("tally listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			startupLog.Fatalf("Server failed: %v", err)
		}
	}()

	if err := shutdown.WaitForShutdown(); err != nil {
		startupLog.Errorf("Shutdown finished with errors: %v", err)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pagepulse/pagepulse-stack/collect/internal/config"
	"github.com/pagepulse/pagepulse-stack/collect/internal/handlers"
	"github.com/pagepulse/pagepulse-stack/collect/internal/ratelimit"
	"github.com/pagepulse/pagepulse-stack/collect/internal/registry"
	"github.com/pagepulse/pagepulse-stack/collect/internal/server"
	"github.com/pagepulse/pagepulse-stack/collect/internal/service"
	"github.com/pagepulse/pagepulse-stack/common/logging"
	natsclient "github.com/pagepulse/pagepulse-stack/common/messaging/nats"
	"github.com/pagepulse/pagepulse-stack/common/redisstore"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(logger)
	logger.InfoContext(context.Background(), "starting collect service",
		logging.Service("collect"), slog.Int("port", cfg.Server.Port))

	// Counter/set store for rate limiting and tracking registry
	var store *redisstore.Store
	if cfg.Redis.Enabled {
		store, err = redisstore.New(cfg.Redis.URL)
		if err != nil {
			logger.ErrorContext(context.Background(), "failed to connect to redis", logging.Err(err))
			os.Exit(1)
		}
		defer store.Close()
	}

	var limiter ratelimit.Limiter = ratelimit.NoOp{}
	if cfg.Ingestion.RateLimitEnabled && store != nil {
		limiter = ratelimit.NewFixedWindow(store, cfg.Ingestion.RateLimitRequests, cfg.Ingestion.RateLimitWindow)
	}

	var setStore redisstore.SetStore
	if store != nil {
		setStore = store
	}
	validationEnabled := cfg.Tracking.ValidationEnabled && store != nil
	reg := registry.New(setStore, validationEnabled, cfg.Tracking.AllowAnonymous, slog.Default())

	// Message bus client; the analytics stream is provisioned at startup so
	// consumers can bind durable subscriptions to it.
	natsCfg := natsclient.DefaultConfig()
	natsCfg.URL = cfg.NATS.URL
	natsCfg.Name = "pagepulse-collect"
	bus, err := natsclient.NewJetStreamClient(natsCfg)
	if err != nil {
		logger.ErrorContext(context.Background(), "failed to connect to message bus", logging.Err(err))
		os.Exit(1)
	}
	defer bus.Close()

	provisionCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := bus.CreateOrUpdateStream(provisionCtx, natsclient.AnalyticsEventsStream); err != nil {
		logger.ErrorContext(context.Background(), "failed to provision analytics stream", logging.Err(err))
		os.Exit(1)
	}

	svc := service.New(limiter, reg, bus, slog.Default())

	eventHandler := handlers.NewEventHandler(svc, logger, cfg.Ingestion.MaxBodySize)
	trackingHandler := handlers.NewTrackingHandler(reg, logger, validationEnabled)
	healthHandler := handlers.NewHealthHandler(bus)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.NewRouter(eventHandler, trackingHandler, healthHandler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.InfoContext(context.Background(), "collect service listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ErrorContext(context.Background(), "server error", logging.Err(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.InfoContext(context.Background(), "shutting down collect service")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorContext(context.Background(), "forced shutdown", logging.Err(err))
		os.Exit(1)
	}

	logger.InfoContext(context.Background(), "collect service stopped")
}

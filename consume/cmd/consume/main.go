package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pagepulse/pagepulse-stack/common/httputil"
	"github.com/pagepulse/pagepulse-stack/common/logging"
	"github.com/pagepulse/pagepulse-stack/common/messaging"
	natsclient "github.com/pagepulse/pagepulse-stack/common/messaging/nats"
	"github.com/pagepulse/pagepulse-stack/consume/internal/config"
	"github.com/pagepulse/pagepulse-stack/consume/internal/dispatcher"
	"github.com/pagepulse/pagepulse-stack/consume/internal/repository"
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
	ctx := context.Background()
	logger.InfoContext(ctx, "starting consume service", logging.Service("consume"))

	// Run database migrations
	connString := cfg.Postgres.ConnString()
	m, err := migrate.New("file://migrations", connString)
	if err != nil {
		logger.ErrorContext(ctx, "failed to initialize migrations", logging.Err(err))
		os.Exit(1)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.ErrorContext(ctx, "failed to run migrations", logging.Err(err))
		os.Exit(1)
	}

	repo, err := repository.NewPostgresRepository(ctx, connString)
	if err != nil {
		logger.ErrorContext(ctx, "failed to connect to analytics store", logging.Err(err))
		os.Exit(1)
	}
	defer repo.Close()

	natsCfg := natsclient.DefaultConfig()
	natsCfg.URL = cfg.NATS.URL
	natsCfg.Name = "pagepulse-consume"
	bus, err := natsclient.NewJetStreamClient(natsCfg)
	if err != nil {
		logger.ErrorContext(ctx, "failed to connect to message bus", logging.Err(err))
		os.Exit(1)
	}
	defer bus.Close()

	// Ensure the stream exists; either service may start first.
	provisionCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	stream := natsclient.AnalyticsEventsStream
	if _, err := bus.CreateOrUpdateStream(provisionCtx, stream); err != nil {
		cancel()
		logger.ErrorContext(ctx, "failed to provision analytics stream", logging.Err(err))
		os.Exit(1)
	}
	cancel()

	d := dispatcher.New(repo, slog.Default())

	var stops []func()
	for _, group := range d.Groups() {
		consumerCfg := natsclient.DefaultConsumerConfig(group.Name, messaging.EventSubjects(group.Topics)...)
		consumerCfg.AckWait = cfg.Consumer.AckWait
		consumerCfg.MaxAckPending = cfg.Consumer.MaxAckPending

		consumeCtx, consumeCancel := context.WithTimeout(ctx, 30*time.Second)
		_, err := bus.CreateOrUpdateConsumer(consumeCtx, stream.Name, consumerCfg)
		consumeCancel()
		if err != nil {
			logger.ErrorContext(ctx, "failed to create consumer",
				slog.String("group", group.Name), logging.Err(err))
			os.Exit(1)
		}

		stop, err := bus.ConsumeMessages(ctx, stream.Name, group.Name, group.Handler)
		if err != nil {
			logger.ErrorContext(ctx, "failed to start consumer",
				slog.String("group", group.Name), logging.Err(err))
			os.Exit(1)
		}
		stops = append(stops, stop)
		logger.InfoContext(ctx, "consumer started",
			slog.String("group", group.Name), slog.Int("topics", len(group.Topics)))
	}

	// Admin endpoints: probes and metrics.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		nats := "connected"
		if !bus.IsConnected() {
			nats = "disconnected"
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"status":    "ready",
			"nats":      nats,
			"postgres":  "connected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: mux,
	}
	go func() {
		logger.InfoContext(ctx, "consume admin server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ErrorContext(ctx, "admin server error", logging.Err(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.InfoContext(ctx, "shutting down consume service")
	for _, stop := range stops {
		stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorContext(ctx, "forced shutdown", logging.Err(err))
	}
	if err := bus.Drain(); err != nil {
		logger.ErrorContext(ctx, "failed to drain bus connection", logging.Err(err))
	}

	logger.InfoContext(ctx, "consume service stopped")
}

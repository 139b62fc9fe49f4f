package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dshills/storefront/internal/api"
	"github.com/dshills/storefront/internal/auth"
	"github.com/dshills/storefront/internal/catalog"
	"github.com/dshills/storefront/internal/config"
	"github.com/dshills/storefront/internal/events"
	"github.com/dshills/storefront/internal/metrics"
	"github.com/dshills/storefront/internal/orders"
	"github.com/dshills/storefront/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("Storefront API Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)
	logger.Info("Storefront starting",
		"version", version,
		"build_mode", storage.BuildMode,
		"driver", storage.DriverName,
		"reservation_mode", string(cfg.ReservationMode()),
	)

	store, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	listeners := []events.Listener{events.NewAuditListener(logger)}
	var kafkaListener *events.KafkaListener
	if cfg.KafkaEnabled() {
		writer := events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		kafkaListener = events.NewKafkaListener(writer, events.DefaultRetryConfig())
		listeners = append(listeners, kafkaListener)
		logger.Info("Publishing order events to Kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	dispatcher := events.NewDispatcher(logger, listeners)

	cat, err := catalog.NewService(store, cfg.CatalogServiceConfig(), catalog.WithMetrics(m))
	if err != nil {
		return fmt.Errorf("failed to initialize catalog: %w", err)
	}

	srv := api.NewServer(api.Deps{
		Orders: orders.NewService(store, dispatcher,
			orders.WithMode(cfg.ReservationMode()),
			orders.WithMetrics(m),
			orders.WithLogger(logger),
		),
		Catalog:  cat,
		Auth:     auth.NewService(store),
		Store:    store,
		Metrics:  m,
		Gatherer: reg,
		Logger:   logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.Addr)
		errChan <- httpServer.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		logger.Info("Received signal, shutting down gracefully", "signal", sig.String())
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP shutdown incomplete", "error", err)
	}
	// In-flight order events get the rest of the shutdown budget
	if err := dispatcher.Close(ctx); err != nil {
		logger.Warn("Order events still in flight at shutdown", "error", err)
	}
	if kafkaListener != nil {
		if err := kafkaListener.Close(); err != nil {
			logger.Warn("Failed to close Kafka writer", "error", err)
		}
	}

	logger.Info("Server stopped")
	return nil
}

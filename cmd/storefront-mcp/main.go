package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/storefront/internal/catalog"
	"github.com/dshills/storefront/internal/config"
	"github.com/dshills/storefront/internal/mcp"
	"github.com/dshills/storefront/internal/orders"
	"github.com/dshills/storefront/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("Storefront MCP Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		os.Exit(0)
	}

	// stdout is reserved for the MCP protocol
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	logger.Info("Storefront MCP server starting", "version", version, "db_path", cfg.DBPath)

	store, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	cat, err := catalog.NewService(store, cfg.CatalogServiceConfig())
	if err != nil {
		logger.Error("Failed to initialize catalog", "error", err)
		os.Exit(1)
	}
	// Reads only; the publisher is never reached
	ord := orders.NewService(store, nil, orders.WithMode(cfg.ReservationMode()), orders.WithLogger(logger))

	server, err := mcp.NewServer(cat, ord, store)
	if err != nil {
		logger.Error("Failed to create MCP server", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("MCP server ready, listening on stdio")
		errChan <- server.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("Received signal, shutting down", "signal", sig.String())
		cancel()
	case err := <-errChan:
		if err != nil {
			logger.Error("Server error", "error", err)
			_ = store.Close()
			os.Exit(1)
		}
	}

	logger.Info("Server stopped")
}

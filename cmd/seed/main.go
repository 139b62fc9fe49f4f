package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dshills/storefront/internal/catalog"
	"github.com/dshills/storefront/internal/config"
	"github.com/dshills/storefront/internal/storage"
)

func main() {
	count := flag.Int("count", 50, "number of products to create")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
	dbPath := flag.String("db", "", "SQLite file (defaults to STOREFRONT_DB_PATH)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *count < 1 {
		fmt.Fprintln(os.Stderr, "count must be at least 1")
		os.Exit(2)
	}

	store, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	start := time.Now()
	products, err := catalog.NewFactory(*seed).Seed(context.Background(), store, *count)
	if err != nil {
		logger.Error("Seeding stopped", "created", len(products), "error", err)
		_ = store.Close()
		os.Exit(1)
	}

	logger.Info("Catalog seeded",
		"db_path", cfg.DBPath,
		"products", len(products),
		"seed", *seed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// Package config loads storefront settings.
//
// Values come from three layers, later layers winning:
//  1. Built-in defaults
//  2. An optional YAML file named by STOREFRONT_CONFIG
//  3. Environment variables
//
// Environment variables:
//
//	STOREFRONT_ADDR          listen address (default :8080)
//	STOREFRONT_DB_PATH       SQLite file (default storefront.db)
//	CATALOG_CACHE_TTL        listing cache TTL, Go duration, 0 disables (default 10m)
//	CATALOG_CACHE_SIZE       listing cache entries (default 1000)
//	ORDER_RESERVATION_MODE   legacy, atomic or transactional (default legacy)
//	KAFKA_BROKERS            comma separated brokers; empty disables publishing
//	KAFKA_TOPIC              order event topic (default storefront.orders)
//	LOG_LEVEL                debug, info, warn or error (default info)
//	SHUTDOWN_TIMEOUT         graceful shutdown budget (default 15s)
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/storefront/internal/catalog"
	"github.com/dshills/storefront/internal/events"
	"github.com/dshills/storefront/internal/orders"
)

// Environment variable names
const (
	EnvConfigFile      = "STOREFRONT_CONFIG"
	EnvAddr            = "STOREFRONT_ADDR"
	EnvDBPath          = "STOREFRONT_DB_PATH"
	EnvCacheTTL        = "CATALOG_CACHE_TTL"
	EnvCacheSize       = "CATALOG_CACHE_SIZE"
	EnvReservationMode = "ORDER_RESERVATION_MODE"
	EnvKafkaBrokers    = "KAFKA_BROKERS"
	EnvKafkaTopic      = "KAFKA_TOPIC"
	EnvLogLevel        = "LOG_LEVEL"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)

// Config holds all runtime settings
type Config struct {
	Addr            string        `yaml:"addr"`
	DBPath          string        `yaml:"db_path"`
	LogLevel        string        `yaml:"log_level"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Catalog         CatalogConfig `yaml:"catalog"`
	Orders          OrdersConfig  `yaml:"orders"`
	Kafka           KafkaConfig   `yaml:"kafka"`
}

// CatalogConfig configures the listing cache
type CatalogConfig struct {
	CacheTTL  time.Duration `yaml:"cache_ttl"`
	CacheSize int           `yaml:"cache_size"`
}

// OrdersConfig configures order placement
type OrdersConfig struct {
	ReservationMode string `yaml:"reservation_mode"`
}

// KafkaConfig configures the order event publisher
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Addr:            ":8080",
		DBPath:          "storefront.db",
		LogLevel:        "info",
		ShutdownTimeout: 15 * time.Second,
		Catalog: CatalogConfig{
			CacheTTL:  catalog.DefaultCacheTTL,
			CacheSize: catalog.DefaultCacheSize,
		},
		Orders: OrdersConfig{ReservationMode: string(orders.ModeLegacy)},
		Kafka:  KafkaConfig{Topic: events.DefaultTopic},
	}
}

// Load builds the configuration from defaults, the optional file and the environment
func Load() (Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path, ok := lookup(EnvConfigFile); ok && path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeFile overlays the YAML document at path. Unknown keys are rejected.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str(EnvAddr, &c.Addr)
	str(EnvDBPath, &c.DBPath)
	str(EnvLogLevel, &c.LogLevel)
	str(EnvReservationMode, &c.Orders.ReservationMode)
	str(EnvKafkaTopic, &c.Kafka.Topic)

	if err := dur(EnvCacheTTL, &c.Catalog.CacheTTL); err != nil {
		return err
	}
	if err := dur(EnvShutdownTimeout, &c.ShutdownTimeout); err != nil {
		return err
	}
	if v, ok := lookup(EnvCacheSize); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvCacheSize, err)
		}
		c.Catalog.CacheSize = n
	}
	if v, ok := lookup(EnvKafkaBrokers); ok {
		c.Kafka.Brokers = events.ParseBrokers(v)
	}
	return nil
}

// Validate reports the first invalid setting
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("addr must not be empty")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("db_path must not be empty")
	}
	if c.Catalog.CacheTTL < 0 {
		return fmt.Errorf("catalog.cache_ttl must be >= 0, got %s", c.Catalog.CacheTTL)
	}
	if c.Catalog.CacheSize < 1 {
		return fmt.Errorf("catalog.cache_size must be >= 1, got %d", c.Catalog.CacheSize)
	}
	if _, err := orders.ParseReservationMode(c.Orders.ReservationMode); err != nil {
		return err
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be > 0, got %s", c.ShutdownTimeout)
	}
	if len(c.Kafka.Brokers) > 0 && strings.TrimSpace(c.Kafka.Topic) == "" {
		return errors.New("kafka.topic must be set when brokers are configured")
	}
	return nil
}

// ReservationMode returns the parsed reservation mode. Call after Validate.
func (c Config) ReservationMode() orders.ReservationMode {
	mode, _ := orders.ParseReservationMode(c.Orders.ReservationMode)
	return mode
}

// Level returns the parsed log level. Call after Validate.
func (c Config) Level() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

// KafkaEnabled reports whether order events go to a broker
func (c Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

// CatalogServiceConfig converts the cache settings for the catalog service
func (c Config) CatalogServiceConfig() catalog.Config {
	return catalog.Config{CacheTTL: c.Catalog.CacheTTL, CacheSize: c.Catalog.CacheSize}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

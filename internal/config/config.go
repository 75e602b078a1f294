// Package config содержит логику чтения конфигурации сервиса оформления заказа.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса оформления заказа.
type Config struct {
	RunAddress           string `env:"RUN_ADDRESS"`
	DatabaseURI          string `env:"DATABASE_URI"`
	StorefrontAPIAddress string `env:"STOREFRONT_API_ADDRESS"`
	RedisAddress         string `env:"REDIS_ADDRESS"`
	RedisPassword        string `env:"REDIS_PASSWORD"`
	RedisDB              int    `env:"REDIS_DB" envDefault:"0"`

	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"30m"`

	FreeShippingThreshold float64 `env:"FREE_SHIPPING_THRESHOLD" envDefault:"500"`
	ShippingFlatFee       float64 `env:"SHIPPING_FLAT_FEE" envDefault:"100"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envStorefrontAddress := cfg.StorefrontAPIAddress
	envRedisAddress := cfg.RedisAddress

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.StorefrontAPIAddress, "r", "", "storefront API address")
	flag.StringVar(&cfg.RedisAddress, "c", "", "redis address for checkout sessions")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envStorefrontAddress != "" {
		cfg.StorefrontAPIAddress = envStorefrontAddress
	}
	if envRedisAddress != "" {
		cfg.RedisAddress = envRedisAddress
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	if cfg.SessionTTL < 0 {
		return nil, fmt.Errorf("session ttl must not be negative: %s", cfg.SessionTTL)
	}
	if cfg.FreeShippingThreshold < 0 || cfg.ShippingFlatFee < 0 {
		return nil, fmt.Errorf("shipping rule must not be negative: threshold %v, fee %v",
			cfg.FreeShippingThreshold, cfg.ShippingFlatFee)
	}

	return cfg, nil
}

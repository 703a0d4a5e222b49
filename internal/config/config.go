package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr       string `env:"HTTP_ADDR" envDefault:":8080"`
	BackendBaseURL string `env:"BACKEND_BASE_URL" envDefault:"http://localhost:3000/api"`
	StoreName      string `env:"STORE_NAME" envDefault:"MBappe Store"`
	ServiceName    string `env:"SERVICE_NAME" envDefault:"storefront-checkout"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`

	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
	MaxSessions    int           `env:"MAX_SESSIONS" envDefault:"10000"`

	BaseFee     float64 `env:"BASE_FEE" envDefault:"2000"`
	DeliveryFee float64 `env:"DELIVERY_FEE" envDefault:"5000"`

	// empty disables the catalog cache and receipt dedup
	RedisAddr       string        `env:"REDIS_ADDR"`
	CatalogCacheTTL time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"5m"`

	// empty disables outcome publishing
	KafkaBrokers    []string `env:"KAFKA_BROKERS" envSeparator:","`
	CheckoutTopic   string   `env:"CHECKOUT_TOPIC" envDefault:"checkout.outcome"`
	ReceiptsGroup   string   `env:"RECEIPTS_GROUP" envDefault:"receipts-svc"`
	ReceiptsWorkers int      `env:"RECEIPTS_WORKERS" envDefault:"4"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.ReceiptsWorkers < 1 {
		cfg.ReceiptsWorkers = 1
	}
	return cfg, nil
}

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreMongo  = "mongodb"
	StoreMemory = "memory"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	StoreBackend    string `env:"STORE_BACKEND" envDefault:"mongodb"`
	MongoURI        string `env:"MONGODB_URI"`
	MongoDB         string `env:"MONGODB_DB" envDefault:"ratebeer"`
	StoreMaxRetries int    `env:"STORE_MAX_RETRIES" envDefault:"10"`
	PinAttempts     int    `env:"PIN_ATTEMPTS" envDefault:"10"`

	TokenSecret string        `env:"TOKEN_SECRET,required,notEmpty"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"1h"`

	CatalogBaseURL  string        `env:"CATALOG_BASE_URL" envDefault:"https://punkapi.online/v3"`
	CatalogTimeout  time.Duration `env:"CATALOG_TIMEOUT" envDefault:"30s"`
	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	CatalogCacheTTL time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"24h"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required when STORE_BACKEND=%s", StoreMongo)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.StoreMaxRetries < 1 {
		return fmt.Errorf("STORE_MAX_RETRIES must be at least 1")
	}
	if c.PinAttempts < 1 {
		return fmt.Errorf("PIN_ATTEMPTS must be at least 1")
	}
	return nil
}

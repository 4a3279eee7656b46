package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Price policies accepted in PRICE_POLICY.
const (
	PriceTrusted = "trusted"
	PriceCatalog = "catalog"
)

// Storage drivers accepted in DATABASE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port           string
	Env            string
	DatabaseDriver string
	DatabaseURL    string
	RedisURL       string
	StockCacheTTL  time.Duration
	StorageTimeout time.Duration
	PricePolicy    string
	PriceTolerance decimal.Decimal

	// IdempotencyRetention is how long replayable responses are kept; zero
	// keeps them forever.
	IdempotencyRetention time.Duration
	JanitorInterval      time.Duration
}

// LoadConfig reads the .env file, if any, then the environment.
func LoadConfig() (*Config, error) {
	// A missing .env is normal in production.
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, relying on System Env Variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "3000"),
		Env:            getEnv("ENV", "development"),
		DatabaseDriver: getEnv("DATABASE_DRIVER", DriverPostgres),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisURL:       getEnv("REDIS_URL", ""),
		PricePolicy:    getEnv("PRICE_POLICY", PriceTrusted),
	}

	var err error
	if cfg.StockCacheTTL, err = getDuration("STOCK_CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.StorageTimeout, err = getDuration("STORAGE_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.IdempotencyRetention, err = getDuration("IDEMPOTENCY_RETENTION", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.JanitorInterval, err = getDuration("JANITOR_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.PriceTolerance, err = decimal.NewFromString(getEnv("PRICE_TOLERANCE", "0.05")); err != nil {
		return nil, fmt.Errorf("PRICE_TOLERANCE: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	switch c.PricePolicy {
	case PriceTrusted, PriceCatalog:
	default:
		return fmt.Errorf("PRICE_POLICY must be %q or %q, got %q", PriceTrusted, PriceCatalog, c.PricePolicy)
	}
	if c.PriceTolerance.IsNegative() {
		return fmt.Errorf("PRICE_TOLERANCE cannot be negative")
	}
	if c.StorageTimeout <= 0 {
		return fmt.Errorf("STORAGE_TIMEOUT must be positive")
	}
	if c.IdempotencyRetention < 0 {
		return fmt.Errorf("IDEMPOTENCY_RETENTION cannot be negative")
	}
	if c.JanitorInterval <= 0 {
		return fmt.Errorf("JANITOR_INTERVAL must be positive")
	}
	return nil
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LogLevel is Info in production and Debug elsewhere.
func (c *Config) LogLevel() slog.Level {
	if c.IsProduction() {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

// Helper to get env with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

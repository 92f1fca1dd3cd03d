// Package config содержит логику чтения конфигурации платёжного сервиса.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/mmeshcher/payment-service/internal/repository"
)

const defaultMaxInFlight = 100

// Config содержит параметры конфигурации платёжного сервиса.
type Config struct {
	RunAddress    string `env:"RUN_ADDRESS"`
	DatabaseURI   string `env:"DATABASE_URI"`
	DataStoreType string `env:"DATA_STORE_TYPE"`
	RedisAddress  string `env:"REDIS_ADDRESS"`
	SeedFile      string `env:"SEED_FILE"`
	MaxInFlight   int    `env:"MAX_IN_FLIGHT_PAYMENTS"`
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
	envDataStoreType := cfg.DataStoreType
	envRedisAddress := cfg.RedisAddress
	envSeedFile := cfg.SeedFile
	envMaxInFlight := cfg.MaxInFlight

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.DataStoreType, "s", string(repository.StoreTypeDefault), "account data store type: default, backup or memory")
	flag.StringVar(&cfg.RedisAddress, "r", "", "redis address for the backup data store")
	flag.StringVar(&cfg.SeedFile, "seed", "", "JSON file with accounts created at startup")
	flag.IntVar(&cfg.MaxInFlight, "l", defaultMaxInFlight, "payments processed concurrently before requests get 429")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envDataStoreType != "" {
		cfg.DataStoreType = envDataStoreType
	}
	if envRedisAddress != "" {
		cfg.RedisAddress = envRedisAddress
	}
	if envSeedFile != "" {
		cfg.SeedFile = envSeedFile
	}
	if envMaxInFlight != 0 {
		cfg.MaxInFlight = envMaxInFlight
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.MaxInFlight < 1 {
		return nil, fmt.Errorf("max in-flight payments must be positive, got %d", cfg.MaxInFlight)
	}

	if _, err := repository.ParseStoreType(cfg.DataStoreType); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Store возвращает параметры хранилища счетов.
func (c *Config) Store() repository.StoreConfig {
	return repository.StoreConfig{
		Type:         c.DataStoreType,
		DatabaseURI:  c.DatabaseURI,
		RedisAddress: c.RedisAddress,
		SeedFile:     c.SeedFile,
	}
}

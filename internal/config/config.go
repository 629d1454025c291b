// Package config loads server configuration from the environment, an
// optional .env file and an optional YAML overlay.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/crmsim/consortium-engine/internal/model"
	"github.com/crmsim/consortium-engine/internal/simulation"
)

// Config is the server configuration.
type Config struct {
	Port        string        `yaml:"port"`
	DatabaseURL string        `yaml:"database_url"`
	RedisURL    string        `yaml:"redis_url"`
	JWTSecret   string        `yaml:"jwt_secret"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
	MemoSize    int           `yaml:"memo_size"`
	CORSOrigins []string      `yaml:"cors_origins"`

	// IndexRates are annual percentages per update index, e.g. INCC: 6.
	IndexRates map[model.IndexType]float64 `yaml:"index_rates"`
}

// Load reads configuration. A .env file in the working directory is loaded
// first when present; variables already set in the environment win. When
// CONFIG_FILE is set, the YAML file it names overrides the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:        getenvDefault("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		CacheTTL:    getenvDurationDefault("CACHE_TTL", 30*time.Second),
		MemoSize:    getenvIntDefault("MEMO_SIZE", 1024),
		CORSOrigins: splitCSV(getenvDefault("CORS_ORIGINS", "*")),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if cfg.JWTSecret == "" {
		return cfg, errors.New("config: JWT_SECRET required")
	}
	for idx := range cfg.IndexRates {
		if !idx.Valid() {
			return cfg, fmt.Errorf("config: unknown index %q in index_rates", idx)
		}
	}
	return cfg, nil
}

// Rates converts the configured percentages into engine index rates.
// Indexes without an entry keep the engine default.
func (c Config) Rates() simulation.IndexRates {
	rates := simulation.DefaultIndexRates()
	for idx, pct := range c.IndexRates {
		rates[idx] = decimal.NewFromFloat(pct).Div(decimal.NewFromInt(100))
	}
	return rates
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDurationDefault(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

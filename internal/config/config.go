package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries the service settings. An empty DatabaseURL selects the
// in-memory store; empty KafkaBrokers disables event publishing.
type Config struct {
	HTTPAddr            string
	DatabaseURL         string
	KafkaBrokers        []string
	TransferMaxAttempts int
}

// Load reads a .env file if present, then the environment. Missing values
// fall back to defaults.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:            ":8080",
		TransferMaxAttempts: 3,
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = strings.Split(v, ",")
	}
	if v := os.Getenv("TRANSFER_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TransferMaxAttempts = n
		}
	}
	return cfg
}

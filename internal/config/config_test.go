package config

import (
	"reflect"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("TRANSFER_MAX_ATTEMPTS", "")

	cfg := Load()
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.TransferMaxAttempts != 3 {
		t.Errorf("TransferMaxAttempts = %d, want 3", cfg.TransferMaxAttempts)
	}
	if cfg.KafkaBrokers != nil {
		t.Errorf("KafkaBrokers = %v, want nil", cfg.KafkaBrokers)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/ledger")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("TRANSFER_MAX_ATTEMPTS", "5")

	cfg := Load()
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.DatabaseURL != "postgres://localhost/ledger" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if want := []string{"k1:9092", "k2:9092"}; !reflect.DeepEqual(cfg.KafkaBrokers, want) {
		t.Errorf("KafkaBrokers = %v, want %v", cfg.KafkaBrokers, want)
	}
	if cfg.TransferMaxAttempts != 5 {
		t.Errorf("TransferMaxAttempts = %d, want 5", cfg.TransferMaxAttempts)
	}
}

func TestLoadIgnoresBadAttempts(t *testing.T) {
	t.Setenv("TRANSFER_MAX_ATTEMPTS", "zero")
	if cfg := Load(); cfg.TransferMaxAttempts != 3 {
		t.Errorf("TransferMaxAttempts = %d, want default 3", cfg.TransferMaxAttempts)
	}
}

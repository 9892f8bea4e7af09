package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "LICENSE_KEYS_FILE", "CATALOG_REFRESH_INTERVAL", "CATALOG_READ_ATTEMPTS",
		"ACTIVATION_STORE", "DATABASE_URL", "AUTO_MIGRATE", "REDIS_ADDR", "REDIS_DB",
		"OTEL_ENABLED", "OTEL_SAMPLING_RATE",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("want port 8080, got %s", cfg.Port)
	}
	if cfg.KeysFile != "fxlab_valid_keys.txt" {
		t.Errorf("unexpected keys file: %s", cfg.KeysFile)
	}
	if cfg.CatalogRefreshInterval != 0 {
		t.Errorf("want refresh interval 0, got %s", cfg.CatalogRefreshInterval)
	}
	if cfg.CatalogReadAttempts != 3 {
		t.Errorf("want 3 read attempts, got %d", cfg.CatalogReadAttempts)
	}
	if cfg.ActivationStore != StoreMemory {
		t.Errorf("want memory store, got %s", cfg.ActivationStore)
	}
	if !cfg.AutoMigrate {
		t.Error("want auto migrate enabled by default")
	}
	if cfg.OtelEnabled {
		t.Error("want otel disabled by default")
	}
	if cfg.OtelSamplingRate != 1.0 {
		t.Errorf("want sampling rate 1.0, got %f", cfg.OtelSamplingRate)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LICENSE_KEYS_FILE", "/etc/license/keys.txt")
	t.Setenv("CATALOG_REFRESH_INTERVAL", "45")
	t.Setenv("ACTIVATION_STORE", "Redis")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SAMPLING_RATE", "0.25")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("want port 9090, got %s", cfg.Port)
	}
	if cfg.KeysFile != "/etc/license/keys.txt" {
		t.Errorf("unexpected keys file: %s", cfg.KeysFile)
	}
	if cfg.CatalogRefreshInterval != 45*time.Second {
		t.Errorf("want 45s, got %s", cfg.CatalogRefreshInterval)
	}
	if cfg.ActivationStore != StoreRedis {
		t.Errorf("want redis store, got %s", cfg.ActivationStore)
	}
	if cfg.AutoMigrate {
		t.Error("want auto migrate disabled")
	}
	if cfg.RedisDB != 2 {
		t.Errorf("want redis db 2, got %d", cfg.RedisDB)
	}
	if !cfg.OtelEnabled || cfg.OtelSamplingRate != 0.25 {
		t.Errorf("unexpected otel settings: %v %f", cfg.OtelEnabled, cfg.OtelSamplingRate)
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "1m30s")
	if got := getEnvDuration("TEST_DURATION", 0); got != 90*time.Second {
		t.Errorf("want 90s, got %s", got)
	}
	t.Setenv("TEST_DURATION", "garbage")
	if got := getEnvDuration("TEST_DURATION", time.Second); got != time.Second {
		t.Errorf("want default, got %s", got)
	}
}

package config

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Source.Endpoint != "https://malapi.io" {
		t.Errorf("default endpoint = %q", cfg.Source.Endpoint)
	}
	if cfg.Source.DetailPath != "/winapi/" {
		t.Errorf("default detail path = %q", cfg.Source.DetailPath)
	}
	if cfg.Source.Concurrency != 4 {
		t.Errorf("default concurrency = %d", cfg.Source.Concurrency)
	}
	if cfg.Source.TimeoutSeconds != 30 {
		t.Errorf("default timeout = %d", cfg.Source.TimeoutSeconds)
	}
	if cfg.Logging.Format != "human" || cfg.Logging.Level != "info" {
		t.Errorf("default logging = %+v", cfg.Logging)
	}
}

func TestLoadUsesDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Source.Endpoint != "https://malapi.io" {
		t.Errorf("endpoint = %q", cfg.Source.Endpoint)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PESCAN_SOURCE_ENDPOINT", "http://localhost:9999")
	t.Setenv("PESCAN_SOURCE_CONCURRENCY", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Source.Endpoint != "http://localhost:9999" {
		t.Errorf("endpoint = %q, want env override", cfg.Source.Endpoint)
	}
	if cfg.Source.Concurrency != 2 {
		t.Errorf("concurrency = %d, want 2", cfg.Source.Concurrency)
	}
}

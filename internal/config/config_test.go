package config

import (
	"testing"
	"time"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.KafkaTopic != "driver-locations" || cfg.BroadcastTopN != 8 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadServerConfigOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("KAFKA_BROKERS", "b1:9092, b2:9092 ,")
	t.Setenv("HTTP_READ_TIMEOUT", "2s")
	t.Setenv("BROADCAST_TOP_N", "3")

	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("HTTP_ADDR not applied: %s", cfg.HTTPAddr)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "b2:9092" {
		t.Fatalf("brokers not parsed: %v", cfg.KafkaBrokers)
	}
	if cfg.ReadTimeout != 2*time.Second || cfg.BroadcastTopN != 3 {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
}

func TestLoadServerConfigRejectsBadValues(t *testing.T) {
	t.Setenv("BROADCAST_TOP_N", "0")
	if _, err := LoadServerConfig(); err == nil {
		t.Fatal("expected error for BROADCAST_TOP_N=0")
	}

	t.Setenv("BROADCAST_TOP_N", "not-a-number")
	if _, err := LoadServerConfig(); err == nil {
		t.Fatal("expected parse error")
	}
}

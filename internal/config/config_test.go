package config

import "testing"

func TestLoadServerConfigDefaults(t *testing.T) {
	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Hub != DefaultHub {
		t.Fatalf("expected default hub, got %+v", cfg.Hub)
	}
	if cfg.PollInterval.Seconds() != 5 {
		t.Fatalf("expected 5s poll interval, got %s", cfg.PollInterval)
	}
	if cfg.KafkaTopic != "ride-positions" {
		t.Fatalf("unexpected topic %q", cfg.KafkaTopic)
	}
}

func TestLoadServerConfigHubOverride(t *testing.T) {
	t.Setenv("HUB_LAT", "12.9716")
	t.Setenv("HUB_LNG", "77.5946")
	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Hub.Lat != 12.9716 || cfg.Hub.Lng != 77.5946 {
		t.Fatalf("hub override not applied: %+v", cfg.Hub)
	}
}

func TestLoadServerConfigRejectsBadHub(t *testing.T) {
	t.Setenv("HUB_LAT", "123.0")
	if _, err := LoadServerConfig(); err == nil {
		t.Fatal("expected out-of-range hub to error")
	}
}

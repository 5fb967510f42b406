package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.DBPath == "" {
		t.Error("DBPath is empty")
	}
	if cfg.ContentTimeout != 5*time.Second {
		t.Errorf("ContentTimeout = %v", cfg.ContentTimeout)
	}
	if !cfg.IsDevelopment() {
		t.Error("empty FrontendURL should mean development mode")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9001")
	t.Setenv("CONTENT_BASE_URL", "http://content:8000")
	t.Setenv("CONTENT_TIMEOUT", "2s")
	t.Setenv("VOICE_TIMEOUT", "30")
	t.Setenv("FRONTEND_URL", "https://app.godlykids.example")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "9001" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.ContentBaseURL != "http://content:8000" {
		t.Errorf("ContentBaseURL = %q", cfg.ContentBaseURL)
	}
	if cfg.ContentTimeout != 2*time.Second {
		t.Errorf("ContentTimeout = %v", cfg.ContentTimeout)
	}
	if cfg.VoiceTimeout != 30*time.Second {
		t.Errorf("bare-number VOICE_TIMEOUT = %v, want seconds", cfg.VoiceTimeout)
	}
	if cfg.IsDevelopment() {
		t.Error("production FrontendURL should not mean development mode")
	}
}

func TestValidateRejectsEmptyPort(t *testing.T) {
	cfg := &Config{DBPath: "x", ContentTimeout: time.Second, VoiceTimeout: time.Second, SweepInterval: time.Second}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty port")
	}
}

func TestGetEnvDurationFallbackOnGarbage(t *testing.T) {
	t.Setenv("SWEEP_INTERVAL", "not-a-duration")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SweepInterval != time.Hour {
		t.Errorf("SweepInterval = %v, want default", cfg.SweepInterval)
	}
}

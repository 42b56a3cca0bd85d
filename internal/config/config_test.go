package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ServerURL == "" {
		t.Error("expected a default server URL")
	}
	if cfg.ReasoningPath != "/process_input" {
		t.Errorf("unexpected reasoning path %q", cfg.ReasoningPath)
	}
	if cfg.TranscribePath != "/transcribe" {
		t.Errorf("unexpected transcribe path %q", cfg.TranscribePath)
	}
	if cfg.SampleRate != 16000 {
		t.Errorf("expected 16000 Hz default, got %d", cfg.SampleRate)
	}
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("ECHOMIND_SERVER_URL", "http://example.com:8080")
	t.Setenv("ECHOMIND_REQUEST_TIMEOUT", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerURL != "http://example.com:8080" {
		t.Errorf("override not applied, got %q", cfg.ServerURL)
	}
	if cfg.RequestTimeout() != 5*time.Second {
		t.Errorf("expected 5s timeout, got %s", cfg.RequestTimeout())
	}
}

func TestLoadRejectsBadURL(t *testing.T) {
	t.Setenv("ECHOMIND_SERVER_URL", "not a url")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid server URL")
	}
}

func TestLoadRejectsBadSampleRate(t *testing.T) {
	t.Setenv("ECHOMIND_SAMPLE_RATE", "-1")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative sample rate")
	}
}

func TestEndpointJoining(t *testing.T) {
	cfg := &Config{
		ServerURL:      "http://localhost:5000",
		ReasoningPath:  "/process_input",
		TranscribePath: "/transcribe",
	}
	if got := cfg.ReasoningURL(); got != "http://localhost:5000/process_input" {
		t.Errorf("unexpected reasoning URL %q", got)
	}
	if got := cfg.TranscribeURL(); got != "http://localhost:5000/transcribe" {
		t.Errorf("unexpected transcribe URL %q", got)
	}
}

// Package config loads the client's runtime configuration from the
// environment. A .env file is honored when present; every knob has a
// sensible default so the client runs against a local backend with no
// setup at all.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the chat client.
type Config struct {
	// Backend endpoints. ServerURL is the base; the two paths are
	// joined onto it.
	ServerURL      string `envconfig:"ECHOMIND_SERVER_URL" default:"http://localhost:5000"`
	ReasoningPath  string `envconfig:"ECHOMIND_REASONING_PATH" default:"/process_input"`
	TranscribePath string `envconfig:"ECHOMIND_TRANSCRIBE_PATH" default:"/transcribe"`

	// Transport. Both remote calls share one explicit timeout so a dead
	// backend can never hang the client indefinitely.
	RequestTimeoutSec int `envconfig:"ECHOMIND_REQUEST_TIMEOUT" default:"30"`

	// Capture format: PCM16 mono at this rate, delivered in chunks of
	// roughly ChunkMillis each.
	SampleRate  int `envconfig:"ECHOMIND_SAMPLE_RATE" default:"16000"`
	ChunkMillis int `envconfig:"ECHOMIND_CHUNK_MS" default:"100"`

	// UX timings.
	AutoSubmitMillis int `envconfig:"ECHOMIND_AUTO_SUBMIT_MS" default:"500"`
	NoticeTTLSec     int `envconfig:"ECHOMIND_NOTICE_TTL" default:"5"`
}

// Load reads configuration from the environment, first attempting to
// load a .env file if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if _, err := url.ParseRequestURI(cfg.ServerURL); err != nil {
		return nil, fmt.Errorf("invalid ECHOMIND_SERVER_URL %q: %w", cfg.ServerURL, err)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("ECHOMIND_SAMPLE_RATE must be positive, got %d", cfg.SampleRate)
	}

	return &cfg, nil
}

// ReasoningURL returns the full reasoning endpoint URL.
func (c *Config) ReasoningURL() string { return c.ServerURL + c.ReasoningPath }

// TranscribeURL returns the full transcription endpoint URL.
func (c *Config) TranscribeURL() string { return c.ServerURL + c.TranscribePath }

// RequestTimeout returns the shared HTTP timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// AutoSubmitDelay returns the pause between a finished transcription
// and its automatic submission.
func (c *Config) AutoSubmitDelay() time.Duration {
	return time.Duration(c.AutoSubmitMillis) * time.Millisecond
}

// NoticeTTL returns how long informational notices stay on screen.
func (c *Config) NoticeTTL() time.Duration {
	return time.Duration(c.NoticeTTLSec) * time.Second
}

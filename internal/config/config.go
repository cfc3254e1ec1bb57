package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Addr         string  `yaml:"addr"`
	RateRPS      float64 `yaml:"rate_rps"`   // forward-endpoint rate limit
	RateBurst    int     `yaml:"rate_burst"` // burst capacity
	MaxBodyBytes int64   `yaml:"max_body_bytes"`
}

type BackendConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type WhatsAppConfig struct {
	StorePath         string        `yaml:"store_path"` // whatsmeow sqlite device store
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
	ReconnectAttempts int           `yaml:"reconnect_attempts"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // trace|debug|info|warn|error
	Format string `yaml:"format"` // json|console
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Backend  BackendConfig  `yaml:"backend"`
	WhatsApp WhatsAppConfig `yaml:"whatsapp"`
	Log      LogConfig      `yaml:"log"`
}

// Load reads the YAML config at path, falling back to defaults when the file
// is absent, then applies environment overrides. An unreadable or malformed
// file is an error; a missing one is not.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(cfg)

	if cfg.Backend.URL == "" {
		return nil, fmt.Errorf("backend.url is required (or set BACKEND_URL)")
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":3000",
			RateRPS:      5,
			RateBurst:    10,
			MaxBodyBytes: 1 << 20,
		},
		Backend: BackendConfig{
			URL:     "http://localhost:8080",
			Timeout: 15 * time.Second,
		},
		WhatsApp: WhatsAppConfig{
			StorePath:         "devices/session.db",
			ReconnectDelay:    5 * time.Second,
			ReconnectAttempts: 1,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Addr = ":" + v
	}
	if v := os.Getenv("BACKEND_URL"); v != "" {
		cfg.Backend.URL = v
	}
	if v := os.Getenv("WA_STORE_PATH"); v != "" {
		cfg.WhatsApp.StorePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("RECONNECT_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.WhatsApp.ReconnectDelay = d
		}
	}
	if v := os.Getenv("RECONNECT_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.WhatsApp.ReconnectAttempts = n
		}
	}
}

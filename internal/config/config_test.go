package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":3000" {
		t.Fatalf("addr = %s", cfg.Server.Addr)
	}
	if cfg.WhatsApp.ReconnectDelay != 5*time.Second {
		t.Fatalf("reconnect delay = %v", cfg.WhatsApp.ReconnectDelay)
	}
	if cfg.WhatsApp.ReconnectAttempts != 1 {
		t.Fatalf("reconnect attempts = %d", cfg.WhatsApp.ReconnectAttempts)
	}
	if cfg.Backend.Timeout != 15*time.Second {
		t.Fatalf("backend timeout = %v", cfg.Backend.Timeout)
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  addr: ":9000"
backend:
  url: "http://backend:8080"
  timeout: 3s
whatsapp:
  reconnect_delay: 2s
  reconnect_attempts: 4
log:
  level: debug
  format: json
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Fatalf("addr = %s", cfg.Server.Addr)
	}
	if cfg.Backend.URL != "http://backend:8080" || cfg.Backend.Timeout != 3*time.Second {
		t.Fatalf("backend = %+v", cfg.Backend)
	}
	if cfg.WhatsApp.ReconnectDelay != 2*time.Second || cfg.WhatsApp.ReconnectAttempts != 4 {
		t.Fatalf("whatsapp = %+v", cfg.WhatsApp)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("log = %+v", cfg.Log)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("BACKEND_URL", "http://other:9999")
	t.Setenv("RECONNECT_DELAY", "7s")
	t.Setenv("RECONNECT_ATTEMPTS", "2")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":4000" {
		t.Fatalf("addr = %s", cfg.Server.Addr)
	}
	if cfg.Backend.URL != "http://other:9999" {
		t.Fatalf("backend url = %s", cfg.Backend.URL)
	}
	if cfg.WhatsApp.ReconnectDelay != 7*time.Second || cfg.WhatsApp.ReconnectAttempts != 2 {
		t.Fatalf("whatsapp = %+v", cfg.WhatsApp)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

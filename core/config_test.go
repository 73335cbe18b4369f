package core

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Push.MaxReconnectAttempts != 10 {
		t.Fatalf("expected 10 reconnect attempts, got %d", cfg.Push.MaxReconnectAttempts)
	}
	if cfg.Push.BaseReconnectDelay != time.Second || cfg.Push.MaxReconnectDelay != 30*time.Second {
		t.Fatalf("unexpected reconnect window %s..%s", cfg.Push.BaseReconnectDelay, cfg.Push.MaxReconnectDelay)
	}
}

func TestConfigValidateRejectsMissingFields(t *testing.T) {
	cases := map[string]func(*Config){
		"service_name":        func(c *Config) { c.ServiceName = " " },
		"backend.base_url":    func(c *Config) { c.Backend.BaseURL = "" },
		"callback_url_prefix": func(c *Config) { c.Backend.CallbackURLPrefix = "" },
		"push.url":            func(c *Config) { c.Push.URL = "" },
		"reconnect_attempts":  func(c *Config) { c.Push.MaxReconnectAttempts = -1 },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation failure", name)
		}
	}
}

func TestPaymentsURLJoinsBaseAndPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend.BaseURL = "https://api.example.com/"
	cfg.Backend.PaymentsPath = "payments"
	if got := cfg.PaymentsURL(); got != "https://api.example.com/payments" {
		t.Fatalf("unexpected payments url %q", got)
	}

	cfg.Backend.PaymentsPath = ""
	if got := cfg.PaymentsURL(); !strings.HasSuffix(got, "/payments") {
		t.Fatalf("expected default payments path, got %q", got)
	}
}

func TestOptionsResolverLayersRuntimeOverConfig(t *testing.T) {
	defaults := DefaultConfig()
	loaded := Config{}
	loaded.Backend.BaseURL = "https://staging.example.com"
	runtime := Config{}
	runtime.Push.MaxReconnectAttempts = 3

	resolved, err := GoOptionsResolver{}.Resolve(defaults, loaded, runtime)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if resolved.Backend.BaseURL != "https://staging.example.com" {
		t.Fatalf("loaded layer must override defaults, got %q", resolved.Backend.BaseURL)
	}
	if resolved.Push.MaxReconnectAttempts != 3 {
		t.Fatalf("runtime layer must win, got %d", resolved.Push.MaxReconnectAttempts)
	}
	if resolved.ServiceName != defaults.ServiceName {
		t.Fatalf("untouched values must fall back to defaults, got %q", resolved.ServiceName)
	}
}

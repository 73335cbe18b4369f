package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const defaultScaEntryTTL = 15 * time.Minute

type BackendConfig struct {
	BaseURL           string        `koanf:"base_url" mapstructure:"base_url"`
	PaymentsPath      string        `koanf:"payments_path" mapstructure:"payments_path"`
	CallbackURLPrefix string        `koanf:"callback_url_prefix" mapstructure:"callback_url_prefix"`
	RequestTimeout    time.Duration `koanf:"request_timeout" mapstructure:"request_timeout"`
}

type PushConfig struct {
	URL                  string        `koanf:"url" mapstructure:"url"`
	BaseReconnectDelay   time.Duration `koanf:"base_reconnect_delay" mapstructure:"base_reconnect_delay"`
	MaxReconnectDelay    time.Duration `koanf:"max_reconnect_delay" mapstructure:"max_reconnect_delay"`
	MaxReconnectAttempts int           `koanf:"max_reconnect_attempts" mapstructure:"max_reconnect_attempts"`
}

type ScaConfig struct {
	EntryTTL time.Duration `koanf:"entry_ttl" mapstructure:"entry_ttl"`
}

type Config struct {
	ServiceName string        `koanf:"service_name" mapstructure:"service_name"`
	Backend     BackendConfig `koanf:"backend" mapstructure:"backend"`
	Push        PushConfig    `koanf:"push" mapstructure:"push"`
	Sca         ScaConfig     `koanf:"sca" mapstructure:"sca"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "finsec-payment-flow",
		Backend: BackendConfig{
			BaseURL:           "https://api.your-secure-backend.com",
			PaymentsPath:      "/payments",
			CallbackURLPrefix: "https://api.your-secure-backend.com/payment-callback",
			RequestTimeout:    30 * time.Second,
		},
		Push: PushConfig{
			URL:                  "wss://api.your-secure-backend.com/ws",
			BaseReconnectDelay:   time.Second,
			MaxReconnectDelay:    30 * time.Second,
			MaxReconnectAttempts: 10,
		},
		Sca: ScaConfig{
			EntryTTL: defaultScaEntryTTL,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return fmt.Errorf("core: backend.base_url is required")
	}
	if _, err := url.Parse(strings.TrimSpace(c.Backend.BaseURL)); err != nil {
		return fmt.Errorf("core: backend.base_url is invalid: %w", err)
	}
	if strings.TrimSpace(c.Backend.CallbackURLPrefix) == "" {
		return fmt.Errorf("core: backend.callback_url_prefix is required")
	}
	if strings.TrimSpace(c.Push.URL) == "" {
		return fmt.Errorf("core: push.url is required")
	}
	if c.Push.MaxReconnectAttempts < 0 {
		return fmt.Errorf("core: push.max_reconnect_attempts must not be negative")
	}
	return nil
}

// PaymentsURL joins the backend base URL with the payments path.
func (c Config) PaymentsURL() string {
	base := strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	path := strings.TrimSpace(c.Backend.PaymentsPath)
	if path == "" {
		path = "/payments"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

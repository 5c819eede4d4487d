package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"storefront-bff/internal/models/global"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultListen        = ":3000"
	DefaultProxyTimeout  = 30 * time.Second
	DefaultFanoutTimeout = 5 * time.Second
	DefaultMaxBodyBytes  = 8 << 20
)

// LoadSettings reads the YAML settings file. A missing file yields the
// defaults so the gateway can run from environment alone.
func LoadSettings(path string) (*global.Settings, error) {
	var cfg global.Settings

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *global.Settings) {
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = DefaultListen
	}
	if cfg.Server.Timeouts.Read == 0 {
		cfg.Server.Timeouts.Read = 15 * time.Second
	}
	if cfg.Server.Timeouts.Idle == 0 {
		cfg.Server.Timeouts.Idle = 60 * time.Second
	}
	if cfg.Server.Limits.MaxHeaderBytes == 0 {
		cfg.Server.Limits.MaxHeaderBytes = 1 << 20
	}

	if cfg.Proxy.Timeout == 0 {
		cfg.Proxy.Timeout = DefaultProxyTimeout
	}
	if cfg.Proxy.FanoutTimeout == 0 {
		cfg.Proxy.FanoutTimeout = DefaultFanoutTimeout
	}
	// the fan-out never gets more time than a single call
	cfg.Proxy.FanoutTimeout = min(cfg.Proxy.FanoutTimeout, cfg.Proxy.Timeout)
	if cfg.Proxy.MaxBodyBytes == 0 {
		cfg.Proxy.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Proxy.RateLimit.RPS > 0 && cfg.Proxy.RateLimit.Burst == 0 {
		cfg.Proxy.RateLimit.Burst = int(cfg.Proxy.RateLimit.RPS)
		if cfg.Proxy.RateLimit.Burst < 1 {
			cfg.Proxy.RateLimit.Burst = 1
		}
	}

	// writes must outlive the slowest proxied call
	if cfg.Server.Timeouts.Write == 0 {
		cfg.Server.Timeouts.Write = cfg.Proxy.Timeout + 10*time.Second
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

func validate(cfg *global.Settings) error {
	if cfg.Proxy.Timeout < 0 || cfg.Proxy.FanoutTimeout < 0 {
		return fmt.Errorf("proxy timeouts must be positive")
	}
	if cfg.Proxy.MaxBodyBytes < 0 {
		return fmt.Errorf("proxy.max_body_bytes must be positive")
	}
	if cfg.Proxy.RateLimit.RPS < 0 {
		return fmt.Errorf("proxy.rate_limit.rps must not be negative")
	}
	switch cfg.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", cfg.Log.Format)
	}
	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		return err
	}
	return nil
}

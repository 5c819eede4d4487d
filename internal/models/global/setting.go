package global

import "time"

type Settings struct {
	Server Server `yaml:"server"`
	Proxy  Proxy  `yaml:"proxy"`
	Log    Log    `yaml:"log"`
}

type Server struct {
	Listen   string   `yaml:"listen"`
	Timeouts Timeouts `yaml:"timeouts"`
	Limits   Limits   `yaml:"limits"`
}

type Timeouts struct {
	Read  time.Duration `yaml:"read"`
	Write time.Duration `yaml:"write"`
	Idle  time.Duration `yaml:"idle"`
}

type Limits struct {
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// Proxy holds the budgets applied to outbound backend calls.
type Proxy struct {
	Timeout       time.Duration `yaml:"timeout"`
	FanoutTimeout time.Duration `yaml:"fanout_timeout"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes"`
	RateLimit     RateLimit     `yaml:"rate_limit"`
}

// RateLimit is applied per client address. A zero RPS disables it.
type RateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

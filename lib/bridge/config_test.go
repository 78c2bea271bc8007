package bridge

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.AdmissionAddr != ":9001" {
		t.Errorf("AdmissionAddr = %q, want :9001", cfg.AdmissionAddr)
	}
	if cfg.RelayAddr != ":9002" {
		t.Errorf("RelayAddr = %q, want :9002", cfg.RelayAddr)
	}
	if cfg.Timeouts.Admission != 5*time.Second {
		t.Errorf("Timeouts.Admission = %v, want 5s", cfg.Timeouts.Admission)
	}
	if cfg.Limits.ThrottleSize != 1024 {
		t.Errorf("Limits.ThrottleSize = %d, want 1024", cfg.Limits.ThrottleSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "empty admission address",
			mutate:  func(c *Config) { c.AdmissionAddr = "" },
			wantErr: true,
		},
		{
			name:    "empty relay address",
			mutate:  func(c *Config) { c.RelayAddr = "" },
			wantErr: true,
		},
		{
			name: "same port for both services",
			mutate: func(c *Config) {
				c.AdmissionAddr = ":9001"
				c.RelayAddr = ":9001"
			},
			wantErr: true,
		},
		{
			name: "ephemeral ports may collide textually",
			mutate: func(c *Config) {
				c.AdmissionAddr = "127.0.0.1:0"
				c.RelayAddr = "127.0.0.1:0"
			},
			wantErr: false,
		},
		{
			name:    "negative admission timeout",
			mutate:  func(c *Config) { c.Timeouts.Admission = -time.Second },
			wantErr: true,
		},
		{
			name:    "negative throttle size",
			mutate:  func(c *Config) { c.Limits.ThrottleSize = -1 },
			wantErr: true,
		},
		{
			name:    "negative max connections",
			mutate:  func(c *Config) { c.Limits.MaxConnections = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var cfgErr *ConfigError
				if !errors.As(err, &cfgErr) {
					t.Errorf("error is %T, want *ConfigError", err)
				}
			}
		})
	}
}

func TestConfig_WithSetters(t *testing.T) {
	orig := DefaultConfig()

	modified := orig.WithAdmissionAddr(":7001").WithRelayAddr(":7002").WithDebug(true)

	if modified.AdmissionAddr != ":7001" || modified.RelayAddr != ":7002" || !modified.Debug {
		t.Errorf("setters not applied: %+v", modified)
	}
	if orig.AdmissionAddr != ":9001" || orig.RelayAddr != ":9002" || orig.Debug {
		t.Errorf("original mutated: %+v", orig)
	}
}

// Package bridge ties the chat relay together: one process owning the
// TCP admission service and the UDP relay service, sharing a single room
// registry.
package bridge

import (
	"strings"
	"time"

	"github.com/chatwire/go-chat-relay/lib/admission"
	"github.com/chatwire/go-chat-relay/lib/relay"
)

// Default configuration values.
const (
	// DefaultAdmissionAddr is the default admission TCP listen address.
	DefaultAdmissionAddr = ":9001"

	// DefaultRelayAddr is the default relay UDP listen address.
	// Must differ from the admission port; the two services are
	// independent sockets.
	DefaultRelayAddr = ":9002"
)

// Config holds the chat relay server configuration.
// All fields have sensible defaults that can be overridden, either in
// code or through a YAML config file (see LoadConfig).
type Config struct {
	// AdmissionAddr is the TCP address for CREATE/JOIN requests.
	AdmissionAddr string `yaml:"admission_addr"`

	// RelayAddr is the UDP address for chat datagrams.
	RelayAddr string `yaml:"relay_addr"`

	// Debug enables debug logging.
	Debug bool `yaml:"debug"`

	// Timeouts holds connection timeout settings.
	Timeouts TimeoutConfig `yaml:"timeouts"`

	// Limits holds connection limits and throttle sizes.
	Limits LimitConfig `yaml:"limits"`
}

// TimeoutConfig holds timeout settings.
type TimeoutConfig struct {
	// Admission is the read deadline for the admission frame.
	// A connection that sends nothing is closed with no registry change.
	Admission time.Duration `yaml:"admission"`
}

// LimitConfig holds connection limits and throttle sizes.
type LimitConfig struct {
	// MaxConnections caps concurrent admission connections (0 = no limit).
	MaxConnections int `yaml:"max_connections"`

	// ThrottleSize is the relay's Unauthorized-reply cache size.
	ThrottleSize int `yaml:"throttle_size"`

	// ThrottleWindow is the minimum interval between Unauthorized
	// replies to one source address.
	ThrottleWindow time.Duration `yaml:"throttle_window"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		AdmissionAddr: DefaultAdmissionAddr,
		RelayAddr:     DefaultRelayAddr,
		Timeouts: TimeoutConfig{
			Admission: admission.DefaultReadTimeout,
		},
		Limits: LimitConfig{
			MaxConnections: 0, // No limit
			ThrottleSize:   relay.DefaultThrottleSize,
			ThrottleWindow: relay.DefaultThrottleWindow,
		},
	}
}

// Validate checks the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.AdmissionAddr == "" {
		return &ConfigError{Field: "AdmissionAddr", Message: "cannot be empty"}
	}
	if c.RelayAddr == "" {
		return &ConfigError{Field: "RelayAddr", Message: "cannot be empty"}
	}
	if c.AdmissionAddr == c.RelayAddr && !strings.HasSuffix(c.AdmissionAddr, ":0") {
		// The two services never share a port. Ephemeral ":0" addresses
		// resolve to distinct ports at bind time.
		return &ConfigError{Field: "RelayAddr", Message: "must differ from AdmissionAddr"}
	}
	if c.Timeouts.Admission < 0 {
		return &ConfigError{Field: "Timeouts.Admission", Message: "cannot be negative"}
	}
	if c.Limits.MaxConnections < 0 {
		return &ConfigError{Field: "Limits.MaxConnections", Message: "cannot be negative"}
	}
	if c.Limits.ThrottleSize < 0 {
		return &ConfigError{Field: "Limits.ThrottleSize", Message: "cannot be negative"}
	}
	if c.Limits.ThrottleWindow < 0 {
		return &ConfigError{Field: "Limits.ThrottleWindow", Message: "cannot be negative"}
	}
	return nil
}

// WithAdmissionAddr returns a copy of the config with the admission
// address set.
func (c *Config) WithAdmissionAddr(addr string) *Config {
	newCfg := *c
	newCfg.AdmissionAddr = addr
	return &newCfg
}

// WithRelayAddr returns a copy of the config with the relay address set.
func (c *Config) WithRelayAddr(addr string) *Config {
	newCfg := *c
	newCfg.RelayAddr = addr
	return &newCfg
}

// WithDebug returns a copy of the config with debug logging toggled.
func (c *Config) WithDebug(debug bool) *Config {
	newCfg := *c
	newCfg.Debug = debug
	return &newCfg
}

// admissionConfig maps the bridge config onto the admission service.
func (c *Config) admissionConfig() admission.Config {
	return admission.Config{
		ListenAddr:     c.AdmissionAddr,
		ReadTimeout:    c.Timeouts.Admission,
		MaxConnections: c.Limits.MaxConnections,
	}
}

// relayConfig maps the bridge config onto the relay service.
func (c *Config) relayConfig() relay.Config {
	return relay.Config{
		ListenAddr:     c.RelayAddr,
		ThrottleSize:   c.Limits.ThrottleSize,
		ThrottleWindow: c.Limits.ThrottleWindow,
	}
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error: " + e.Field + " " + e.Message
}

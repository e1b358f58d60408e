package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete relay configuration.
type Config struct {
	Relay RelaySettings `hcl:"relay,block"`
}

// RelaySettings contains relay-level configuration.
type RelaySettings struct {
	Address      string `hcl:"address,optional"`
	Port         int    `hcl:"port,optional"`
	LogLevel     string `hcl:"log_level,optional"`
	AuditDir     string `hcl:"audit_dir,optional"`
	MaxHands     int    `hcl:"max_hands,optional"`
	HandExpiryMs int    `hcl:"hand_expiry_ms,optional"`
}

// HandExpiry returns the configured hand expiry as a duration.
func (s RelaySettings) HandExpiry() time.Duration {
	return time.Duration(s.HandExpiryMs) * time.Millisecond
}

// Addr returns the listen address in host:port form.
func (s RelaySettings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Address, s.Port)
}

// DefaultConfig returns default relay configuration.
func DefaultConfig() *Config {
	return &Config{
		Relay: RelaySettings{
			Address:      "localhost",
			Port:         8080,
			LogLevel:     "info",
			AuditDir:     "log_rng",
			MaxHands:     1024,
			HandExpiryMs: int((10 * time.Minute).Milliseconds()),
		},
	}
}

// LoadConfig loads relay configuration from an HCL file. A missing file
// yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	def := DefaultConfig().Relay
	if config.Relay.Address == "" {
		config.Relay.Address = def.Address
	}
	if config.Relay.Port == 0 {
		config.Relay.Port = def.Port
	}
	if config.Relay.LogLevel == "" {
		config.Relay.LogLevel = def.LogLevel
	}
	if config.Relay.AuditDir == "" {
		config.Relay.AuditDir = def.AuditDir
	}
	if config.Relay.MaxHands == 0 {
		config.Relay.MaxHands = def.MaxHands
	}
	if config.Relay.HandExpiryMs == 0 {
		config.Relay.HandExpiryMs = def.HandExpiryMs
	}

	return &config, nil
}

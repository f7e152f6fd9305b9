// Package config loads the optional pgrenew.yaml project file.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ConnectionConfig holds connection parameters from pgrenew.yaml.
type ConnectionConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode,omitempty"`
	AppName  string `yaml:"application_name,omitempty"`

	AuthMethod    string `yaml:"auth_method,omitempty"`
	AzureTenantID string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID string `yaml:"azure_client_id,omitempty"`
	AWSRegion     string `yaml:"aws_region,omitempty"`
}

// ReconnectConfig tunes the retry policy applied while a renewal
// reconstructs a connection.
type ReconnectConfig struct {
	MaxAttempts  int    `yaml:"max_attempts,omitempty"`
	InitialDelay string `yaml:"initial_delay,omitempty"`
	MaxDelay     string `yaml:"max_delay,omitempty"`
}

// ProjectConfig is the root of pgrenew.yaml.
type ProjectConfig struct {
	Connection ConnectionConfig `yaml:"connection"`
	Reconnect  ReconnectConfig  `yaml:"reconnect"`
}

const ConfigFileName = "pgrenew.yaml"

// Load reads pgrenew.yaml from dir.
func Load(dir string) (*ProjectConfig, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// InitialDelayDuration parses the initial delay, returning fallback when
// unset or invalid.
func (r *ReconnectConfig) InitialDelayDuration(fallback time.Duration) time.Duration {
	return parseDuration(r.InitialDelay, fallback)
}

// MaxDelayDuration parses the max delay, returning fallback when unset or
// invalid.
func (r *ReconnectConfig) MaxDelayDuration(fallback time.Duration) time.Duration {
	return parseDuration(r.MaxDelay, fallback)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

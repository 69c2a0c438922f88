// Package config handles hamcp configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultHAURL is used when homeassistant.url is not configured.
const DefaultHAURL = "http://homeassistant.local:8123/api"

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/hamcp/config.yaml, /etc/hamcp/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "hamcp", "config.yaml"))
	}

	paths = append(paths, "/etc/hamcp/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all hamcp configuration.
type Config struct {
	Serve         ServeConfig         `yaml:"serve"`
	HomeAssistant HomeAssistantConfig `yaml:"homeassistant"`
	LogLevel      string              `yaml:"log_level"`
}

// ServeConfig defines how the MCP tool surface is exposed.
type ServeConfig struct {
	// Transport selects "stdio" or "http" (default: stdio).
	Transport string `yaml:"transport"`
	// Address is the bind address for the http transport ("" = all interfaces).
	Address string `yaml:"address"`
	// Port is the listen port for the http transport (default: 5555).
	Port int `yaml:"port"`
}

// HomeAssistantConfig defines the hub connection settings.
type HomeAssistantConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// Load reads configuration from a YAML file. Environment variables in
// the file body ($HA_TOKEN etc.) are expanded before parsing, so tokens
// can stay out of the file itself.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Serve: ServeConfig{
			Transport: "stdio",
			Port:      5555,
		},
		HomeAssistant: HomeAssistantConfig{
			URL: DefaultHAURL,
		},
	}
}

// Validate checks the configuration for startup-blocking problems.
// The Home Assistant token is mandatory: every hub call is bearer-token
// authenticated, so running without one can only fail later and worse.
func (c *Config) Validate() error {
	if c.HomeAssistant.Token == "" {
		return fmt.Errorf("homeassistant.token is missing")
	}
	if c.HomeAssistant.URL == "" {
		return fmt.Errorf("homeassistant.url is missing")
	}
	switch c.Serve.Transport {
	case "", "stdio", "http":
	default:
		return fmt.Errorf("serve.transport %q is invalid (valid: stdio, http)", c.Serve.Transport)
	}
	if c.LogLevel != "" {
		if _, err := ParseLogLevel(c.LogLevel); err != nil {
			return err
		}
	}
	return nil
}

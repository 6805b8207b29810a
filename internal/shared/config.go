package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Proxy     ProxyConfig     `toml:"proxy"`
	Downloads DownloadsConfig `toml:"downloads"`
	Database  DatabaseConfig  `toml:"database"`
	Server    ServerConfig    `toml:"server"`
}

// ProxyConfig describes how to reach the Familliar library proxy.
type ProxyConfig struct {
	BaseURL     string `toml:"base_url"`
	ClientID    string `toml:"client_id"`
	RedirectURI string `toml:"redirect_uri"`
	Token       string `toml:"token"`
}

// DownloadsConfig contains download scheduler and transfer settings.
type DownloadsConfig struct {
	Dir                 string  `toml:"dir"`
	RateLimit           float64 `toml:"rate_limit"`
	Retries             int     `toml:"retries"`
	Tag                 bool    `toml:"tag"`
	RetainCompletedSecs int     `toml:"retain_completed_seconds"`
	RetainCancelledSecs int     `toml:"retain_cancelled_seconds"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings for the downloads daemon.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr joins the configured host and port into a listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &config, nil
}

// ResolveConfigPath returns the first configuration file that exists:
// the FAMILLIAR_CONFIG environment variable when set, ./familliar.toml,
// then familliar/familliar.toml under the user config directory. An
// explicit FAMILLIAR_CONFIG path is returned even when the file is
// missing so a bad override fails loudly instead of falling back.
func ResolveConfigPath() (string, bool) {
	if path := os.Getenv("FAMILLIAR_CONFIG"); path != "" {
		return path, true
	}

	candidates := []string{"familliar.toml"}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "familliar", "familliar.toml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}

	return "", false
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes the configuration back to disk, replacing any existing
// file. Used after account linking stores a fresh proxy token.
func SaveConfig(config *Config, path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

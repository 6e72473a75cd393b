// Package config handles configuration loading, validation, and
// persistence for the Worldforge build service.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	DefaultConfigDir  = "config"
	DefaultConfigFile = "config.json"
	DefaultAPIPort    = 8080
	DefaultRCONPort   = 25575
)

// Config is the root configuration structure for Worldforge.
type Config struct {
	mu   sync.RWMutex
	path string

	RCON     RCONConfig     `json:"rcon"`
	Build    BuildConfig    `json:"build"`
	Security SecurityConfig `json:"security"`
	MQTT     MQTTConfig     `json:"mqtt"`
	Database DatabaseConfig `json:"database"`
	Logging  LoggingConfig  `json:"logging"`

	APIPort int `json:"api_port"`
}

// RCONConfig identifies the game server target and its timeouts. The
// core treats these as opaque parameters injected at construction.
type RCONConfig struct {
	Host              string `json:"host"`
	Port              int    `json:"port"`
	Password          string `json:"password"`
	ConnectTimeoutSec int    `json:"connect_timeout_sec"`
	CommandTimeoutSec int    `json:"command_timeout_sec"`
}

// BuildConfig holds build pacing settings.
type BuildConfig struct {
	CommandDelayMs   int `json:"command_delay_ms"`
	StructurePauseMs int `json:"structure_pause_ms"`
}

// SecurityConfig holds API security settings.
type SecurityConfig struct {
	TLSEnabled     bool     `json:"tls_enabled"`
	TLSCertFile    string   `json:"tls_cert_file"`
	TLSKeyFile     string   `json:"tls_key_file"`
	AllowedOrigins []string `json:"allowed_origins"`
	RateLimitRPS   int      `json:"rate_limit_rps"`
	APIToken       string   `json:"api_token"`
	AuthDisabled   bool     `json:"auth_disabled"`
}

// MQTTConfig holds MQTT telemetry settings.
type MQTTConfig struct {
	Enabled   bool   `json:"enabled"`
	BrokerURL string `json:"broker_url"`
	Port      int    `json:"port"`
	UseTLS    bool   `json:"use_tls"`
	CertFile  string `json:"cert_file"`
	KeyFile   string `json:"key_file"`
	ClientID  string `json:"client_id"`
}

// DatabaseConfig holds the build-history store settings.
type DatabaseConfig struct {
	Path          string `json:"path"`
	RetentionDays int    `json:"retention_days"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `json:"level"`
	Directory  string `json:"directory"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		RCON: RCONConfig{
			Host:              "127.0.0.1",
			Port:              DefaultRCONPort,
			ConnectTimeoutSec: 10,
			CommandTimeoutSec: 10,
		},
		Build: BuildConfig{
			CommandDelayMs:   50,
			StructurePauseMs: 500,
		},
		Security: SecurityConfig{
			RateLimitRPS: 100,
			AuthDisabled: true,
		},
		MQTT: MQTTConfig{
			Port: 8883,
		},
		Database: DatabaseConfig{
			Path:          "config/history.db",
			RetentionDays: 30,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Directory:  "logs",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
		APIPort: DefaultAPIPort,
	}
}

// Load reads configuration from a JSON file, overlays it on the
// defaults, then applies environment overrides.
func Load(configDir string) (*Config, error) {
	configPath := filepath.Join(configDir, DefaultConfigFile)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", configPath).Msg("config file not found, creating default")
			cfg := DefaultConfig()
			cfg.path = configPath
			cfg.applyEnv()
			if saveErr := cfg.Save(); saveErr != nil {
				return nil, fmt.Errorf("failed to save default config: %w", saveErr)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig() // Start with defaults, then overlay
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	cfg.path = configPath
	cfg.applyEnv()
	log.Info().Str("path", configPath).Msg("configuration loaded")

	return cfg, nil
}

// applyEnv overlays WORLDFORGE_* environment variables on the loaded
// configuration. The RCON target is typically injected this way in
// containerized deployments, where the secret never touches disk.
func (c *Config) applyEnv() {
	if v := os.Getenv("WORLDFORGE_RCON_HOST"); v != "" {
		c.RCON.Host = v
	}
	if v := os.Getenv("WORLDFORGE_RCON_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.RCON.Port = port
		}
	}
	if v := os.Getenv("WORLDFORGE_RCON_PASSWORD"); v != "" {
		c.RCON.Password = v
	}
	if v := os.Getenv("WORLDFORGE_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.APIPort = port
		}
	}
	if v := os.Getenv("WORLDFORGE_API_TOKEN"); v != "" {
		c.Security.APIToken = v
		c.Security.AuthDisabled = false
	}
}

// Save writes the current configuration to disk.
func (c *Config) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Debug().Str("path", c.path).Msg("configuration saved")
	return nil
}

// GetRCON returns a copy of the RCON target configuration.
func (c *Config) GetRCON() RCONConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.RCON
}

// SetRCON updates the RCON target configuration.
func (c *Config) SetRCON(data RCONConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.RCON = data
}

// GetBuild returns a copy of the build pacing configuration.
func (c *Config) GetBuild() BuildConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Build
}

// Path returns the config file path.
func (c *Config) Path() string {
	return c.path
}

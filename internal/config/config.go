package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration for the Switchyard routing
// service. It is loaded from ~/.switchyard/config.yaml and can be overridden
// by environment variables.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Policy  PolicyConfig  `mapstructure:"policy" yaml:"policy"`
	Journal JournalConfig `mapstructure:"journal" yaml:"journal"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig contains configuration for the HTTP routing API.
type ServerConfig struct {
	// Host is the interface the server binds to
	Host string `mapstructure:"host" yaml:"host"`
	// Port is the TCP port for the routing API
	Port int `mapstructure:"port" yaml:"port"`
	// ReadTimeoutSec bounds how long a request body read may take
	ReadTimeoutSec int `mapstructure:"read_timeout_sec" yaml:"read_timeout_sec"`
	// WriteTimeoutSec bounds how long a response write may take
	WriteTimeoutSec int `mapstructure:"write_timeout_sec" yaml:"write_timeout_sec"`
}

// Addr returns the host:port string the server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PolicyConfig points at the routing policy document.
type PolicyConfig struct {
	// Path is the policy document location. If the file does not exist the
	// built-in default policy is used.
	Path string `mapstructure:"path" yaml:"path"`
}

// JournalConfig contains configuration for the decision journal.
type JournalConfig struct {
	// Enabled determines whether decisions are recorded
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// DBPath is the path to the SQLite journal database
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// LoggingConfig contains configuration for structured logging.
type LoggingConfig struct {
	// Level is the log level ("debug", "info", "warn", "error")
	Level string `mapstructure:"level" yaml:"level"`
	// Format is the output format ("console" or "json")
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns a configuration with sensible defaults for local use.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            7433,
			ReadTimeoutSec:  15,
			WriteTimeoutSec: 15,
		},
		Policy: PolicyConfig{
			Path: "~/.switchyard/policy.yaml",
		},
		Journal: JournalConfig{
			Enabled: false,
			DBPath:  "~/.switchyard/journal.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from the default location (~/.switchyard/config.yaml).
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return LoadFromPath(filepath.Join(homeDir, ".switchyard", "config.yaml"))
}

// LoadFromPath reads configuration from the given file, creating it with
// defaults if it does not exist. Environment variables prefixed with
// SWITCHYARD_ override file values (e.g. SWITCHYARD_SERVER_PORT).
func LoadFromPath(path string) (*Config, error) {
	path = expandPath(path)

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		if err := writeConfigFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("SWITCHYARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Policy.Path = expandPath(cfg.Policy.Path)
	cfg.Journal.DBPath = expandPath(cfg.Journal.DBPath)

	return &cfg, nil
}

// Save writes the configuration back to the default location.
func (c *Config) Save() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	return c.SaveToPath(filepath.Join(homeDir, ".switchyard", "config.yaml"))
}

// SaveToPath writes the configuration to the given file.
func (c *Config) SaveToPath(path string) error {
	path = expandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return writeConfigFile(path, c)
}

// Validate checks the configuration for obvious mistakes before the service
// starts.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level '%s', must be one of: debug, info, warn, error", c.Logging.Level)
	}

	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid log format '%s', must be 'console' or 'json'", c.Logging.Format)
	}

	if c.Journal.Enabled && c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path is required when the journal is enabled")
	}

	return nil
}

func writeConfigFile(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

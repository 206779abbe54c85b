package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 7433 {
		t.Errorf("expected default port 7433, got %d", cfg.Server.Port)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got '%s'", cfg.Logging.Level)
	}

	if cfg.Logging.Format != "console" {
		t.Errorf("expected log format 'console', got '%s'", cfg.Logging.Format)
	}

	if cfg.Journal.Enabled {
		t.Error("expected the journal to be disabled by default")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestServerAddr(t *testing.T) {
	s := ServerConfig{Host: "0.0.0.0", Port: 8080}
	if got := s.Addr(); got != "0.0.0.0:8080" {
		t.Errorf("expected '0.0.0.0:8080', got '%s'", got)
	}
}

func TestLoadFromPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, ".switchyard", "config.yaml")

	// Load config (should create default)
	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	if cfg.Server.Port != 7433 {
		t.Errorf("expected default port 7433, got %d", cfg.Server.Port)
	}

	// Load again to test reading existing file
	cfg2, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("failed to load existing config: %v", err)
	}

	if cfg2.Server.Port != cfg.Server.Port {
		t.Error("config values changed on reload")
	}
}

func TestSaveToPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	cfg := Default()
	cfg.Server.Port = 9999
	if err := cfg.SaveToPath(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("failed to reload saved config: %v", err)
	}
	if loaded.Server.Port != 9999 {
		t.Errorf("expected port 9999 after round trip, got %d", loaded.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"port too low", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"journal enabled without path", func(c *Config) {
			c.Journal.Enabled = true
			c.Journal.DBPath = ""
		}, true},
		{"journal disabled without path", func(c *Config) { c.Journal.DBPath = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	got := expandPath("~/.switchyard/policy.yaml")
	want := filepath.Join(homeDir, ".switchyard", "policy.yaml")
	if got != want {
		t.Errorf("expected '%s', got '%s'", want, got)
	}

	if got := expandPath("/absolute/path"); got != "/absolute/path" {
		t.Errorf("absolute path must pass through, got '%s'", got)
	}
}

func TestEnvironmentVariableOverride(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	t.Setenv("SWITCHYARD_SERVER_PORT", "8181")

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Server.Port != 8181 {
		t.Errorf("expected env override port 8181, got %d", cfg.Server.Port)
	}
}

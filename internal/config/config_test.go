package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.RCON.Port != DefaultRCONPort {
		t.Fatalf("RCON.Port = %d, want %d", cfg.RCON.Port, DefaultRCONPort)
	}
	if cfg.Build.CommandDelayMs != 50 || cfg.Build.StructurePauseMs != 500 {
		t.Fatalf("build pacing defaults = %+v", cfg.Build)
	}

	if _, err := os.Stat(filepath.Join(dir, DefaultConfigFile)); err != nil {
		t.Fatalf("default config file not written: %v", err)
	}
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `{"rcon": {"host": "mc.example.net", "port": 25566}}`
	if err := os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.RCON.Host != "mc.example.net" || cfg.RCON.Port != 25566 {
		t.Fatalf("RCON = %+v", cfg.RCON)
	}
	// Untouched sections keep their defaults.
	if cfg.Build.CommandDelayMs != 50 {
		t.Fatalf("CommandDelayMs = %d, want default 50", cfg.Build.CommandDelayMs)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("WORLDFORGE_RCON_HOST", "10.0.0.5")
	t.Setenv("WORLDFORGE_RCON_PORT", "25599")
	t.Setenv("WORLDFORGE_RCON_PASSWORD", "from-env")
	t.Setenv("WORLDFORGE_API_TOKEN", "tok")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.RCON.Host != "10.0.0.5" || cfg.RCON.Port != 25599 || cfg.RCON.Password != "from-env" {
		t.Fatalf("RCON = %+v", cfg.RCON)
	}
	if cfg.Security.AuthDisabled {
		t.Fatal("setting an api token via env must enable auth")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"missing host", func(c *Config) { c.RCON.Host = "" }, false},
		{"bad rcon port", func(c *Config) { c.RCON.Port = 0 }, false},
		{"bad api port", func(c *Config) { c.APIPort = 70000 }, false},
		{"zero command timeout", func(c *Config) { c.RCON.CommandTimeoutSec = 0 }, false},
		{"negative delay", func(c *Config) { c.Build.CommandDelayMs = -1 }, false},
		{"mqtt enabled without broker", func(c *Config) { c.MQTT.Enabled = true }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			if got := Validate(cfg).IsValid(); got != tt.valid {
				t.Fatalf("IsValid = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestValidateWarnsOnEmptyPassword(t *testing.T) {
	cfg := DefaultConfig()

	result := Validate(cfg)
	if !result.IsValid() {
		t.Fatalf("defaults should validate, got errors %+v", result.Errors)
	}
	if len(result.Warnings) == 0 {
		t.Fatal("empty rcon password should produce a warning")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFrom_MissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.General.Year != DefaultYear {
		t.Errorf("Year = %d, want %d", cfg.General.Year, DefaultYear)
	}
	if cfg.Assistant.Model != "claude-sonnet-4-5" || cfg.Assistant.MaxTokens != 2000 {
		t.Errorf("assistant defaults = %+v", cfg.Assistant)
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := DefaultConfig()
	cfg.General.DefaultUF = "PR"
	cfg.Assistant.APIKey = "sk-ant-test"

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config perm = %o, want 600", perm)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.General.DefaultUF != "PR" || got.Assistant.APIKey != "sk-ant-test" {
		t.Errorf("round trip lost fields: %+v", got)
	}
}

func TestLoadFrom_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[general\nyear = "), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestGetAPIKey_EnvWins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Assistant.APIKey = "from-file"

	t.Setenv("ANTHROPIC_API_KEY", "")
	if got := GetAPIKey(cfg); got != "from-file" {
		t.Errorf("GetAPIKey = %q, want from-file", got)
	}

	t.Setenv("ANTHROPIC_API_KEY", "from-env")
	if got := GetAPIKey(cfg); got != "from-env" {
		t.Errorf("GetAPIKey = %q, want from-env", got)
	}
}

func TestConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := ConfigDir(); got != filepath.Join("/tmp/xdg", "fundeb") {
		t.Errorf("ConfigDir = %q", got)
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("expected no error for a missing file, got %v", err)
	}
	if cfg.Play.Server != nil || cfg.Serve.Addr != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for an empty path")
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[play]
server = "http://localhost:5000"
difficulty = "hard"
tick-interval-ms = 500
hint-penalty = 15

[serve]
addr = ":9000"
cors-origin = "http://localhost:5173"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Play.Server == nil || *cfg.Play.Server != "http://localhost:5000" {
		t.Fatalf("unexpected server: %v", cfg.Play.Server)
	}
	if cfg.Play.Difficulty == nil || *cfg.Play.Difficulty != "hard" {
		t.Fatalf("unexpected difficulty: %v", cfg.Play.Difficulty)
	}
	if cfg.Play.TickIntervalMS == nil || *cfg.Play.TickIntervalMS != 500 {
		t.Fatalf("unexpected tick interval: %v", cfg.Play.TickIntervalMS)
	}
	if cfg.Play.StreakBonus != nil {
		t.Fatalf("expected unset streak bonus to stay nil")
	}
	if cfg.Serve.CORSOrigin == nil || *cfg.Serve.CORSOrigin != "http://localhost:5173" {
		t.Fatalf("unexpected cors origin: %v", cfg.Serve.CORSOrigin)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[play]\nsever = \"x\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "play.sever") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	server := "http://file"
	cfg := FileConfig{Play: PlayConfig{Server: &server}}
	env := map[string]string{
		EnvServer:   "http://env",
		EnvAddr:     "  ",
		EnvLogLevel: "debug",
	}
	got := applyEnv(cfg, func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if *got.Play.Server != "http://env" {
		t.Fatalf("expected env server, got %q", *got.Play.Server)
	}
	if got.Serve.Addr != nil {
		t.Fatalf("expected blank env value to be ignored")
	}
	if *got.Play.LogLevel != "debug" || *got.Serve.LogLevel != "debug" {
		t.Fatalf("expected log level in both sections")
	}
	if server != "http://file" {
		t.Fatalf("expected file value untouched")
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("expected missing .env to be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(EnvAddr+"=:7777\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv(EnvAddr, "")
	os.Unsetenv(EnvAddr)
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load env: %v", err)
	}
	if got := os.Getenv(EnvAddr); got != ":7777" {
		t.Fatalf("expected value from .env, got %q", got)
	}
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	if got := DefaultConfigPath(); got != filepath.Join("/tmp/cfg", "mysterydigits", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := DefaultLogPath(); got != filepath.Join("/tmp/state", "mysterydigits", "client.log") {
		t.Fatalf("unexpected log path %q", got)
	}
}

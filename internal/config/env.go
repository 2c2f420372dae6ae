package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvServer   = "MYSTERYDIGITS_SERVER"
	EnvAddr     = "MYSTERYDIGITS_ADDR"
	EnvLogLevel = "MYSTERYDIGITS_LOG_LEVEL"
)

// LoadDotEnv loads a .env file into the process environment. Missing file is not an error,
// and variables already set are left alone.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays environment overrides onto cfg.
func ApplyEnv(cfg FileConfig) FileConfig {
	return applyEnv(cfg, os.LookupEnv)
}

func applyEnv(cfg FileConfig, lookup func(string) (string, bool)) FileConfig {
	if v, ok := lookupNonEmpty(lookup, EnvServer); ok {
		cfg.Play.Server = &v
	}
	if v, ok := lookupNonEmpty(lookup, EnvAddr); ok {
		cfg.Serve.Addr = &v
	}
	if v, ok := lookupNonEmpty(lookup, EnvLogLevel); ok {
		play, serve := v, v
		cfg.Play.LogLevel = &play
		cfg.Serve.LogLevel = &serve
	}
	return cfg
}

func lookupNonEmpty(lookup func(string) (string, bool), key string) (string, bool) {
	v, ok := lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

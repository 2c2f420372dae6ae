// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Play  PlayConfig  `toml:"play"`
	Serve ServeConfig `toml:"serve"`
}

// PlayConfig maps client settings.
type PlayConfig struct {
	Server             *string `toml:"server"`
	Difficulty         *string `toml:"difficulty"`
	TickIntervalMS     *int    `toml:"tick-interval-ms"`
	HintPenalty        *int    `toml:"hint-penalty"`
	StreakBonus        *int    `toml:"streak-bonus"`
	TimeBonusThreshold *int    `toml:"time-bonus-threshold"`
	RequestTimeoutMS   *int    `toml:"request-timeout-ms"`
	LogLevel           *string `toml:"log-level"`
}

// ServeConfig maps development server settings.
type ServeConfig struct {
	Addr       *string `toml:"addr"`
	CORSOrigin *string `toml:"cors-origin"`
	LogLevel   *string `toml:"log-level"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Package config loads the TOML configuration file spec.md §6 mandates,
// located via the CONFIG_FILE_PATH environment variable. Its Load/MustLoad
// pair mirrors the teacher's core/config loading pattern (env-var driven,
// fail-fast on missing input), generalized from caarlos0/env's struct-tag
// decoding to TOML decoding via go-toml/v2, as the spec requires.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// EnvVar is the environment variable naming the TOML file to load.
const EnvVar = "CONFIG_FILE_PATH"

// ContentRepository is the [content_repository] section.
type ContentRepository struct {
	BasePath        string `toml:"base_path"`
	FileNamePrefix  string `toml:"file_name_prefix"`
	ServerPort      uint16 `toml:"server_port"`
}

// RuskMain is the [rusk_main] section.
type RuskMain struct {
	ServerPort            uint16 `toml:"server_port"`
	ProcessorQueueLength  int    `toml:"processor_queue_length"`
}

// Config is the full recognized shape of the TOML file.
type Config struct {
	ContentRepository ContentRepository `toml:"content_repository"`
	RuskMain          RuskMain          `toml:"rusk_main"`
}

// Load reads CONFIG_FILE_PATH, fatal-per-spec if unset, and decodes its
// contents as TOML into a Config.
func Load() (Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Config{}, fmt.Errorf("config: %s is not set", EnvVar)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// MustLoad calls Load and panics on failure. Intended for use at process
// startup, before any goroutine other than main is running.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

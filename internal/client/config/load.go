package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// EnvConfigPath names the config file when --config is not given.
const EnvConfigPath = "FIELDSYNC_CONFIG"

// Load builds a Config: defaults, then the config file (if any), then
// FIELDSYNC_* environment variables, then explicitly set flags. Later
// sources win. f may be nil.
func Load(f *Flags) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	path := os.Getenv(EnvConfigPath)
	if f != nil && f.ConfigPath != "" {
		path = f.ConfigPath
	}
	if err := readSources(path, cfg); err != nil {
		return nil, err
	}

	if f != nil {
		f.apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

// readSources overlays the file at path (YAML, JSON or TOML by extension)
// and the environment onto cfg. An empty path reads the environment only.
func readSources(path string, cfg *Config) error {
	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return fmt.Errorf("config: read env: %w", err)
		}
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config: file %s: %w", path, err)
	}
	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	return nil
}

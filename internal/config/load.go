package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML (.yaml, .yml) or TOML (.toml) policy file, applies
// defaults and validates it. Environment variables are not consulted; use
// LoadWithEnvOverrides for that.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes data in the format implied by ext without applying
// defaults.
func Parse(data []byte, ext string) (*Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported file extension %q (want .yaml, .yml or .toml)", ErrInvalid, ext)
	}
	return &cfg, nil
}

// LoadWithEnvOverrides loads path and then applies RETENTIONS_JOURNAL,
// RETENTIONS_METRICS_FILE, RETENTIONS_LISTEN and RETENTIONS_DRY_RUN.
// Environment variables take precedence over the file.
func LoadWithEnvOverrides(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("after environment overrides: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("RETENTIONS_JOURNAL"); val != "" {
		cfg.Journal = val
	}
	if val := os.Getenv("RETENTIONS_METRICS_FILE"); val != "" {
		cfg.MetricsFile = val
	}
	if val := os.Getenv("RETENTIONS_LISTEN"); val != "" {
		cfg.Listen = val
	}
	if val := os.Getenv("RETENTIONS_DRY_RUN"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.DryRun = b
		}
	}
}

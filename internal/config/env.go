package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by LoadEnv.
const EnvPrefix = "REMYXAI_"

// LoadEnv overlays REMYXAI_* environment variables on cfg. Variables from
// dotenv files are added first without overriding the process environment;
// missing dotenv files are ignored.
func LoadEnv(cfg *Config, dotenv ...string) error {
	for _, p := range dotenv {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

// Resolve builds the effective configuration: defaults, then the file at
// path when set, then the environment.
func Resolve(path string, dotenv ...string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := LoadInto(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := LoadEnv(&cfg, dotenv...); err != nil {
		return cfg, err
	}
	return cfg, cfg.Normalize()
}

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "SSASIM_"

// ApplyEnv overrides scalar settings from SSASIM_* environment variables,
// e.g. SSASIM_RUNS or SSASIM_STORAGE_BACKEND. Unset variables leave the
// current values untouched.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ApplyStorageEnv overrides storage settings from SSASIM_STORAGE_*
// variables, for commands that read runs without a network config.
func ApplyStorageEnv(s *StorageConfig) error {
	if err := env.ParseWithOptions(s, env.Options{Prefix: EnvPrefix + "STORAGE_"}); err != nil {
		return fmt.Errorf("parse storage env: %w", err)
	}
	return nil
}

// Package config provides configuration loading for the ksymtools CLIs.
//
// Defaults come from an optional ksymtools.yaml (working directory or the
// user config dir) and KSYMTOOLS_* environment variables. Precedence is
// flag > environment > config file > built-in default; the flag layer is
// applied by the command layer, which only consults this package when a
// flag was not set explicitly.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/ksymtools/ksymtools/internal/output"
)

// Config holds the resolved defaults.
type Config struct {
	// Jobs is the default worker count; 0 means auto (cpu count, capped).
	Jobs int

	// Format is the default comparison output format.
	Format string
}

// Load reads the optional config file and environment. A missing config
// file is not an error; a present but unreadable one is.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("ksymtools")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "ksymtools"))
	}

	v.SetEnvPrefix("KSYMTOOLS")
	v.AutomaticEnv()

	v.SetDefault("jobs", 0)
	v.SetDefault("format", "pretty")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else {
		output.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	cfg := &Config{
		Jobs:   v.GetInt("jobs"),
		Format: v.GetString("format"),
	}
	if cfg.Jobs < 0 {
		return nil, fmt.Errorf("config: jobs must be >= 0, got %d", cfg.Jobs)
	}
	return cfg, nil
}

// Package config loads optional repository-local configuration for replant
// from a .replant.yaml file and REPLANT_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the user-tunable settings. Everything has a working default;
// the file is optional.
type Config struct {
	// LogFile, when set, mirrors console output to a rotated log file.
	LogFile string `mapstructure:"log_file"`
	// StateDir overrides where in-progress rebase state is persisted.
	StateDir string `mapstructure:"state_dir"`
	// Color is auto, always, or never.
	Color string `mapstructure:"color"`
}

// Load reads configuration for the repository at root. A missing config file
// is not an error; a malformed one is.
func Load(root string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".replant")
	v.SetConfigType("yaml")
	v.AddConfigPath(root)
	v.SetEnvPrefix("REPLANT")
	v.AutomaticEnv()

	v.SetDefault("color", "auto")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read configuration: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return &cfg, nil
}

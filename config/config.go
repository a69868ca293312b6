// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the library's overridable settings from the
// environment (prefix TERMINATOR_) and an optional YAML file, with the
// documented defaults as fallback.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every externally overridable knob.
type Config struct {
	// LocatorTimeout bounds selector resolution.
	LocatorTimeout time.Duration `mapstructure:"locator_timeout"`
	// StabilityTimeout bounds the pre-action bounds-stability wait.
	StabilityTimeout time.Duration `mapstructure:"stability_timeout"`
	// VerifyTimeout bounds post-action verification.
	VerifyTimeout time.Duration `mapstructure:"verify_timeout"`
	// MaxTraversalDepth bounds tree walks and snapshots.
	MaxTraversalDepth int `mapstructure:"max_traversal_depth"`
	// Backend names a platform variant. It is loaded and stored only:
	// terminator.New does not read it and always picks the OS backend
	// unless the WithBackend option supplies one.
	Backend string `mapstructure:"backend"`
}

// Default returns the documented defaults.
func Default() *Config {
	return &Config{
		LocatorTimeout:    30 * time.Second,
		StabilityTimeout:  800 * time.Millisecond,
		VerifyTimeout:     2 * time.Second,
		MaxTraversalDepth: 30,
	}
}

// Load reads configuration: defaults, then the YAML file at path (when
// non-empty; a missing explicit file is an error), then TERMINATOR_*
// environment variables, each layer overriding the previous one.
func Load(path string) (*Config, error) {
	v := viper.New()
	def := Default()
	v.SetDefault("locator_timeout", def.LocatorTimeout)
	v.SetDefault("stability_timeout", def.StabilityTimeout)
	v.SetDefault("verify_timeout", def.VerifyTimeout)
	v.SetDefault("max_traversal_depth", def.MaxTraversalDepth)
	v.SetDefault("backend", def.Backend)

	v.SetEnvPrefix("TERMINATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.LocatorTimeout <= 0 {
		return fmt.Errorf("locator_timeout must be positive, got %s", c.LocatorTimeout)
	}
	if c.StabilityTimeout <= 0 {
		return fmt.Errorf("stability_timeout must be positive, got %s", c.StabilityTimeout)
	}
	if c.VerifyTimeout <= 0 {
		return fmt.Errorf("verify_timeout must be positive, got %s", c.VerifyTimeout)
	}
	if c.MaxTraversalDepth == 0 || c.MaxTraversalDepth < -1 {
		return fmt.Errorf("max_traversal_depth must be positive or -1 for unbounded")
	}
	return nil
}

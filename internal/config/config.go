// Package config handles Ouzel configuration using Viper.
//
// Configuration sources (in priority order):
//  1. Environment variables (OUZEL_*)
//  2. Config file (~/.config/ouzel/config.yaml)
//  3. Built-in defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ouzel-dev/ouzel/internal/paths"
)

const (
	// DefaultChipset is the chipset assumed for new projects.
	DefaultChipset = "A9"
	// DefaultMode is the restore mode assumed for new projects.
	DefaultMode = "tethered"
)

// Config holds the Ouzel configuration.
type Config struct {
	v *viper.Viper
}

// Load reads configuration from all sources.
func Load() *Config {
	v := viper.New()

	// Set defaults
	v.SetDefault("project.default_chipset", DefaultChipset)
	v.SetDefault("project.default_mode", DefaultMode)
	v.SetDefault("tools.dir", "")

	// Config file location
	if configDir, err := paths.ConfigRoot(); err == nil {
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Environment variables
	v.SetEnvPrefix("OUZEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found, but warn on other errors)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: error reading config file: %v\n", err)
		}
	}

	return &Config{v: v}
}

// Get returns a configuration value.
func (c *Config) Get(key string) interface{} {
	return c.v.Get(key)
}

// GetString returns a configuration value as string.
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// Set sets a configuration value and persists it.
func (c *Config) Set(key string, value interface{}) error {
	c.v.Set(key, value)

	configDir, err := paths.ConfigRoot()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return err
	}

	return c.v.WriteConfigAs(filepath.Join(configDir, "config.yaml"))
}

// All returns all configuration as a map.
func (c *Config) All() map[string]interface{} {
	return c.v.AllSettings()
}

// ToolsDir returns the configured external tool directory, if any.
func (c *Config) ToolsDir() string {
	return c.GetString("tools.dir")
}

// DefaultProjectChipset returns the chipset used for new projects.
func (c *Config) DefaultProjectChipset() string {
	return c.GetString("project.default_chipset")
}

// DefaultProjectMode returns the restore mode used for new projects.
func (c *Config) DefaultProjectMode() string {
	return c.GetString("project.default_mode")
}

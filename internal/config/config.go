// Package config loads qpm configuration from the user's qpm home
// directory and resolves the directories qpm works in.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/quillcms/qpm/internal/logging"
)

const (
	// configFileName is the config file qpm reads from the qpm home dir.
	configFileName = "config.yaml"

	dirMode = 0o700
)

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// CacheConfig controls where install staging directories are created.
type CacheConfig struct {
	// Dir overrides the default staging base directory.
	Dir string `yaml:"dir"`
}

// Config is the top-level qpm configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Cache   CacheConfig   `yaml:"cache"`
}

// Default returns the built-in configuration values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// New loads configuration from $QPM_HOME/config.yaml layered over the
// defaults. A missing or unreadable config file is not an error; defaults
// are used instead.
func New() *Config {
	cfg := Default()

	home, err := GetHomeDir()
	if err != nil {
		return cfg
	}

	data, err := os.ReadFile(filepath.Join(home, configFileName))
	if err != nil {
		return cfg
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return Default()
	}
	return cfg
}

// ToLoggingConfig converts the YAML logging section into the logging
// package's config type.
func (l LoggingConfig) ToLoggingConfig() logging.Config {
	return logging.Config{
		Level:  l.Level,
		Format: l.Format,
		File:   l.File,
	}
}

// GetHomeDir returns the qpm home directory. QPM_HOME takes precedence,
// otherwise ~/.qpm is used.
func GetHomeDir() (string, error) {
	if qpmHome := os.Getenv("QPM_HOME"); qpmHome != "" {
		return qpmHome, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".qpm"), nil
}

// GetCacheDir returns the base directory for install staging. The
// cache.dir config key takes precedence; otherwise the XDG cache home is
// used so staging shares the platform cache location with other tools.
func (c *Config) GetCacheDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	return filepath.Join(xdg.CacheHome, "qpm")
}

// EnsureCacheDir creates the staging base directory if needed and
// returns its path.
func (c *Config) EnsureCacheDir() (string, error) {
	dir := c.GetCacheDir()
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return "", fmt.Errorf("failed to create cache directory %q: %w", dir, err)
	}
	return dir, nil
}

// EnsureLogDir creates the parent directory of the configured log file.
// A config without a log file is a no-op.
func (c *Config) EnsureLogDir() error {
	if c.Logging.File == "" {
		return nil
	}
	logDir := filepath.Dir(c.Logging.File)
	if err := os.MkdirAll(logDir, dirMode); err != nil {
		return fmt.Errorf("failed to create log directory %q: %w", logDir, err)
	}
	return nil
}

// Package config loads the tool configuration from file, environment
// and defaults, in that order of precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/bnema/sitepack/pkg/logger"
)

// Config is the resolved tool configuration.
type Config struct {
	// SiteRoot is the root directory package files install into.
	SiteRoot string `mapstructure:"site_root"`
	// DataDir holds the entity database and created package records.
	DataDir string `mapstructure:"data_dir"`
	// PackagesDir receives exported package archives.
	PackagesDir string `mapstructure:"packages_dir"`
	// TempDir hosts export staging directories.
	TempDir string `mapstructure:"temp_dir"`
	// DatabasePath overrides the entity database location.
	DatabasePath string `mapstructure:"database_path"`
	// PlatformVersion is compared against package requirements.
	PlatformVersion string `mapstructure:"platform_version"`
	LogLevel        string `mapstructure:"log_level"`
	// UserID is the acting user recorded on imports.
	UserID int `mapstructure:"user_id"`
}

// Load reads sitepack.toml from the working directory or the user
// config directory, then applies SITEPACK_* environment overrides. A
// missing config file is fine; defaults cover everything.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("sitepack")
	v.SetConfigType("toml")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "sitepack"))
		}
	}
	v.SetEnvPrefix("SITEPACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("site_root", ".")
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("platform_version", "1.0.0")
	v.SetDefault("log_level", "info")
	v.SetDefault("user_id", 0)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		logger.Debug("No config file found, using defaults")
	} else {
		logger.Debug("Loaded config", "file", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.PackagesDir == "" {
		cfg.PackagesDir = filepath.Join(cfg.DataDir, "packages")
	}
	if cfg.TempDir == "" {
		cfg.TempDir = filepath.Join(cfg.DataDir, "tmp")
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(cfg.DataDir, "sitepack.db")
	}
	return &cfg, nil
}

// EnsureDirs creates the directories the configuration points at.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.PackagesDir, c.TempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "sitepack")
	}
	return ".sitepack"
}

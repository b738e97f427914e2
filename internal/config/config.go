// Package config provides configuration management for marksafe.
//
// The YAML file describes where things live on this machine (the browser
// bookmark file, the downloads directory, the local store). Backup settings
// such as frequency and format are not part of it; they live in the store and
// are managed by the settings package.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/marksafe/internal/fileutil"
)

// Config represents the application configuration.
type Config struct {
	Version    int              `yaml:"version"`
	Home       string           `yaml:"home"`
	Browser    BrowserConfig    `yaml:"browser"`
	Storage    StorageConfig    `yaml:"storage"`
	Encryption EncryptionConfig `yaml:"encryption"`
	Output     OutputConfig     `yaml:"output"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// BrowserConfig describes the bookmark source.
type BrowserConfig struct {
	// Name is reported in the backup envelope's browserInfo.
	Name string `yaml:"name"`
	// BookmarksFile is the Chromium-format Bookmarks file of the profile to back up.
	BookmarksFile string `yaml:"bookmarks_file"`
}

// StorageConfig describes local persistence locations.
type StorageConfig struct {
	// StoreFile holds settings, history and the granted directory.
	StoreFile string `yaml:"store_file"`
	// DownloadsDir is the root of generic downloads; downloadFolder is created inside it.
	DownloadsDir string `yaml:"downloads_dir"`
}

// EncryptionConfig controls sealing of files written to disk.
type EncryptionConfig struct {
	Enabled bool `yaml:"enabled"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return fileutil.WriteAtomic(path, data, 0o600)
}

// Path returns the config file path inside home.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// GetHome returns the marksafe home directory path.
func (c *Config) GetHome() string {
	return c.Home
}

// StorePath returns the store file path, resolved against home when relative.
func (c *Config) StorePath() string {
	return c.resolve(c.Storage.StoreFile, "store.json")
}

// DownloadsPath returns the downloads root directory.
func (c *Config) DownloadsPath() string {
	if c.Storage.DownloadsDir != "" {
		return c.resolve(c.Storage.DownloadsDir, "")
	}
	return DefaultDownloadsDir()
}

// BookmarksPath returns the bookmark file to back up.
func (c *Config) BookmarksPath() string {
	if c.Browser.BookmarksFile != "" {
		return c.resolve(c.Browser.BookmarksFile, "")
	}
	return DefaultBookmarksFile()
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetLoggingFile returns the configured log file path.
func (c *Config) GetLoggingFile() string {
	return c.Logging.File
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}

// resolve expands "~/" and anchors relative paths at home.
func (c *Config) resolve(path, fallback string) string {
	if path == "" {
		path = fallback
	}
	expanded, err := fileutil.ExpandHome(path)
	if err == nil {
		path = expanded
	}
	if !filepath.IsAbs(path) {
		home, err := fileutil.ExpandHome(c.Home)
		if err != nil {
			home = c.Home
		}
		path = filepath.Join(home, path)
	}
	return path
}

// DefaultHome returns the default marksafe home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".marksafe"
	}
	return filepath.Join(home, ".marksafe")
}

package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultBrowserName is reported in backups when no browser name is configured.
const DefaultBrowserName = "Chrome"

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.marksafe",
		Browser: BrowserConfig{
			Name:          DefaultBrowserName,
			BookmarksFile: "", // Detected per platform
		},
		Storage: StorageConfig{
			StoreFile:    "store.json",
			DownloadsDir: "", // ~/Downloads
		},
		Encryption: EncryptionConfig{
			Enabled: false,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.marksafe/marksafe.log",
		},
	}
}

// DefaultDownloadsDir returns the user's Downloads directory.
func DefaultDownloadsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "Downloads"
	}
	return filepath.Join(home, "Downloads")
}

// DefaultBookmarksFile returns the Bookmarks file of the default Chrome profile.
func DefaultBookmarksFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Google", "Chrome", "Default", "Bookmarks")
	case "windows":
		base := os.Getenv("LOCALAPPDATA")
		if base == "" {
			base = filepath.Join(home, "AppData", "Local")
		}
		return filepath.Join(base, "Google", "Chrome", "User Data", "Default", "Bookmarks")
	default:
		return filepath.Join(home, ".config", "google-chrome", "Default", "Bookmarks")
	}
}

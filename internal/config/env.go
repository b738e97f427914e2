package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/mrz1836/go-sanitize"
)

// Environment variable names.
const (
	EnvHome          = "MARKSAFE_HOME"
	EnvBookmarksFile = "MARKSAFE_BOOKMARKS_FILE"
	EnvDownloadsDir  = "MARKSAFE_DOWNLOADS_DIR"
	EnvBrowser       = "MARKSAFE_BROWSER"
	EnvOutputFormat  = "MARKSAFE_OUTPUT_FORMAT"
	EnvVerbose       = "MARKSAFE_VERBOSE"
	EnvLogLevel      = "MARKSAFE_LOG_LEVEL"
	EnvEncrypt       = "MARKSAFE_ENCRYPT"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
//
//nolint:gocognit,gocyclo // Environment variable overrides require sequential checks
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = CleanPath(v)
	}

	if v := os.Getenv(EnvBookmarksFile); v != "" {
		cfg.Browser.BookmarksFile = CleanPath(v)
	}

	if v := os.Getenv(EnvDownloadsDir); v != "" {
		cfg.Storage.DownloadsDir = CleanPath(v)
	}

	if v := os.Getenv(EnvBrowser); v != "" {
		cfg.Browser.Name = sanitize.SingleLine(strings.TrimSpace(v))
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	if v := os.Getenv(EnvEncrypt); v != "" {
		cfg.Encryption.Enabled = parseBool(v)
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// CleanPath strips whitespace and line breaks that sneak in when paths are
// pasted into environment variables.
func CleanPath(path string) string {
	return strings.TrimSpace(sanitize.SingleLine(path))
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/marksafe/internal/config"
)

func TestLoadSave_RoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := config.Defaults()
	cfg.Browser.Name = "Brave"
	cfg.Browser.BookmarksFile = "/profiles/brave/Bookmarks"
	cfg.Encryption.Enabled = true
	cfg.Output.Verbose = true

	require.NoError(t, config.Save(cfg, path))

	_, err := os.Stat(path)
	require.NoError(t, err)

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("browser:\n  name: Vivaldi\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Vivaldi", cfg.Browser.Name)
	assert.Equal(t, "store.json", cfg.Storage.StoreFile)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := config.Load(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("browser: [unclosed"), 0o600))
	_, err = config.Load(bad)
	require.Error(t, err)
}

func TestDefaults(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "~/.marksafe", cfg.Home)
	assert.Equal(t, config.DefaultBrowserName, cfg.Browser.Name)
	assert.False(t, cfg.Encryption.Enabled)
	assert.Equal(t, "auto", cfg.Output.DefaultFormat)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestPaths(t *testing.T) {
	t.Parallel()
	home := t.TempDir()

	cfg := config.Defaults()
	cfg.Home = home

	assert.Equal(t, filepath.Join(home, "config.yaml"), config.Path(home))
	assert.Equal(t, filepath.Join(home, "store.json"), cfg.StorePath())
	assert.Equal(t, config.DefaultDownloadsDir(), cfg.DownloadsPath())
	assert.Equal(t, config.DefaultBookmarksFile(), cfg.BookmarksPath())

	cfg.Storage.DownloadsDir = "exports"
	cfg.Browser.BookmarksFile = "/abs/Bookmarks"
	assert.Equal(t, filepath.Join(home, "exports"), cfg.DownloadsPath())
	assert.Equal(t, "/abs/Bookmarks", cfg.BookmarksPath())
}

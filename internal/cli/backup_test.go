package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/marksafe/internal/backup"
	"github.com/mrz1836/marksafe/internal/config"
	"github.com/mrz1836/marksafe/internal/history"
	"github.com/mrz1836/marksafe/internal/seal"
	"github.com/mrz1836/marksafe/internal/storage"
	mserr "github.com/mrz1836/marksafe/pkg/errors"
)

func TestBackupNow_KeepsContentInHistory(t *testing.T) {
	setupTestEnv(t)

	var result backup.Result
	executeJSON(t, &result, "backup", "now")
	require.True(t, result.Success, result.Error)
	require.NotNil(t, result.HistoryItem)
	assert.Equal(t, storage.BackendExtension, result.Backend)
	assert.Positive(t, result.HistoryItem.BookmarkCount)
	assert.NotZero(t, result.NextBackup)

	var items []history.Item
	executeJSON(t, &items, "history", "list")
	require.Len(t, items, 1)
	assert.Equal(t, result.HistoryItem.ID, items[0].ID)
	assert.Empty(t, items[0].Data, "list omits content")

	out, err := executeCommand(t, "history", "show", items[0].ID, "--data")
	require.NoError(t, err)
	assert.Contains(t, out, "https://go.dev/")

	out, err = executeCommand(t, "history", "verify", items[0].ID, "-o", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "matches its checksum")
}

func TestBackupNow_TextOutput(t *testing.T) {
	setupTestEnv(t)

	out, err := executeCommand(t, "backup", "now", "-o", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Backed up")
	assert.Contains(t, out, "in history")
	assert.Contains(t, out, "Next:")
}

func TestBackupNow_VerbosePrintsMetrics(t *testing.T) {
	setupTestEnv(t)

	out, err := executeCommand(t, "backup", "now", "-o", "text", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, out, "Metrics (this process):")
}

func TestBackupNow_DownloadWritesFile(t *testing.T) {
	env := setupTestEnv(t)

	_, err := executeCommand(t, "settings", "set", "--storage-mode", "download")
	require.NoError(t, err)
	_, err = executeCommand(t, "settings", "set", "autoDownload", "true")
	require.NoError(t, err)

	var result backup.Result
	executeJSON(t, &result, "backup", "now")
	require.True(t, result.Success, result.Error)
	require.NotNil(t, result.HistoryItem)

	location := result.HistoryItem.Location
	assert.True(t, strings.HasPrefix(location, env.downloads), location)
	assert.FileExists(t, location)
	assert.Empty(t, result.HistoryItem.Data)
}

func TestBackupNow_Encrypted(t *testing.T) {
	setupTestEnv(t)
	t.Setenv(config.EnvEncrypt, "true")
	t.Setenv(seal.EnvPassphrase, "correct horse battery")

	_, err := executeCommand(t, "settings", "set", "--storage-mode", "download")
	require.NoError(t, err)
	_, err = executeCommand(t, "settings", "set", "autoDownload", "true")
	require.NoError(t, err)

	var result backup.Result
	executeJSON(t, &result, "backup", "now")
	require.True(t, result.Success, result.Error)
	require.NotNil(t, result.HistoryItem)
	assert.True(t, result.HistoryItem.Encrypted)
	assert.True(t, strings.HasSuffix(result.HistoryItem.Location, seal.Suffix))

	data, err := os.ReadFile(result.HistoryItem.Location)
	require.NoError(t, err)
	assert.True(t, seal.IsSealed(data))

	_, err = executeCommand(t, "history", "verify", result.HistoryItem.ID)
	require.NoError(t, err)
}

func TestBackupNow_EncryptionWithoutPassphrase(t *testing.T) {
	setupTestEnv(t)
	t.Setenv(config.EnvEncrypt, "true")

	_, err := executeCommand(t, "backup", "now")
	require.Error(t, err)
	assert.True(t, mserr.Is(err, mserr.ErrPassphraseMissing))
}

func TestBackupNow_MissingBookmarks(t *testing.T) {
	setupTestEnv(t)
	t.Setenv(config.EnvBookmarksFile, filepath.Join(t.TempDir(), "Bookmarks"))

	out, err := executeCommand(t, "backup", "now", "-o", "json")
	require.Error(t, err)
	assert.Contains(t, out, `"success": false`)

	var items []history.Item
	executeJSON(t, &items, "history", "list")
	assert.Empty(t, items, "a failed run records nothing")
}

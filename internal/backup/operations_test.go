package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/marksafe/internal/seal"
	"github.com/mrz1836/marksafe/internal/settings"
	"github.com/mrz1836/marksafe/internal/storage"
	mserr "github.com/mrz1836/marksafe/pkg/errors"
)

func TestStats(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	stats, err := h.service.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalBookmarks)
	assert.Zero(t, stats.LastBackup)
	assert.True(t, stats.Enabled)

	require.True(t, h.service.PerformBackup(context.Background()).Success)

	stats, err = h.service.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, start.UnixMilli(), stats.LastBackup)
	assert.Equal(t, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC).UnixMilli(), stats.NextBackup)
	assert.Equal(t, 1, stats.HistoryCount)

	h.source.err = os.ErrNotExist
	_, err = h.service.Stats(context.Background())
	require.ErrorIs(t, err, mserr.ErrBookmarksUnavailable)
}

func TestUpdateSchedule(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.update(t, func(s *settings.Settings) {
		s.Frequency = settings.FrequencyWeekly
		s.BackupDay = 0
	})

	next, err := h.service.UpdateSchedule(context.Background())
	require.NoError(t, err)
	want := time.Date(2024, 1, 7, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, want, next)
	assert.Equal(t, want, h.scheduler.Next())

	st, err := h.repo.Load()
	require.NoError(t, err)
	assert.Equal(t, want.UnixMilli(), st.NextBackup)

	h.update(t, func(s *settings.Settings) { s.Enabled = false })
	next, err = h.service.UpdateSchedule(context.Background())
	require.NoError(t, err)
	assert.True(t, next.IsZero())
	assert.True(t, h.scheduler.Next().IsZero())

	st, err = h.repo.Load()
	require.NoError(t, err)
	assert.Zero(t, st.NextBackup)
}

func TestSaveSettings(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	st, err := h.service.Settings()
	require.NoError(t, err)

	st.Frequency = settings.FrequencyMonthly
	st.BackupDay = 31
	saved, err := h.service.SaveSettings(st)
	require.NoError(t, err)
	want := time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, want.UnixMilli(), saved.NextBackup)
	assert.Equal(t, want, h.scheduler.Next())

	st.KeepBackupCount = 0
	_, err = h.service.SaveSettings(st)
	require.ErrorIs(t, err, mserr.ErrSettingsInvalid)
	require.ErrorIs(t, err, settings.ErrInvalidKeepCount)
	assert.Equal(t, want, h.scheduler.Next(), "an invalid save leaves the timer alone")
}

func TestSaveSettings_FrequencySwitchResetsDay(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	st, err := h.service.Settings()
	require.NoError(t, err)
	st.Frequency = settings.FrequencyMonthly
	saved, err := h.service.SaveSettings(st)
	require.NoError(t, err)
	assert.Equal(t, 1, saved.BackupDay)
	assert.Equal(t, time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC), h.scheduler.Next())

	saved.BackupDay = 15
	saved.Frequency = settings.FrequencyWeekly
	saved, err = h.service.SaveSettings(saved)
	require.NoError(t, err)
	assert.Equal(t, 0, saved.BackupDay)
	assert.Equal(t, time.Date(2024, 1, 7, 9, 0, 0, 0, time.UTC), h.scheduler.Next())

	stored, err := h.repo.Load()
	require.NoError(t, err)
	assert.Equal(t, settings.FrequencyWeekly, stored.Frequency)
	assert.Equal(t, 0, stored.BackupDay)
}

func TestResetSettings(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.update(t, func(s *settings.Settings) {
		s.Format = settings.FormatHTML
		s.Enabled = false
	})

	st, err := h.service.ResetSettings()
	require.NoError(t, err)
	assert.Equal(t, settings.FormatJSON, st.Format)
	assert.True(t, st.Enabled)
	assert.Equal(t, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), h.scheduler.Next())
}

func TestHistoryOperations(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	first := h.service.PerformBackup(context.Background())
	require.True(t, first.Success)
	h.clock.Advance(time.Minute)
	second := h.service.PerformBackup(context.Background())
	require.True(t, second.Success)

	items, err := h.service.History()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.HistoryItem.ID, items[0].ID)

	item, err := h.service.HistoryItem(first.HistoryItem.ID)
	require.NoError(t, err)
	assert.Equal(t, *first.HistoryItem, item)

	_, err = h.service.HistoryItem("nope")
	require.ErrorIs(t, err, mserr.ErrHistoryNotFound)

	require.NoError(t, h.service.DeleteHistoryItem(first.HistoryItem.ID))
	require.ErrorIs(t, h.service.DeleteHistoryItem(first.HistoryItem.ID), mserr.ErrHistoryNotFound)

	require.NoError(t, h.service.ClearHistory())
	items, err = h.service.History()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestExport(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	result := h.service.PerformBackup(context.Background())
	require.True(t, result.Success)

	location, err := h.service.Export(context.Background(), ExportRequest{HistoryID: result.HistoryItem.ID})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(h.downloads, "BookmarkBackups", result.HistoryItem.Filename), location)

	content, err := os.ReadFile(location) //nolint:gosec // G304: Test path from t.TempDir()
	require.NoError(t, err)
	assert.Equal(t, result.HistoryItem.Data, string(content))

	again, err := h.service.Export(context.Background(), ExportRequest{HistoryID: result.HistoryItem.ID})
	require.NoError(t, err)
	assert.NotEqual(t, location, again, "exports never overwrite")

	inline, err := h.service.Export(context.Background(), ExportRequest{Content: []byte("<html>"), Filename: "../../mine.html"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(h.downloads, "BookmarkBackups", "mine.html"), inline)

	_, err = h.service.Export(context.Background(), ExportRequest{HistoryID: "missing"})
	require.ErrorIs(t, err, mserr.ErrHistoryNotFound)

	_, err = h.service.Export(context.Background(), ExportRequest{})
	require.ErrorIs(t, err, mserr.ErrInvalidInput)
}

func TestExport_NoStoredData(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.update(t, func(s *settings.Settings) { s.StorageMode = settings.StorageDownload })

	result := h.service.PerformBackup(context.Background())
	require.True(t, result.Success)

	_, err := h.service.Export(context.Background(), ExportRequest{HistoryID: result.HistoryItem.ID})
	require.ErrorIs(t, err, mserr.ErrNoBackupData)
}

func TestDirectoryOperations(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	cancelled, err := h.service.GrantDirectory("   ")
	require.NoError(t, err)
	assert.Nil(t, cancelled, "an empty selection is a cancellation")

	status, err := h.service.DirectoryStatus()
	require.NoError(t, err)
	assert.Nil(t, status.Handle)
	assert.False(t, status.InUse)
	assert.True(t, status.Supported)

	dir := t.TempDir()
	handle, err := h.service.GrantDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, handle.Path)

	st, err := h.repo.Load()
	require.NoError(t, err)
	assert.True(t, st.UseCustomDirectory)
	assert.Equal(t, filepath.Base(dir), st.CustomDirectoryName)

	status, err = h.service.DirectoryStatus()
	require.NoError(t, err)
	require.NotNil(t, status.Handle)
	assert.Equal(t, "granted", status.Permission)
	assert.True(t, status.InUse)

	_, err = h.service.GrantDirectory(filepath.Join(dir, "missing"))
	require.ErrorIs(t, err, mserr.ErrInvalidInput)

	require.NoError(t, h.service.RevokeDirectory())
	st, err = h.repo.Load()
	require.NoError(t, err)
	assert.False(t, st.UseCustomDirectory)
	assert.Empty(t, st.CustomDirectoryName)
}

func TestVerify(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	result := h.service.PerformBackup(context.Background())
	require.True(t, result.Success)
	require.NoError(t, h.service.Verify(context.Background(), result.HistoryItem.ID))

	tampered := *result.HistoryItem
	tampered.ID = ""
	tampered.Data += " "
	tampered, err := h.ledger.Append(tampered, 10)
	require.NoError(t, err)
	require.ErrorIs(t, h.service.Verify(context.Background(), tampered.ID), mserr.ErrBackupCorrupted)

	require.ErrorIs(t, h.service.Verify(context.Background(), "missing"), mserr.ErrHistoryNotFound)
}

func TestVerify_MissingFile(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.update(t, useDownloads)

	result := h.service.PerformBackup(context.Background())
	require.True(t, result.Success)
	require.NoError(t, os.Remove(result.HistoryItem.Location))

	require.ErrorIs(t, h.service.Verify(context.Background(), result.HistoryItem.ID), mserr.ErrNotFound)
}

func TestEncryptedBackup(t *testing.T) {
	t.Parallel()

	sealer, err := seal.NewSealer("backup passphrase")
	require.NoError(t, err)
	h := newHarnessWithSink(t, t.TempDir(), storage.WithSealer(sealer))
	h.update(t, useDownloads)

	result := h.service.PerformBackup(context.Background())
	require.True(t, result.Success, result.Error)

	item := result.HistoryItem
	assert.True(t, item.Encrypted)
	assert.Equal(t, "bookmarks-backup-2024-01-01-10-00-00.json.age", item.Filename)

	raw, err := os.ReadFile(item.Location) //nolint:gosec // G304: Test path from t.TempDir()
	require.NoError(t, err)
	assert.True(t, seal.IsSealed(raw))

	require.ErrorIs(t, h.service.Verify(context.Background(), item.ID), mserr.ErrPassphraseMissing)

	h.service.opener = sealer
	require.NoError(t, h.service.Verify(context.Background(), item.ID))
}

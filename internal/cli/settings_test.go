package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/marksafe/internal/settings"
	mserr "github.com/mrz1836/marksafe/pkg/errors"
)

func TestSettingsShow(t *testing.T) {
	setupTestEnv(t)

	out, err := executeCommand(t, "settings", "show", "-o", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "frequency")
	assert.Contains(t, out, "keepBackupCount")
	assert.Contains(t, out, "Schedule: daily at "+settings.DefaultBackupTime)

	var st settings.Settings
	executeJSON(t, &st, "settings", "show")
	assert.Equal(t, settings.FrequencyDaily, st.Frequency)
	assert.Equal(t, settings.StorageExtension, st.StorageMode)
}

func TestSettingsSet_KeyValue(t *testing.T) {
	setupTestEnv(t)

	var st settings.Settings
	executeJSON(t, &st, "settings", "set", "frequency", "weekly")
	assert.Equal(t, settings.FrequencyWeekly, st.Frequency)
	assert.NotZero(t, st.NextBackup, "saving re-arms the schedule")

	var reloaded settings.Settings
	executeJSON(t, &reloaded, "settings", "show")
	assert.Equal(t, settings.FrequencyWeekly, reloaded.Frequency)
}

func TestSettingsSet_Flags(t *testing.T) {
	setupTestEnv(t)

	var st settings.Settings
	executeJSON(t, &st, "settings", "set", "--frequency", "monthly", "--format", "html", "--storage-mode", "download")
	assert.Equal(t, settings.FrequencyMonthly, st.Frequency)
	assert.Equal(t, settings.FormatHTML, st.Format)
	assert.Equal(t, settings.StorageDownload, st.StorageMode)
	assert.Equal(t, 1, st.BackupDay, "the default Sunday becomes the 1st")
}

func TestSettingsSet_FrequencyResetsDay(t *testing.T) {
	setupTestEnv(t)

	var st settings.Settings
	executeJSON(t, &st, "settings", "set", "frequency", "monthly")
	assert.Equal(t, settings.FrequencyMonthly, st.Frequency)
	assert.Equal(t, 1, st.BackupDay)

	executeJSON(t, &st, "settings", "set", "backupDay", "15")
	assert.Equal(t, 15, st.BackupDay)

	executeJSON(t, &st, "settings", "set", "frequency", "weekly")
	assert.Equal(t, settings.FrequencyWeekly, st.Frequency)
	assert.Equal(t, 0, st.BackupDay)

	executeJSON(t, &st, "settings", "set", "--frequency", "monthly", "backupDay", "20")
	assert.Equal(t, settings.FrequencyMonthly, st.Frequency)
	assert.Equal(t, 20, st.BackupDay)

	_, err := executeCommand(t, "settings", "set", "backupDay", "40")
	require.Error(t, err)
	assert.True(t, mserr.Is(err, mserr.ErrSettingsInvalid))
}

func TestSettingsSet_InvalidFlagValue(t *testing.T) {
	setupTestEnv(t)

	_, err := executeCommand(t, "settings", "set", "--frequency", "hourly")
	require.Error(t, err)
}

func TestSettingsSet_UnknownKeySuggestsClosest(t *testing.T) {
	setupTestEnv(t)

	_, err := executeCommand(t, "settings", "set", "frequncy", "weekly")
	require.Error(t, err)
	require.True(t, mserr.Is(err, mserr.ErrUnknownSettingKey))

	var structured *mserr.Error
	require.True(t, mserr.As(err, &structured))
	assert.Contains(t, structured.Suggestion, `"frequency"`)
}

func TestSettingsSet_InvalidValue(t *testing.T) {
	setupTestEnv(t)

	_, err := executeCommand(t, "settings", "set", "keepBackupCount", "many")
	require.Error(t, err)
	assert.True(t, mserr.Is(err, mserr.ErrSettingsInvalid))
}

func TestSettingsSet_NothingToChange(t *testing.T) {
	setupTestEnv(t)

	_, err := executeCommand(t, "settings", "set")
	require.Error(t, err)
	assert.True(t, mserr.Is(err, mserr.ErrInvalidInput))

	_, err = executeCommand(t, "settings", "set", "frequency")
	require.Error(t, err)
}

func TestSettingsReset(t *testing.T) {
	setupTestEnv(t)

	_, err := executeCommand(t, "settings", "set", "format", "html")
	require.NoError(t, err)

	var st settings.Settings
	executeJSON(t, &st, "settings", "reset", "--yes")
	assert.Equal(t, settings.FormatJSON, st.Format)
}

func TestSettingsReset_Declined(t *testing.T) {
	setupTestEnv(t)
	withPrompts(t, "", false, "")

	_, err := executeCommand(t, "settings", "set", "format", "html")
	require.NoError(t, err)

	out, err := executeCommand(t, "settings", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")

	var st settings.Settings
	executeJSON(t, &st, "settings", "show")
	assert.Equal(t, settings.FormatHTML, st.Format)
}

func TestDescribeSchedule(t *testing.T) {
	t.Parallel()

	base := settings.Defaults()
	base.BackupTime = "09:30"

	tests := []struct {
		name   string
		modify func(*settings.Settings)
		want   string
	}{
		{"disabled", func(s *settings.Settings) { s.Enabled = false }, "disabled"},
		{"daily", func(*settings.Settings) {}, "daily at 09:30"},
		{"weekly", func(s *settings.Settings) {
			s.Frequency = settings.FrequencyWeekly
			s.BackupDay = 1
		}, "weekly on Monday at 09:30"},
		{"monthly", func(s *settings.Settings) {
			s.Frequency = settings.FrequencyMonthly
			s.BackupDay = 31
		}, "monthly on day 31 at 09:30"},
		{"every day", func(s *settings.Settings) {
			s.Frequency = settings.FrequencyCustom
			s.CustomIntervalDays = 1
		}, "every day at 09:30"},
		{"custom", func(s *settings.Settings) {
			s.Frequency = settings.FrequencyCustom
			s.CustomIntervalDays = 3
		}, "every 3 days at 09:30"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			st := base
			tc.modify(&st)
			assert.Equal(t, tc.want, describeSchedule(st))
		})
	}
}

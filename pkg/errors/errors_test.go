package errors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mserr "github.com/mrz1836/marksafe/pkg/errors"
)

var (
	errInner = errors.New("inner")
	errPlain = errors.New("plain error")
)

func TestExitCodes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"success", nil, mserr.ExitSuccess},
		{"general error", mserr.ErrGeneral, mserr.ExitGeneral},
		{"input error", mserr.ErrInvalidInput, mserr.ExitInput},
		{"backup failed", mserr.ErrBackupFailed, mserr.ExitBackup},
		{"not found error", mserr.ErrNotFound, mserr.ExitNotFound},
		{"history not found", mserr.ErrHistoryNotFound, mserr.ExitNotFound},
		{"directory denied", mserr.ErrDirectoryDenied, mserr.ExitPermission},
		{"plain error", errPlain, mserr.ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, mserr.ExitCode(tt.err))
		})
	}
}

func TestWrapPreservesIdentity(t *testing.T) {
	t.Parallel()

	wrapped := mserr.Wrap(mserr.ErrSettingsInvalid, "saving settings")
	require.ErrorIs(t, wrapped, mserr.ErrSettingsInvalid)
	assert.Equal(t, mserr.ExitInput, mserr.ExitCode(wrapped))
	assert.Equal(t, "SETTINGS_INVALID", mserr.Code(wrapped))
	assert.Contains(t, wrapped.Error(), "saving settings")

	assert.NoError(t, mserr.Wrap(nil, "nothing"))
}

func TestWrapPlainError(t *testing.T) {
	t.Parallel()

	wrapped := mserr.Wrap(errInner, "reading %s", "store.json")
	require.ErrorIs(t, wrapped, errInner)
	assert.Equal(t, "GENERAL_ERROR", mserr.Code(wrapped))
	assert.Equal(t, "reading store.json: inner", wrapped.Error())
}

func TestWithDetailsSortedOutput(t *testing.T) {
	t.Parallel()

	err := mserr.WithDetails(mserr.ErrInvalidInput, map[string]string{
		"key":   "backupTime",
		"value": "25:00",
	})
	assert.Equal(t, "invalid input (key: backupTime) (value: 25:00)", err.Error())
	require.ErrorIs(t, err, mserr.ErrInvalidInput)
}

func TestWithSuggestion(t *testing.T) {
	t.Parallel()

	err := mserr.WithSuggestion(mserr.ErrDirectoryNotGranted, "run: marksafe directory grant")

	var me *mserr.Error
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "run: marksafe directory grant", me.Suggestion)
	assert.Equal(t, mserr.ExitNotFound, me.ExitCode)

	plain := mserr.WithSuggestion(errPlain, "try again")
	require.ErrorAs(t, plain, &me)
	assert.Equal(t, "try again", me.Suggestion)
	require.ErrorIs(t, plain, errPlain)
}

func TestWithCause(t *testing.T) {
	t.Parallel()

	err := mserr.WithCause(mserr.ErrBookmarksUnavailable, errInner)
	require.ErrorIs(t, err, mserr.ErrBookmarksUnavailable)
	require.ErrorIs(t, err, errInner)
	assert.Equal(t, "bookmark file could not be read: inner", err.Error())
}

func TestNew(t *testing.T) {
	t.Parallel()

	err := mserr.New("CUSTOM", "custom failure")
	assert.Equal(t, "custom failure", err.Error())
	assert.Equal(t, mserr.ExitGeneral, mserr.ExitCode(err))
	assert.False(t, mserr.Is(err, mserr.ErrGeneral))
}

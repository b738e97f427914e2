// Package errors provides structured error handling for marksafe.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess    = 0 // Successful execution
	ExitGeneral    = 1 // General/unknown error
	ExitInput      = 2 // Invalid input
	ExitBackup     = 3 // Backup run failed
	ExitNotFound   = 4 // Resource not found
	ExitPermission = 5 // Permission denied
)

// Error is the structured error type for marksafe.
type Error struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *Error) Error() string {
	msg := e.Message

	// Details are sorted so output is stable
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches two structured errors by code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &Error{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &Error{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrNotFound = &Error{
		Code:     "NOT_FOUND",
		Message:  "resource not found",
		ExitCode: ExitNotFound,
	}

	ErrPermission = &Error{
		Code:     "PERMISSION_DENIED",
		Message:  "permission denied",
		ExitCode: ExitPermission,
	}

	// Config errors.
	ErrConfigNotFound = &Error{
		Code:     "CONFIG_NOT_FOUND",
		Message:  "configuration file not found",
		ExitCode: ExitNotFound,
	}

	ErrConfigInvalid = &Error{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}

	// Settings errors.
	ErrSettingsInvalid = &Error{
		Code:     "SETTINGS_INVALID",
		Message:  "backup settings are invalid",
		ExitCode: ExitInput,
	}

	ErrUnknownSettingKey = &Error{
		Code:     "UNKNOWN_SETTING_KEY",
		Message:  "unknown setting key",
		ExitCode: ExitInput,
	}

	// Backup errors.
	ErrBackupFailed = &Error{
		Code:     "BACKUP_FAILED",
		Message:  "backup failed",
		ExitCode: ExitBackup,
	}

	ErrHistoryNotFound = &Error{
		Code:     "HISTORY_NOT_FOUND",
		Message:  "backup history entry not found",
		ExitCode: ExitNotFound,
	}

	ErrNoBackupData = &Error{
		Code:     "NO_BACKUP_DATA",
		Message:  "backup history entry has no stored content",
		ExitCode: ExitNotFound,
	}

	ErrBackupCorrupted = &Error{
		Code:     "BACKUP_CORRUPTED",
		Message:  "backup content does not match its recorded checksum",
		ExitCode: ExitBackup,
	}

	ErrBookmarksUnavailable = &Error{
		Code:     "BOOKMARKS_UNAVAILABLE",
		Message:  "bookmark file could not be read",
		ExitCode: ExitNotFound,
	}

	// Storage errors.
	ErrDirectoryNotGranted = &Error{
		Code:     "DIRECTORY_NOT_GRANTED",
		Message:  "no backup directory has been granted",
		ExitCode: ExitNotFound,
	}

	ErrDirectoryDenied = &Error{
		Code:     "DIRECTORY_DENIED",
		Message:  "backup directory is not readable and writable",
		ExitCode: ExitPermission,
	}

	// Encryption errors.
	ErrPassphraseMissing = &Error{
		Code:     "PASSPHRASE_MISSING",
		Message:  "no backup passphrase is configured",
		ExitCode: ExitInput,
	}

	ErrDecryptionFailed = &Error{
		Code:     "DECRYPTION_FAILED",
		Message:  "decryption failed - wrong passphrase or corrupted file",
		ExitCode: ExitPermission,
	}
)

// New creates a new Error with the given code and message.
func New(code, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var me *Error
	if errors.As(err, &me) {
		return &Error{
			Code:       me.Code,
			Message:    fmt.Sprintf("%s: %s", msg, me.Message),
			Details:    me.Details,
			Suggestion: me.Suggestion,
			Cause:      err,
			ExitCode:   me.ExitCode,
		}
	}

	return &Error{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var me *Error
	if errors.As(err, &me) {
		return &Error{
			Code:       me.Code,
			Message:    me.Message,
			Details:    details,
			Suggestion: me.Suggestion,
			Cause:      me.Cause,
			ExitCode:   me.ExitCode,
		}
	}

	return &Error{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var me *Error
	if errors.As(err, &me) {
		return &Error{
			Code:       me.Code,
			Message:    me.Message,
			Details:    me.Details,
			Suggestion: suggestion,
			Cause:      me.Cause,
			ExitCode:   me.ExitCode,
		}
	}

	return &Error{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// WithCause attaches an underlying error to a sentinel, keeping its code.
func WithCause(sentinel *Error, cause error) error {
	return &Error{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		Details:    sentinel.Details,
		Suggestion: sentinel.Suggestion,
		Cause:      cause,
		ExitCode:   sentinel.ExitCode,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var me *Error
	if errors.As(err, &me) {
		return me.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var me *Error
	if errors.As(err, &me) {
		return me.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Package settings holds the backup settings record and its persistence.
package settings

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/mrz1836/go-sanitize"
)

// Key is the store key of the settings record.
const Key = "backupSettings"

// Default values.
const (
	DefaultBackupTime         = "09:00"
	DefaultDownloadFolder     = "BookmarkBackups"
	DefaultCustomIntervalDays = 7
	DefaultKeepBackupCount    = 10
)

// Validation errors.
var (
	ErrInvalidFrequency      = errors.New("invalid frequency")
	ErrInvalidFormat         = errors.New("invalid format")
	ErrInvalidStorageMode    = errors.New("invalid storage mode")
	ErrInvalidBackupTime     = errors.New("invalid backup time")
	ErrInvalidBackupDay      = errors.New("invalid backup day")
	ErrInvalidInterval       = errors.New("custom interval must be at least 1 day")
	ErrInvalidKeepCount      = errors.New("keep backup count must be at least 1")
	ErrInvalidDownloadFolder = errors.New("invalid download folder")
)

// Settings is the singleton backup configuration record.
// BackupDay is meaningful only for weekly and monthly schedules and
// CustomIntervalDays only for custom ones.
type Settings struct {
	Enabled             bool        `json:"enabled"`
	Frequency           Frequency   `json:"frequency"`
	CustomIntervalDays  int         `json:"customIntervalDays"`
	BackupTime          string      `json:"backupTime"`
	BackupDay           int         `json:"backupDay"`
	Format              Format      `json:"format"`
	StorageMode         StorageMode `json:"storageMode"`
	AutoDownload        bool        `json:"autoDownload"`
	DownloadFolder      string      `json:"downloadFolder"`
	UseCustomDirectory  bool        `json:"useCustomDirectory"`
	CustomDirectoryName string      `json:"customDirectoryName,omitempty"`
	KeepBackupCount     int         `json:"keepBackupCount"`
	LastBackup          int64       `json:"lastBackup,omitempty"`
	NextBackup          int64       `json:"nextBackup,omitempty"`
}

// Defaults returns the settings used on first run and after a reset.
func Defaults() Settings {
	return Settings{
		Enabled:            true,
		Frequency:          FrequencyDaily,
		CustomIntervalDays: DefaultCustomIntervalDays,
		BackupTime:         DefaultBackupTime,
		BackupDay:          0,
		Format:             FormatJSON,
		StorageMode:        StorageExtension,
		AutoDownload:       false,
		DownloadFolder:     DefaultDownloadFolder,
		UseCustomDirectory: false,
		KeepBackupCount:    DefaultKeepBackupCount,
	}
}

// Validate checks every field and normalizes DownloadFolder and BackupDay in
// place. A BackupDay left over from another frequency falls back to that
// frequency's default instead of failing.
func (s *Settings) Validate() error {
	if !s.Frequency.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, s.Frequency)
	}
	if !s.Format.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, s.Format)
	}
	if !s.StorageMode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStorageMode, s.StorageMode)
	}
	if _, _, err := ParseBackupTime(s.BackupTime); err != nil {
		return err
	}

	if s.Frequency == FrequencyCustom && s.CustomIntervalDays < 1 {
		return ErrInvalidInterval
	}
	s.BackupDay = NormalizeBackupDay(s.Frequency, s.BackupDay)

	if s.KeepBackupCount < 1 {
		return ErrInvalidKeepCount
	}

	folder, err := CleanDownloadFolder(s.DownloadFolder)
	if err != nil {
		return err
	}
	s.DownloadFolder = folder
	s.CustomDirectoryName = sanitize.SingleLine(s.CustomDirectoryName)

	return nil
}

// NormalizeBackupDay returns day when it is in range for f, otherwise the
// default for f: Sunday (0) for weekly and the 1st for monthly. Other
// frequencies ignore the day and keep it as is.
func NormalizeBackupDay(f Frequency, day int) int {
	switch f {
	case FrequencyWeekly:
		if day < 0 || day > 6 {
			return 0
		}
	case FrequencyMonthly:
		if day < 1 || day > 31 {
			return 1
		}
	case FrequencyDaily, FrequencyCustom:
	}
	return day
}

// CheckBackupDay reports whether day is a legal backupDay for f. Days for
// daily and custom schedules only need to be legal for one of weekly or monthly.
func CheckBackupDay(f Frequency, day int) error {
	switch f {
	case FrequencyWeekly:
		if day < 0 || day > 6 {
			return fmt.Errorf("%w: weekly day must be 0-6 (0 = Sunday), got %d", ErrInvalidBackupDay, day)
		}
	case FrequencyMonthly:
		if day < 1 || day > 31 {
			return fmt.Errorf("%w: monthly day must be 1-31, got %d", ErrInvalidBackupDay, day)
		}
	case FrequencyDaily, FrequencyCustom:
		if day < 0 || day > 31 {
			return fmt.Errorf("%w: day must be 0-31, got %d", ErrInvalidBackupDay, day)
		}
	}
	return nil
}

// ParseBackupTime parses a 24-hour "HH:MM" string.
func ParseBackupTime(value string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok || len(h) == 0 || len(h) > 2 || len(m) != 2 {
		return 0, 0, fmt.Errorf("%w: %q (expected HH:MM)", ErrInvalidBackupTime, value)
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: hour out of range in %q", ErrInvalidBackupTime, value)
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: minute out of range in %q", ErrInvalidBackupTime, value)
	}
	return hour, minute, nil
}

// CleanDownloadFolder sanitizes each segment of a relative folder path.
// Absolute paths, parent references and paths that sanitize to nothing are rejected.
func CleanDownloadFolder(folder string) (string, error) {
	folder = strings.TrimSpace(strings.ReplaceAll(folder, `\`, "/"))
	if folder == "" || strings.HasPrefix(folder, "/") || (len(folder) > 1 && folder[1] == ':') {
		return "", fmt.Errorf("%w: %q must be a relative folder name", ErrInvalidDownloadFolder, folder)
	}

	parts := strings.Split(folder, "/")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == ".." {
			return "", fmt.Errorf("%w: %q must not leave the downloads directory", ErrInvalidDownloadFolder, folder)
		}
		if part == "" || part == "." {
			continue
		}
		if seg := sanitize.PathName(part); seg != "" {
			cleaned = append(cleaned, seg)
		}
	}
	if len(cleaned) == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidDownloadFolder, folder)
	}
	return path.Join(cleaned...), nil
}

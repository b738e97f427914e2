package settings

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
)

// MaxKeyTypoDistance is the largest edit distance for which a key suggestion is offered.
const MaxKeyTypoDistance = 3

// ErrUnknownKey indicates a settings key that cannot be set.
var ErrUnknownKey = errors.New("unknown settings key")

type field struct {
	get func(s *Settings) string
	set func(s *Settings, value string) error
}

// fields maps the user-editable keys to accessors. lastBackup and nextBackup
// are maintained by the scheduler and are deliberately absent.
//
//nolint:gochecknoglobals // static lookup table
var fields = map[string]field{
	"enabled": {
		get: func(s *Settings) string { return strconv.FormatBool(s.Enabled) },
		set: func(s *Settings, v string) error { return setBool(&s.Enabled, v) },
	},
	"frequency": {
		get: func(s *Settings) string { return string(s.Frequency) },
		set: func(s *Settings, v string) error { return s.Frequency.Set(v) },
	},
	"customIntervalDays": {
		get: func(s *Settings) string { return strconv.Itoa(s.CustomIntervalDays) },
		set: func(s *Settings, v string) error { return setInt(&s.CustomIntervalDays, v) },
	},
	"backupTime": {
		get: func(s *Settings) string { return s.BackupTime },
		set: func(s *Settings, v string) error {
			h, m, err := ParseBackupTime(v)
			if err != nil {
				return err
			}
			s.BackupTime = fmt.Sprintf("%02d:%02d", h, m)
			return nil
		},
	},
	"backupDay": {
		get: func(s *Settings) string { return strconv.Itoa(s.BackupDay) },
		set: func(s *Settings, v string) error {
			var day int
			if err := setInt(&day, v); err != nil {
				return err
			}
			if err := CheckBackupDay(s.Frequency, day); err != nil {
				return err
			}
			s.BackupDay = day
			return nil
		},
	},
	"format": {
		get: func(s *Settings) string { return string(s.Format) },
		set: func(s *Settings, v string) error { return s.Format.Set(v) },
	},
	"storageMode": {
		get: func(s *Settings) string { return string(s.StorageMode) },
		set: func(s *Settings, v string) error { return s.StorageMode.Set(v) },
	},
	"autoDownload": {
		get: func(s *Settings) string { return strconv.FormatBool(s.AutoDownload) },
		set: func(s *Settings, v string) error { return setBool(&s.AutoDownload, v) },
	},
	"downloadFolder": {
		get: func(s *Settings) string { return s.DownloadFolder },
		set: func(s *Settings, v string) error {
			folder, err := CleanDownloadFolder(v)
			if err != nil {
				return err
			}
			s.DownloadFolder = folder
			return nil
		},
	},
	"useCustomDirectory": {
		get: func(s *Settings) string { return strconv.FormatBool(s.UseCustomDirectory) },
		set: func(s *Settings, v string) error { return setBool(&s.UseCustomDirectory, v) },
	},
	"customDirectoryName": {
		get: func(s *Settings) string { return s.CustomDirectoryName },
		set: func(s *Settings, v string) error { s.CustomDirectoryName = strings.TrimSpace(v); return nil },
	},
	"keepBackupCount": {
		get: func(s *Settings) string { return strconv.Itoa(s.KeepBackupCount) },
		set: func(s *Settings, v string) error { return setInt(&s.KeepBackupCount, v) },
	},
}

// Keys returns the editable keys in display order.
func Keys() []string {
	return []string{
		"enabled", "frequency", "customIntervalDays", "backupTime", "backupDay",
		"format", "storageMode", "autoDownload", "downloadFolder",
		"useCustomDirectory", "customDirectoryName", "keepBackupCount",
	}
}

// CanonicalKey resolves key case-insensitively to its canonical spelling.
func CanonicalKey(key string) (string, bool) {
	key = strings.TrimSpace(key)
	if _, ok := fields[key]; ok {
		return key, true
	}
	for name := range fields {
		if strings.EqualFold(name, key) {
			return name, true
		}
	}
	return "", false
}

// Get returns the string form of the value stored under key.
func (s *Settings) Get(key string) (string, error) {
	name, ok := CanonicalKey(key)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return fields[name].get(s), nil
}

// Set parses value and assigns it to key. The record as a whole is not
// validated; call Validate before saving.
func (s *Settings) Set(key, value string) error {
	name, ok := CanonicalKey(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if err := fields[name].set(s, value); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// SuggestKey returns the editable key closest to input, or "" if none is close enough.
func SuggestKey(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return ""
	}

	minDist := math.MaxInt
	var suggestion string
	for _, key := range Keys() {
		dist := levenshtein.ComputeDistance(input, strings.ToLower(key))
		if dist < minDist {
			minDist = dist
			suggestion = key
		}
	}

	if minDist <= MaxKeyTypoDistance {
		return suggestion
	}
	return ""
}

func setBool(dst *bool, value string) error {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		*dst = true
	case "0", "false", "no", "off":
		*dst = false
	default:
		return fmt.Errorf("invalid boolean %q", value) //nolint:err113 // user input echo
	}
	return nil
}

func setInt(dst *int, value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid number %q", value) //nolint:err113 // user input echo
	}
	*dst = n
	return nil
}

package settings

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Frequency selects the recurrence rule.
type Frequency string

// Frequencies.
const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyCustom  Frequency = "custom"
)

// Format selects the serialization of a backup.
type Format string

// Formats.
const (
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// StorageMode selects where backups are kept.
type StorageMode string

// Storage modes.
const (
	StorageExtension StorageMode = "extension"
	StorageDownload  StorageMode = "download"
)

// Enum flags can be bound directly with cmd.Flags().Var.
var (
	_ pflag.Value = (*Frequency)(nil)
	_ pflag.Value = (*Format)(nil)
	_ pflag.Value = (*StorageMode)(nil)
)

// Frequencies lists the valid frequencies.
func Frequencies() []Frequency {
	return []Frequency{FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyCustom}
}

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyCustom:
		return true
	}
	return false
}

func (f *Frequency) String() string { return string(*f) }

// Set implements pflag.Value.
func (f *Frequency) Set(value string) error {
	v := Frequency(strings.ToLower(strings.TrimSpace(value)))
	if !v.Valid() {
		return fmt.Errorf("%w: %q (use daily, weekly, monthly or custom)", ErrInvalidFrequency, value)
	}
	*f = v
	return nil
}

// Type implements pflag.Value.
func (f *Frequency) Type() string { return "frequency" }

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	return f == FormatJSON || f == FormatHTML
}

func (f *Format) String() string { return string(*f) }

// Set implements pflag.Value.
func (f *Format) Set(value string) error {
	v := Format(strings.ToLower(strings.TrimSpace(value)))
	if !v.Valid() {
		return fmt.Errorf("%w: %q (use json or html)", ErrInvalidFormat, value)
	}
	*f = v
	return nil
}

// Type implements pflag.Value.
func (f *Format) Type() string { return "format" }

// Valid reports whether m is a known storage mode.
func (m StorageMode) Valid() bool {
	return m == StorageExtension || m == StorageDownload
}

func (m *StorageMode) String() string { return string(*m) }

// Set implements pflag.Value.
func (m *StorageMode) Set(value string) error {
	v := StorageMode(strings.ToLower(strings.TrimSpace(value)))
	if !v.Valid() {
		return fmt.Errorf("%w: %q (use extension or download)", ErrInvalidStorageMode, value)
	}
	*m = v
	return nil
}

// Type implements pflag.Value.
func (m *StorageMode) Type() string { return "storage-mode" }

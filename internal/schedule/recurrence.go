// Package schedule computes backup trigger times and binds them to a single timer slot.
package schedule

import (
	"fmt"
	"time"

	"github.com/mrz1836/marksafe/internal/settings"
)

const daysPerWeek = 7

// NextTrigger returns the first trigger strictly after now for the recurrence
// rule in s. The result is in now's location; day arithmetic keeps wall-clock
// time across DST changes.
func NextTrigger(s settings.Settings, now time.Time) (time.Time, error) {
	hour, minute, err := settings.ParseBackupTime(s.BackupTime)
	if err != nil {
		return time.Time{}, err
	}

	loc := now.Location()
	candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)

	switch s.Frequency {
	case settings.FrequencyDaily:
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, 1)
		}

	case settings.FrequencyWeekly:
		target := s.BackupDay
		if target < 0 || target > 6 {
			target = 0
		}
		delta := target - int(now.Weekday())
		if delta < 0 || (delta == 0 && !candidate.After(now)) {
			delta += daysPerWeek
		}
		candidate = candidate.AddDate(0, 0, delta)
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, daysPerWeek)
		}

	case settings.FrequencyMonthly:
		target := s.BackupDay
		if target < 1 || target > 31 {
			target = 1
		}
		candidate = onDay(now.Year(), now.Month(), target, hour, minute, loc)
		if !candidate.After(now) {
			candidate = onDay(now.Year(), now.Month()+1, target, hour, minute, loc)
		}

	case settings.FrequencyCustom:
		interval := s.CustomIntervalDays
		if interval <= 0 {
			interval = settings.DefaultCustomIntervalDays
		}
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, interval)
		}

	default:
		return time.Time{}, fmt.Errorf("%w: %q", settings.ErrInvalidFrequency, s.Frequency)
	}

	return candidate, nil
}

// onDay returns hour:minute on the given day of month, clamped to the month's
// last day. month may be 13, which normalizes to January of the next year.
func onDay(year int, month time.Month, day, hour, minute int, loc *time.Location) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	if last := DaysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, hour, minute, 0, 0, loc)
}

// DaysIn returns the number of days in the month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

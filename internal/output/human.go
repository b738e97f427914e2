package output

import (
	"time"

	"github.com/dustin/go-humanize"
)

// Never is shown for an unset timestamp.
const Never = "never"

// Size renders a byte count such as "1.2 kB".
func Size(n int) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// Count renders n with thousands separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}

// Timestamp renders epoch milliseconds as local time, or Never for zero.
func Timestamp(ms int64) string {
	if ms == 0 {
		return Never
	}
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}

// Relative renders epoch milliseconds relative to now, such as "3 hours ago"
// or "2 days from now".
func Relative(ms int64, now time.Time) string {
	if ms == 0 {
		return Never
	}
	return humanize.RelTime(time.UnixMilli(ms), now, "ago", "from now")
}

// When combines Timestamp and Relative.
func When(ms int64, now time.Time) string {
	if ms == 0 {
		return Never
	}
	return Timestamp(ms) + " (" + Relative(ms, now) + ")"
}

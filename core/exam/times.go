package exam

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Wall-clock arithmetic on "HH:MM" strings, minute granularity. All functions
// are total: malformed input degrades to zero instead of erroring, so a bad
// record never breaks the scheduling path (the data-entry boundary validates
// separately). Hours wrap mod 24; day overflow is not tracked.

// ParseTimeToMinutes converts "HH:MM" to minutes since midnight.
// Empty or malformed input yields 0.
func ParseTimeToMinutes(s string) int {
	if s == "" {
		return 0
	}
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return 0
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	mins, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	return hours*60 + mins
}

// ParseTimeToMilliseconds converts "HH:MM" to milliseconds since midnight.
func ParseTimeToMilliseconds(s string) int {
	return ParseTimeToMinutes(s) * 60000
}

// FormatMinutesToTime renders minutes since midnight as zero-padded "HH:MM".
// Hours wrap at 24; the day count is lost.
func FormatMinutesToTime(minutes int) string {
	hours := (minutes / 60) % 24
	mins := minutes % 60
	return fmt.Sprintf("%02d:%02d", hours, mins)
}

// CalculateEndTime chains a duration onto a start time.
func CalculateEndTime(start string, durationMinutes int) string {
	return FormatMinutesToTime(ParseTimeToMinutes(start) + durationMinutes)
}

// FormatClock renders a duration as "HH:MM:SS" for the elapsed/extra display
// fields.
func FormatClock(d time.Duration) string {
	totalSeconds := int(d / time.Second)
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	hours := totalSeconds / 3600
	mins := (totalSeconds % 3600) / 60
	secs := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, mins, secs)
}

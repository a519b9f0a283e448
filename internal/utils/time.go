package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/cadence/internal/constants"
)

// SecondsBetween returns the whole seconds elapsed from start to end, never negative.
func SecondsBetween(start, end time.Time) int {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}

// MinutesBetween returns the whole minutes elapsed from start to end, never negative.
func MinutesBetween(start, end time.Time) int {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

// StartOfDay returns local midnight of the day containing t, in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// MaxTime returns the later of a and b.
func MaxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// AddMinutes advances t by the given number of minutes.
func AddMinutes(t time.Time, minutes int) time.Time {
	return t.Add(time.Duration(minutes) * time.Minute)
}

// FormatDuration renders a number of seconds using the first non-zero tier:
// "1h 5m", "5m 3s" or "3s".
func FormatDuration(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// formatHoursMinutes renders whole minutes as "Xh Ym", omitting a zero component.
func formatHoursMinutes(totalMinutes int) string {
	hours := totalMinutes / 60
	minutes := totalMinutes % 60

	parts := make([]string, 0, 2)
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours == 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	return strings.Join(parts, " ")
}

// FormatRelativeDue describes dueAt relative to now: "now" within a minute
// either side, otherwise "in 1h 5m" or "1h 5m overdue".
func FormatRelativeDue(dueAt, now time.Time) string {
	diff := dueAt.Sub(now)
	if diff < time.Minute && diff > -time.Minute {
		return "now"
	}
	if diff > 0 {
		return "in " + formatHoursMinutes(MinutesBetween(now, dueAt))
	}
	return formatHoursMinutes(MinutesBetween(dueAt, now)) + " overdue"
}

// FormatClock renders the wall-clock time of t (HH:MM).
func FormatClock(t time.Time) string {
	return t.Format(constants.TimeFormat)
}

// FormatDate renders the calendar date of t (YYYY-MM-DD).
func FormatDate(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// ParseClockToday parses an HH:MM string and places it on the same day as now,
// in now's location.
func ParseClockToday(clock string, now time.Time) (time.Time, error) {
	t, err := time.Parse(constants.TimeFormat, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time format %q (expected HH:MM): %w", clock, err)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location()), nil
}

package utils

import (
	"testing"
	"time"
)

var base = time.Date(2025, 3, 14, 10, 30, 0, 0, time.Local)

func TestSecondsBetween(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"forward", base, base.Add(90 * time.Second), 90},
		{"fractional seconds are floored", base, base.Add(1500 * time.Millisecond), 1},
		{"same instant", base, base, 0},
		{"backwards clamps to zero", base.Add(time.Minute), base, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SecondsBetween(tt.start, tt.end); got != tt.want {
				t.Errorf("SecondsBetween() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMinutesBetween(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"forward", base, base.Add(45 * time.Minute), 45},
		{"partial minute floored", base, base.Add(119 * time.Second), 1},
		{"backwards clamps to zero", base.Add(time.Hour), base, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MinutesBetween(tt.start, tt.end); got != tt.want {
				t.Errorf("MinutesBetween() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStartOfDay(t *testing.T) {
	got := StartOfDay(base)
	want := time.Date(2025, 3, 14, 0, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("StartOfDay() = %v, want %v", got, want)
	}
	if got.Location() != base.Location() {
		t.Errorf("StartOfDay() location = %v, want %v", got.Location(), base.Location())
	}
}

func TestMaxTime(t *testing.T) {
	later := base.Add(time.Second)
	if got := MaxTime(base, later); !got.Equal(later) {
		t.Errorf("MaxTime(base, later) = %v", got)
	}
	if got := MaxTime(later, base); !got.Equal(later) {
		t.Errorf("MaxTime(later, base) = %v", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0s"},
		{42, "42s"},
		{60, "1m 0s"},
		{125, "2m 5s"},
		{3600, "1h 0m"},
		{3900, "1h 5m"},
		{7322, "2h 2m"},
		{-5, "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatDuration(tt.seconds); got != tt.want {
				t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestFormatRelativeDue(t *testing.T) {
	tests := []struct {
		name string
		due  time.Time
		want string
	}{
		{"exactly now", base, "now"},
		{"30s ahead", base.Add(30 * time.Second), "now"},
		{"30s behind", base.Add(-30 * time.Second), "now"},
		{"minutes ahead", base.Add(45 * time.Minute), "in 45m"},
		{"hours ahead", base.Add(2*time.Hour + 5*time.Minute), "in 2h 5m"},
		{"whole hours ahead", base.Add(3 * time.Hour), "in 3h"},
		{"minutes overdue", base.Add(-10 * time.Minute), "10m overdue"},
		{"hours overdue", base.Add(-(1*time.Hour + 20*time.Minute)), "1h 20m overdue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatRelativeDue(tt.due, base); got != tt.want {
				t.Errorf("FormatRelativeDue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(base); got != "10:30" {
		t.Errorf("FormatClock() = %q, want 10:30", got)
	}
	if got := FormatDate(base); got != "2025-03-14" {
		t.Errorf("FormatDate() = %q, want 2025-03-14", got)
	}
}

func TestParseClockToday(t *testing.T) {
	got, err := ParseClockToday("07:15", base)
	if err != nil {
		t.Fatalf("ParseClockToday() error = %v", err)
	}
	want := time.Date(2025, 3, 14, 7, 15, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("ParseClockToday() = %v, want %v", got, want)
	}

	if _, err := ParseClockToday("7pm", base); err == nil {
		t.Error("expected error for invalid clock string")
	}
}

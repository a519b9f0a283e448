package models

import "time"

type HabitType string

const (
	HabitTypeHabit HabitType = "habit"
	HabitTypeTask  HabitType = "task"
)

// Habit is a trackable item: either a repeating habit or a one-shot task.
// DueAt is the only scheduling field that changes after creation.
type Habit struct {
	ID                      string     `json:"id"`
	Name                    string     `json:"name"`
	Type                    HabitType  `json:"type"`
	IntervalMinutes         int        `json:"interval_minutes"`
	TargetRepetitionsPerDay int        `json:"target_repetitions_per_day"`
	ExpectedDurationMinutes *int       `json:"expected_duration_minutes,omitempty"`
	Notes                   string     `json:"notes,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
	DueAt                   time.Time  `json:"due_at"`
	LastCompletedAt         *time.Time `json:"last_completed_at,omitempty"`
	LastReminderAt          *time.Time `json:"last_reminder_at,omitempty"`
	Archived                bool       `json:"archived"`
}

// IsDue reports whether the habit's due time is at or before now.
func (h Habit) IsDue(now time.Time) bool {
	return !h.DueAt.After(now)
}

// Interval returns the recurrence period as a duration.
func (h Habit) Interval() time.Duration {
	return time.Duration(h.IntervalMinutes) * time.Minute
}

// HabitDraft holds the user-editable fields of a habit.
type HabitDraft struct {
	Name                    string
	Type                    HabitType
	IntervalMinutes         int
	TargetRepetitionsPerDay int
	ExpectedDurationMinutes *int
	Notes                   string
}

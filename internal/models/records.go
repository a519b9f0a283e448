package models

import "time"

type CompletionSource string

const (
	CompletionSourceManual CompletionSource = "manual"
	CompletionSourceTimer  CompletionSource = "timer"
)

// TimerSession is an open-ended measurement of execution time for a habit.
// There is at most one session per habit.
type TimerSession struct {
	ID        string    `json:"id"`
	HabitID   string    `json:"habit_id"`
	StartedAt time.Time `json:"started_at"`
}

// CompletionRecord is an append-only log entry written each time a habit is completed.
type CompletionRecord struct {
	ID              string           `json:"id"`
	HabitID         string           `json:"habit_id"`
	CompletedAt     time.Time        `json:"completed_at"`
	DurationSeconds int              `json:"duration_seconds"`
	Source          CompletionSource `json:"source"`
}

// PostponeRecord is an append-only log entry written each time a habit is postponed.
type PostponeRecord struct {
	ID          string    `json:"id"`
	HabitID     string    `json:"habit_id"`
	PostponedAt time.Time `json:"postponed_at"`
	Minutes     int       `json:"minutes"`
}

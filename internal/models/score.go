package models

import "time"

// DailyScoreHabitBreakdown is the per-habit part of a DailyScore.
type DailyScoreHabitBreakdown struct {
	HabitID               string    `json:"habit_id"`
	Name                  string    `json:"name"`
	Type                  HabitType `json:"type"`
	Repetitions           int       `json:"repetitions"`
	RepetitionTarget      int       `json:"repetition_target"`
	RepetitionProgress    float64   `json:"repetition_progress"`
	DurationMinutes       float64   `json:"duration_minutes"`
	DurationTargetMinutes int       `json:"duration_target_minutes"`
	DurationProgress      float64   `json:"duration_progress"`
	RawProgress           float64   `json:"raw_progress"`
	PostponeCount         int       `json:"postpone_count"`
	PostponePenalty       float64   `json:"postpone_penalty"`
	OverdueMinutes        int       `json:"overdue_minutes"`
	OverduePenalty        float64   `json:"overdue_penalty"`
	Score                 int       `json:"score"`
}

// DailyScore summarizes today's activity. It is derived on demand and never persisted.
type DailyScore struct {
	Date                time.Time                  `json:"date"`
	ComputedAt          time.Time                  `json:"computed_at"`
	Score               int                        `json:"score"`
	Grade               string                     `json:"grade"`
	CompletedCount      int                        `json:"completed_count"`
	TotalTrackedMinutes int                        `json:"total_tracked_minutes"`
	DueNowCount         int                        `json:"due_now_count"`
	Habits              []DailyScoreHabitBreakdown `json:"habits"`
}

// Package scoring reduces today's completions and postpones to a 0-100 score
// per habit and overall. Scores are derived on demand and never stored.
package scoring

import (
	"math"
	"time"

	"github.com/julianstephens/cadence/internal/constants"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/records"
	"github.com/julianstephens/cadence/internal/utils"
)

type Scorer struct {
	store *records.Store
}

func New(store *records.Store) *Scorer {
	return &Scorer{store: store}
}

// ComputeDailyScore scores the window from local midnight to now.
func (s *Scorer) ComputeDailyScore(now time.Time) (models.DailyScore, error) {
	habits, err := s.store.ListHabits(false)
	if err != nil {
		return models.DailyScore{}, err
	}
	dayStart := utils.StartOfDay(now)
	completions, err := s.store.CompletionsBetween(dayStart, now)
	if err != nil {
		return models.DailyScore{}, err
	}
	postpones, err := s.store.PostponesBetween(dayStart, now)
	if err != nil {
		return models.DailyScore{}, err
	}
	return Compute(habits, completions, postpones, now), nil
}

// Compute builds the daily score from already loaded records. Records outside
// [StartOfDay(now), now] and archived habits are ignored.
func Compute(habits []models.Habit, completions []models.CompletionRecord, postpones []models.PostponeRecord, now time.Time) models.DailyScore {
	dayStart := utils.StartOfDay(now)
	result := models.DailyScore{
		Date:       dayStart,
		ComputedAt: now,
		Habits:     []models.DailyScoreHabitBreakdown{},
	}

	repsByHabit := make(map[string]int)
	secondsByHabit := make(map[string]int)
	totalSeconds := 0
	for _, c := range completions {
		if c.CompletedAt.Before(dayStart) || c.CompletedAt.After(now) {
			continue
		}
		repsByHabit[c.HabitID]++
		secondsByHabit[c.HabitID] += c.DurationSeconds
		totalSeconds += c.DurationSeconds
		result.CompletedCount++
	}
	result.TotalTrackedMinutes = int(math.Round(float64(totalSeconds) / 60))

	postponesByHabit := make(map[string]int)
	for _, p := range postpones {
		if p.PostponedAt.Before(dayStart) || p.PostponedAt.After(now) {
			continue
		}
		postponesByHabit[p.HabitID]++
	}

	sum := 0
	for _, h := range habits {
		if h.Archived {
			continue
		}
		if h.IsDue(now) {
			result.DueNowCount++
		}
		b := scoreHabit(h, repsByHabit[h.ID], secondsByHabit[h.ID], postponesByHabit[h.ID], now)
		result.Habits = append(result.Habits, b)
		sum += b.Score
	}

	if len(result.Habits) == 0 {
		result.Score = constants.EmptyDayScore
	} else {
		result.Score = int(math.Round(float64(sum) / float64(len(result.Habits))))
	}
	result.Grade = Grade(result.Score)
	return result
}

func scoreHabit(h models.Habit, reps, seconds, postponeCount int, now time.Time) models.DailyScoreHabitBreakdown {
	b := models.DailyScoreHabitBreakdown{
		HabitID:          h.ID,
		Name:             h.Name,
		Type:             h.Type,
		Repetitions:      reps,
		RepetitionTarget: max(1, h.TargetRepetitionsPerDay),
		DurationMinutes:  float64(seconds) / 60,
		PostponeCount:    postponeCount,
	}
	b.RepetitionProgress = clamp01(float64(reps) / float64(b.RepetitionTarget))

	if h.ExpectedDurationMinutes != nil && *h.ExpectedDurationMinutes > 0 {
		b.DurationTargetMinutes = *h.ExpectedDurationMinutes * b.RepetitionTarget
	}
	if b.DurationTargetMinutes > 0 {
		b.DurationProgress = clamp01(b.DurationMinutes / float64(b.DurationTargetMinutes))
	} else {
		// untracked duration follows repetitions
		b.DurationProgress = b.RepetitionProgress
	}

	b.RawProgress = constants.RepetitionWeight*b.RepetitionProgress + constants.DurationWeight*b.DurationProgress
	b.PostponePenalty = math.Min(constants.PostponePenaltyMax, float64(postponeCount)*constants.PostponePenaltyStep)

	if h.IsDue(now) {
		b.OverdueMinutes = utils.MinutesBetween(h.DueAt, now)
	}
	interval := max(1, h.IntervalMinutes)
	b.OverduePenalty = math.Min(constants.OverduePenaltyMax, float64(b.OverdueMinutes)/float64(interval)*constants.OverduePenaltyRate)

	b.Score = int(math.Round(clamp01(b.RawProgress*(1-b.PostponePenalty-b.OverduePenalty)) * 100))
	return b
}

// Grade maps a score to its letter on the grade ladder.
func Grade(score int) string {
	for _, t := range constants.GradeLadder {
		if score >= t.Min {
			return t.Grade
		}
	}
	return constants.LowestGrade
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

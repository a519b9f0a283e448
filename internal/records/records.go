// Package records exposes the four persisted collections (habits, timer
// sessions, completions, postpones) as typed, ordered sequences on top of a
// storage.Provider.
package records

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/julianstephens/cadence/internal/constants"
	apperrors "github.com/julianstephens/cadence/internal/errors"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/storage"
)

type Store struct {
	provider storage.Provider
}

func New(provider storage.Provider) *Store {
	return &Store{provider: provider}
}

// Provider returns the underlying mapping store.
func (s *Store) Provider() storage.Provider {
	return s.provider
}

// load decodes the collection under key. Missing or corrupt data yields an
// empty collection; only provider failures are returned as errors.
func load[T any](s *Store, key string) ([]T, error) {
	data, ok, err := s.provider.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok || len(data) == 0 {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		logger.Warn("Discarding corrupt collection", "collection", key, "error", err)
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Habits

// ListHabits returns habits sorted by ascending DueAt. Archived habits are
// excluded unless includeArchived is set.
func (s *Store) ListHabits(includeArchived bool) ([]models.Habit, error) {
	all, err := load[models.Habit](s, constants.CollectionHabits)
	if err != nil {
		return nil, err
	}

	habits := make([]models.Habit, 0, len(all))
	for _, h := range all {
		if h.Archived && !includeArchived {
			continue
		}
		habits = append(habits, h)
	}

	SortByDue(habits)
	return habits, nil
}

// SortByDue orders habits by DueAt, then CreatedAt, then ID.
func SortByDue(habits []models.Habit) {
	sort.SliceStable(habits, func(i, j int) bool {
		a, b := habits[i], habits[j]
		if !a.DueAt.Equal(b.DueAt) {
			return a.DueAt.Before(b.DueAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// GetHabit looks up a habit by id. Archived habits are only found when
// includeArchived is set.
func (s *Store) GetHabit(id string, includeArchived bool) (models.Habit, error) {
	all, err := load[models.Habit](s, constants.CollectionHabits)
	if err != nil {
		return models.Habit{}, err
	}
	for _, h := range all {
		if h.ID == id && (includeArchived || !h.Archived) {
			return h, nil
		}
	}
	return models.Habit{}, apperrors.NotFound("habit", id)
}

// AllHabits returns every stored habit in stored order, archived included.
func (s *Store) AllHabits() ([]models.Habit, error) {
	return load[models.Habit](s, constants.CollectionHabits)
}

func (s *Store) SaveHabits(habits []models.Habit) error {
	return s.Commit(NewBatch().PutHabits(habits))
}

// Timer sessions

func (s *Store) ListSessions() ([]models.TimerSession, error) {
	return load[models.TimerSession](s, constants.CollectionTimerSessions)
}

// SessionForHabit returns the active session for habitID, if any.
func (s *Store) SessionForHabit(habitID string) (models.TimerSession, bool, error) {
	sessions, err := s.ListSessions()
	if err != nil {
		return models.TimerSession{}, false, err
	}
	for _, session := range sessions {
		if session.HabitID == habitID {
			return session, true, nil
		}
	}
	return models.TimerSession{}, false, nil
}

func (s *Store) SaveSessions(sessions []models.TimerSession) error {
	return s.Commit(NewBatch().PutSessions(sessions))
}

// Completions

func (s *Store) ListCompletions() ([]models.CompletionRecord, error) {
	return load[models.CompletionRecord](s, constants.CollectionCompletions)
}

// CompletionsBetween returns completions with from <= CompletedAt <= to.
func (s *Store) CompletionsBetween(from, to time.Time) ([]models.CompletionRecord, error) {
	all, err := s.ListCompletions()
	if err != nil {
		return nil, err
	}
	out := make([]models.CompletionRecord, 0, len(all))
	for _, c := range all {
		if within(c.CompletedAt, from, to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) SaveCompletions(completions []models.CompletionRecord) error {
	return s.Commit(NewBatch().PutCompletions(completions))
}

// Postpones

func (s *Store) ListPostpones() ([]models.PostponeRecord, error) {
	return load[models.PostponeRecord](s, constants.CollectionPostpones)
}

// PostponesBetween returns postpones with from <= PostponedAt <= to.
func (s *Store) PostponesBetween(from, to time.Time) ([]models.PostponeRecord, error) {
	all, err := s.ListPostpones()
	if err != nil {
		return nil, err
	}
	out := make([]models.PostponeRecord, 0, len(all))
	for _, p := range all {
		if within(p.PostponedAt, from, to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) SavePostpones(postpones []models.PostponeRecord) error {
	return s.Commit(NewBatch().PutPostpones(postpones))
}

func within(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

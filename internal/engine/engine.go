// Package engine applies every mutation to habits and timer sessions and is
// the only writer of completion and postpone records.
package engine

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/cadence/internal/constants"
	apperrors "github.com/julianstephens/cadence/internal/errors"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/records"
	"github.com/julianstephens/cadence/internal/utils"
)

type Engine struct {
	store *records.Store
	now   func() time.Time
	newID func() string
}

type Option func(*Engine)

// WithClock replaces time.Now. Each operation reads the clock once.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator replaces the uuid generator used for new records.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		e.newID = newID
	}
}

func New(store *records.Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the record store the engine writes to.
func (e *Engine) Store() *records.Store {
	return e.store
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// CompleteOptions carries the optional inputs of Complete.
type CompleteOptions struct {
	DurationSeconds *int
	Source          models.CompletionSource
}

// normalizeDraft trims text fields and coerces numeric fields into range.
func normalizeDraft(draft models.HabitDraft) (models.HabitDraft, error) {
	draft.Name = strings.TrimSpace(draft.Name)
	if draft.Name == "" {
		return draft, apperrors.InvalidInput("name must not be empty")
	}
	draft.Notes = strings.TrimSpace(draft.Notes)

	switch draft.Type {
	case models.HabitTypeHabit, models.HabitTypeTask:
	case "":
		draft.Type = models.HabitTypeHabit
	default:
		return draft, apperrors.InvalidInput("unknown type %q (want habit or task)", draft.Type)
	}

	if draft.IntervalMinutes < constants.MinIntervalMinutes {
		draft.IntervalMinutes = constants.MinIntervalMinutes
	}
	if draft.TargetRepetitionsPerDay < constants.MinRepetitionsPerDay {
		draft.TargetRepetitionsPerDay = constants.MinRepetitionsPerDay
	}
	if draft.ExpectedDurationMinutes != nil {
		if *draft.ExpectedDurationMinutes < 1 {
			draft.ExpectedDurationMinutes = nil
		} else {
			v := *draft.ExpectedDurationMinutes
			draft.ExpectedDurationMinutes = &v
		}
	}
	return draft, nil
}

// Create stores a new habit due one interval from now.
func (e *Engine) Create(draft models.HabitDraft) (models.Habit, error) {
	draft, err := normalizeDraft(draft)
	if err != nil {
		return models.Habit{}, err
	}
	now := e.now()

	habits, err := e.store.AllHabits()
	if err != nil {
		return models.Habit{}, err
	}

	habit := models.Habit{
		ID:                      e.newID(),
		Name:                    draft.Name,
		Type:                    draft.Type,
		IntervalMinutes:         draft.IntervalMinutes,
		TargetRepetitionsPerDay: draft.TargetRepetitionsPerDay,
		ExpectedDurationMinutes: draft.ExpectedDurationMinutes,
		Notes:                   draft.Notes,
		CreatedAt:               now,
		DueAt:                   utils.AddMinutes(now, draft.IntervalMinutes),
	}

	if err := e.store.SaveHabits(append(habits, habit)); err != nil {
		return models.Habit{}, err
	}
	logger.Debug("Created habit", "id", habit.ID, "name", habit.Name, "due_at", habit.DueAt)
	return habit, nil
}

// Update replaces the editable fields of a habit, archived or not. Schedule
// and history fields are preserved.
func (e *Engine) Update(id string, draft models.HabitDraft) (models.Habit, error) {
	draft, err := normalizeDraft(draft)
	if err != nil {
		return models.Habit{}, err
	}

	habits, err := e.store.AllHabits()
	if err != nil {
		return models.Habit{}, err
	}
	idx := indexOf(habits, id, true)
	if idx < 0 {
		return models.Habit{}, apperrors.NotFound("habit", id)
	}

	h := &habits[idx]
	h.Name = draft.Name
	h.Type = draft.Type
	h.IntervalMinutes = draft.IntervalMinutes
	h.TargetRepetitionsPerDay = draft.TargetRepetitionsPerDay
	h.ExpectedDurationMinutes = draft.ExpectedDurationMinutes
	h.Notes = draft.Notes

	if err := e.store.SaveHabits(habits); err != nil {
		return models.Habit{}, err
	}
	logger.Debug("Updated habit", "id", id)
	return *h, nil
}

// Archive hides a habit from active listings and drops its timer session
// without recording a completion. Archiving twice is not an error.
func (e *Engine) Archive(id string) (models.Habit, error) {
	habits, err := e.store.AllHabits()
	if err != nil {
		return models.Habit{}, err
	}
	idx := indexOf(habits, id, true)
	if idx < 0 {
		return models.Habit{}, apperrors.NotFound("habit", id)
	}

	sessions, err := e.store.ListSessions()
	if err != nil {
		return models.Habit{}, err
	}
	remaining, dropped := withoutSession(sessions, id)

	if habits[idx].Archived && !dropped {
		return habits[idx], nil
	}
	habits[idx].Archived = true

	batch := records.NewBatch().PutHabits(habits)
	if dropped {
		batch.PutSessions(remaining)
	}
	if err := e.store.Commit(batch); err != nil {
		return models.Habit{}, err
	}
	logger.Debug("Archived habit", "id", id, "discarded_session", dropped)
	return habits[idx], nil
}

// StartTimer opens a timer session for the habit. An existing session is
// returned unchanged.
func (e *Engine) StartTimer(id string) (models.TimerSession, error) {
	if _, err := e.store.GetHabit(id, false); err != nil {
		return models.TimerSession{}, err
	}

	sessions, err := e.store.ListSessions()
	if err != nil {
		return models.TimerSession{}, err
	}
	for _, s := range sessions {
		if s.HabitID == id {
			return s, nil
		}
	}

	session := models.TimerSession{
		ID:        e.newID(),
		HabitID:   id,
		StartedAt: e.now(),
	}
	if err := e.store.SaveSessions(append(sessions, session)); err != nil {
		return models.TimerSession{}, err
	}
	logger.Debug("Started timer", "habit_id", id, "session_id", session.ID)
	return session, nil
}

// StopTimer closes the habit's session and records a timed completion.
func (e *Engine) StopTimer(id string) (models.CompletionRecord, error) {
	now := e.now()

	habits, err := e.store.AllHabits()
	if err != nil {
		return models.CompletionRecord{}, err
	}
	if indexOf(habits, id, false) < 0 {
		return models.CompletionRecord{}, apperrors.NotFound("habit", id)
	}

	session, ok, err := e.store.SessionForHabit(id)
	if err != nil {
		return models.CompletionRecord{}, err
	}
	if !ok {
		return models.CompletionRecord{}, apperrors.NoActiveTimer(id)
	}

	elapsed := utils.SecondsBetween(session.StartedAt, now)
	return e.complete(habits, id, now, elapsed, models.CompletionSourceTimer)
}

// Complete records a completion now and schedules the next one a full
// interval later, however overdue the habit was.
func (e *Engine) Complete(id string, opts CompleteOptions) (models.CompletionRecord, error) {
	now := e.now()

	habits, err := e.store.AllHabits()
	if err != nil {
		return models.CompletionRecord{}, err
	}
	if indexOf(habits, id, false) < 0 {
		return models.CompletionRecord{}, apperrors.NotFound("habit", id)
	}

	duration := 0
	if opts.DurationSeconds != nil && *opts.DurationSeconds > 0 {
		duration = *opts.DurationSeconds
	}
	source := opts.Source
	if source == "" {
		source = models.CompletionSourceManual
	}
	return e.complete(habits, id, now, duration, source)
}

func (e *Engine) complete(habits []models.Habit, id string, now time.Time, duration int, source models.CompletionSource) (models.CompletionRecord, error) {
	completions, err := e.store.ListCompletions()
	if err != nil {
		return models.CompletionRecord{}, err
	}
	sessions, err := e.store.ListSessions()
	if err != nil {
		return models.CompletionRecord{}, err
	}

	record := models.CompletionRecord{
		ID:              e.newID(),
		HabitID:         id,
		CompletedAt:     now,
		DurationSeconds: duration,
		Source:          source,
	}

	h := &habits[indexOf(habits, id, false)]
	completedAt := now
	h.LastCompletedAt = &completedAt
	h.LastReminderAt = nil
	h.DueAt = utils.AddMinutes(now, h.IntervalMinutes)

	batch := records.NewBatch().
		PutHabits(habits).
		PutCompletions(append(completions, record))
	if remaining, dropped := withoutSession(sessions, id); dropped {
		batch.PutSessions(remaining)
	}
	if err := e.store.Commit(batch); err != nil {
		return models.CompletionRecord{}, err
	}

	logger.Debug("Completed habit", "id", id, "source", source, "duration_seconds", duration, "next_due", h.DueAt)
	return record, nil
}

// Postpone pushes the due time forward by minutes, counted from the later of
// the current due time and now.
func (e *Engine) Postpone(id string, minutes int) (models.PostponeRecord, error) {
	now := e.now()
	if minutes < constants.MinPostponeMinutes {
		minutes = constants.MinPostponeMinutes
	}

	habits, err := e.store.AllHabits()
	if err != nil {
		return models.PostponeRecord{}, err
	}
	idx := indexOf(habits, id, false)
	if idx < 0 {
		return models.PostponeRecord{}, apperrors.NotFound("habit", id)
	}
	postpones, err := e.store.ListPostpones()
	if err != nil {
		return models.PostponeRecord{}, err
	}

	h := &habits[idx]
	h.DueAt = utils.AddMinutes(utils.MaxTime(h.DueAt, now), minutes)
	h.LastReminderAt = nil

	record := models.PostponeRecord{
		ID:          e.newID(),
		HabitID:     id,
		PostponedAt: now,
		Minutes:     minutes,
	}

	batch := records.NewBatch().
		PutHabits(habits).
		PutPostpones(append(postpones, record))
	if err := e.store.Commit(batch); err != nil {
		return models.PostponeRecord{}, err
	}

	logger.Debug("Postponed habit", "id", id, "minutes", minutes, "next_due", h.DueAt)
	return record, nil
}

// MarkReminded records that a reminder was shown at the given time. Unknown
// ids are ignored.
func (e *Engine) MarkReminded(id string, at time.Time) error {
	habits, err := e.store.AllHabits()
	if err != nil {
		return err
	}
	idx := indexOf(habits, id, false)
	if idx < 0 {
		logger.Debug("Skipping reminder bookkeeping for unknown habit", "id", id)
		return nil
	}

	remindedAt := at
	habits[idx].LastReminderAt = &remindedAt
	return e.store.SaveHabits(habits)
}

// indexOf returns the position of id in habits, or -1. Archived habits only
// match when includeArchived is set.
func indexOf(habits []models.Habit, id string, includeArchived bool) int {
	for i, h := range habits {
		if h.ID == id && (includeArchived || !h.Archived) {
			return i
		}
	}
	return -1
}

// withoutSession drops every session belonging to habitID.
func withoutSession(sessions []models.TimerSession, habitID string) ([]models.TimerSession, bool) {
	remaining := make([]models.TimerSession, 0, len(sessions))
	dropped := false
	for _, s := range sessions {
		if s.HabitID == habitID {
			dropped = true
			continue
		}
		remaining = append(remaining, s)
	}
	return remaining, dropped
}

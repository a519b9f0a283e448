package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/julianstephens/cadence/internal/errors"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/records"
	"github.com/julianstephens/cadence/internal/storage"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func setupEngine(t *testing.T) (*Engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 6, 2, 9, 0, 0, 0, time.Local)}
	seq := 0
	e := New(records.New(storage.NewMemoryStore()),
		WithClock(clock.Now),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	)
	return e, clock
}

func mustCreate(t *testing.T, e *Engine, name string, interval int) models.Habit {
	t.Helper()
	h, err := e.Create(models.HabitDraft{Name: name, IntervalMinutes: interval, TargetRepetitionsPerDay: 1})
	if err != nil {
		t.Fatalf("Create(%q) error = %v", name, err)
	}
	return h
}

func intPtr(v int) *int { return &v }

func TestCreate(t *testing.T) {
	e, clock := setupEngine(t)

	h, err := e.Create(models.HabitDraft{
		Name:                    "  Stretch  ",
		Type:                    models.HabitTypeHabit,
		IntervalMinutes:         90,
		TargetRepetitionsPerDay: 3,
		ExpectedDurationMinutes: intPtr(10),
		Notes:                   "after standup",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if h.Name != "Stretch" {
		t.Errorf("Name = %q, want trimmed %q", h.Name, "Stretch")
	}
	if !h.CreatedAt.Equal(clock.Now()) {
		t.Errorf("CreatedAt = %v, want %v", h.CreatedAt, clock.Now())
	}
	if want := clock.Now().Add(90 * time.Minute); !h.DueAt.Equal(want) {
		t.Errorf("DueAt = %v, want %v", h.DueAt, want)
	}
	if h.Archived || h.ID == "" {
		t.Errorf("new habit = %+v, want active with id", h)
	}
}

func TestCreateCoercesNumericFields(t *testing.T) {
	tests := []struct {
		name         string
		draft        models.HabitDraft
		wantInterval int
		wantTarget   int
		wantDuration *int
		wantType     models.HabitType
	}{
		{
			name:         "zero values",
			draft:        models.HabitDraft{Name: "a"},
			wantInterval: 1,
			wantTarget:   1,
			wantType:     models.HabitTypeHabit,
		},
		{
			name:         "negative values",
			draft:        models.HabitDraft{Name: "b", Type: models.HabitTypeTask, IntervalMinutes: -5, TargetRepetitionsPerDay: -2, ExpectedDurationMinutes: intPtr(0)},
			wantInterval: 1,
			wantTarget:   1,
			wantType:     models.HabitTypeTask,
		},
		{
			name:         "valid values kept",
			draft:        models.HabitDraft{Name: "c", IntervalMinutes: 30, TargetRepetitionsPerDay: 4, ExpectedDurationMinutes: intPtr(5)},
			wantInterval: 30,
			wantTarget:   4,
			wantDuration: intPtr(5),
			wantType:     models.HabitTypeHabit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := setupEngine(t)
			h, err := e.Create(tt.draft)
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if h.IntervalMinutes != tt.wantInterval {
				t.Errorf("IntervalMinutes = %d, want %d", h.IntervalMinutes, tt.wantInterval)
			}
			if h.TargetRepetitionsPerDay != tt.wantTarget {
				t.Errorf("TargetRepetitionsPerDay = %d, want %d", h.TargetRepetitionsPerDay, tt.wantTarget)
			}
			if h.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", h.Type, tt.wantType)
			}
			switch {
			case tt.wantDuration == nil && h.ExpectedDurationMinutes != nil:
				t.Errorf("ExpectedDurationMinutes = %d, want unset", *h.ExpectedDurationMinutes)
			case tt.wantDuration != nil && (h.ExpectedDurationMinutes == nil || *h.ExpectedDurationMinutes != *tt.wantDuration):
				t.Errorf("ExpectedDurationMinutes = %v, want %d", h.ExpectedDurationMinutes, *tt.wantDuration)
			}
		})
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	e, _ := setupEngine(t)

	for _, draft := range []models.HabitDraft{
		{Name: "   "},
		{Name: "x", Type: "chore"},
	} {
		if _, err := e.Create(draft); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Errorf("Create(%+v) error = %v, want ErrInvalidInput", draft, err)
		}
	}

	habits, _ := e.Store().ListHabits(true)
	if len(habits) != 0 {
		t.Errorf("invalid creates stored %d habits", len(habits))
	}
}

func TestCreateThenListRoundTrip(t *testing.T) {
	e, clock := setupEngine(t)

	mustCreate(t, e, "hourly", 60)
	mustCreate(t, e, "daily", 1440)
	clock.Advance(time.Minute)
	created := mustCreate(t, e, "short", 30)

	habits, err := e.Store().ListHabits(false)
	if err != nil {
		t.Fatal(err)
	}

	count := 0
	for _, h := range habits {
		if h.ID == created.ID {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("created habit listed %d times, want 1", count)
	}
	want := []string{"short", "hourly", "daily"}
	for i, name := range want {
		if habits[i].Name != name {
			t.Errorf("habits[%d] = %q, want %q", i, habits[i].Name, name)
		}
	}
}

func TestUpdatePreservesScheduleFields(t *testing.T) {
	e, clock := setupEngine(t)
	h := mustCreate(t, e, "read", 60)

	clock.Advance(2 * time.Hour)
	if _, err := e.Complete(h.ID, CompleteOptions{}); err != nil {
		t.Fatal(err)
	}
	before, _ := e.Store().GetHabit(h.ID, false)

	clock.Advance(time.Minute)
	updated, err := e.Update(h.ID, models.HabitDraft{
		Name:                    "read fiction",
		Type:                    models.HabitTypeTask,
		IntervalMinutes:         15,
		TargetRepetitionsPerDay: 2,
		Notes:                   "chapter a day",
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Name != "read fiction" || updated.Type != models.HabitTypeTask || updated.IntervalMinutes != 15 ||
		updated.TargetRepetitionsPerDay != 2 || updated.Notes != "chapter a day" {
		t.Errorf("Update() did not apply draft: %+v", updated)
	}
	if updated.ID != before.ID || !updated.CreatedAt.Equal(before.CreatedAt) || !updated.DueAt.Equal(before.DueAt) {
		t.Errorf("Update() changed identity or schedule: before %+v after %+v", before, updated)
	}
	if updated.LastCompletedAt == nil || !updated.LastCompletedAt.Equal(*before.LastCompletedAt) {
		t.Errorf("LastCompletedAt = %v, want %v", updated.LastCompletedAt, before.LastCompletedAt)
	}
}

func TestUpdateFindsArchivedHabits(t *testing.T) {
	e, _ := setupEngine(t)
	h := mustCreate(t, e, "old", 60)
	if _, err := e.Archive(h.ID); err != nil {
		t.Fatal(err)
	}

	updated, err := e.Update(h.ID, models.HabitDraft{Name: "renamed", IntervalMinutes: 60})
	if err != nil {
		t.Fatalf("Update(archived) error = %v", err)
	}
	if !updated.Archived {
		t.Error("Update() unarchived the habit")
	}

	if _, err := e.Update("missing", models.HabitDraft{Name: "x"}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

func TestCompleteAdvancesDueFromCompletion(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
	}{
		{"before due", 10 * time.Minute},
		{"exactly due", time.Hour},
		{"long overdue", 26 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, clock := setupEngine(t)
			h := mustCreate(t, e, "water", 60)

			clock.Advance(tt.elapsed)
			rec, err := e.Complete(h.ID, CompleteOptions{})
			if err != nil {
				t.Fatalf("Complete() error = %v", err)
			}
			if rec.Source != models.CompletionSourceManual || rec.DurationSeconds != 0 {
				t.Errorf("completion = %+v, want manual with 0 seconds", rec)
			}

			got, _ := e.Store().GetHabit(h.ID, false)
			if want := rec.CompletedAt.Add(time.Hour); !got.DueAt.Equal(want) {
				t.Errorf("DueAt = %v, want %v", got.DueAt, want)
			}
			if got.LastCompletedAt == nil || !got.LastCompletedAt.Equal(clock.Now()) {
				t.Errorf("LastCompletedAt = %v, want %v", got.LastCompletedAt, clock.Now())
			}
		})
	}
}

func TestCompleteClearsReminderAndSession(t *testing.T) {
	e, clock := setupEngine(t)
	h := mustCreate(t, e, "walk", 60)
	other := mustCreate(t, e, "other", 60)

	if _, err := e.StartTimer(h.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := e.StartTimer(other.ID); err != nil {
		t.Fatal(err)
	}
	if err := e.MarkReminded(h.ID, clock.Now()); err != nil {
		t.Fatal(err)
	}

	clock.Advance(5 * time.Minute)
	rec, err := e.Complete(h.ID, CompleteOptions{DurationSeconds: intPtr(42)})
	if err != nil {
		t.Fatal(err)
	}
	if rec.DurationSeconds != 42 {
		t.Errorf("DurationSeconds = %d, want 42", rec.DurationSeconds)
	}

	got, _ := e.Store().GetHabit(h.ID, false)
	if got.LastReminderAt != nil {
		t.Errorf("LastReminderAt = %v, want nil", got.LastReminderAt)
	}
	sessions, _ := e.Store().ListSessions()
	if len(sessions) != 1 || sessions[0].HabitID != other.ID {
		t.Errorf("sessions after complete = %+v, want only %s", sessions, other.ID)
	}
}

func TestCompleteNotFound(t *testing.T) {
	e, _ := setupEngine(t)
	h := mustCreate(t, e, "gone", 60)
	if _, err := e.Archive(h.ID); err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"missing", h.ID} {
		if _, err := e.Complete(id, CompleteOptions{}); !errors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("Complete(%s) error = %v, want ErrNotFound", id, err)
		}
	}
	completions, _ := e.Store().ListCompletions()
	if len(completions) != 0 {
		t.Errorf("got %d completions, want 0", len(completions))
	}
}

func TestPostpone(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		minutes int
		want    func(created, dueAt, now time.Time) time.Time
	}{
		{
			name:    "not yet due extends schedule",
			elapsed: 20 * time.Minute,
			minutes: 15,
			want:    func(_, dueAt, _ time.Time) time.Time { return dueAt.Add(15 * time.Minute) },
		},
		{
			name:    "overdue extends from now",
			elapsed: 3 * time.Hour,
			minutes: 15,
			want:    func(_, _, now time.Time) time.Time { return now.Add(15 * time.Minute) },
		},
		{
			name:    "minutes below one clamp to one",
			elapsed: 2 * time.Hour,
			minutes: 0,
			want:    func(_, _, now time.Time) time.Time { return now.Add(time.Minute) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, clock := setupEngine(t)
			h := mustCreate(t, e, "stand up", 60)
			if err := e.MarkReminded(h.ID, clock.Now()); err != nil {
				t.Fatal(err)
			}

			clock.Advance(tt.elapsed)
			rec, err := e.Postpone(h.ID, tt.minutes)
			if err != nil {
				t.Fatalf("Postpone() error = %v", err)
			}
			if rec.Minutes < 1 {
				t.Errorf("record minutes = %d, want >= 1", rec.Minutes)
			}

			got, _ := e.Store().GetHabit(h.ID, false)
			if want := tt.want(h.CreatedAt, h.DueAt, clock.Now()); !got.DueAt.Equal(want) {
				t.Errorf("DueAt = %v, want %v", got.DueAt, want)
			}
			if got.LastReminderAt != nil {
				t.Error("Postpone() did not clear LastReminderAt")
			}

			postpones, _ := e.Store().ListPostpones()
			if len(postpones) != 1 || !postpones[0].PostponedAt.Equal(clock.Now()) {
				t.Errorf("postpones = %+v, want one at %v", postpones, clock.Now())
			}
		})
	}
}

func TestPostponeNotFound(t *testing.T) {
	e, _ := setupEngine(t)
	if _, err := e.Postpone("missing", 10); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Postpone(missing) error = %v, want ErrNotFound", err)
	}
}

func TestStartTimerIsIdempotent(t *testing.T) {
	e, clock := setupEngine(t)
	h := mustCreate(t, e, "focus", 60)

	first, err := e.StartTimer(h.ID)
	if err != nil {
		t.Fatal(err)
	}
	clock.Advance(3 * time.Minute)
	second, err := e.StartTimer(h.ID)
	if err != nil {
		t.Fatal(err)
	}

	if second.ID != first.ID || second.HabitID != first.HabitID || !second.StartedAt.Equal(first.StartedAt) {
		t.Errorf("second StartTimer() = %+v, want %+v", second, first)
	}
	sessions, _ := e.Store().ListSessions()
	if len(sessions) != 1 {
		t.Errorf("got %d sessions, want 1", len(sessions))
	}
}

func TestStopTimer(t *testing.T) {
	e, clock := setupEngine(t)
	h := mustCreate(t, e, "focus", 60)

	if _, err := e.StopTimer(h.ID); !errors.Is(err, apperrors.ErrNoActiveTimer) {
		t.Fatalf("StopTimer() without session error = %v, want ErrNoActiveTimer", err)
	}

	if _, err := e.StartTimer(h.ID); err != nil {
		t.Fatal(err)
	}
	clock.Advance(25*time.Minute + 30*time.Second + 700*time.Millisecond)

	rec, err := e.StopTimer(h.ID)
	if err != nil {
		t.Fatalf("StopTimer() error = %v", err)
	}
	if rec.DurationSeconds != 25*60+30 {
		t.Errorf("DurationSeconds = %d, want %d", rec.DurationSeconds, 25*60+30)
	}
	if rec.Source != models.CompletionSourceTimer {
		t.Errorf("Source = %q, want timer", rec.Source)
	}

	sessions, _ := e.Store().ListSessions()
	if len(sessions) != 0 {
		t.Errorf("session not removed: %+v", sessions)
	}
	got, _ := e.Store().GetHabit(h.ID, false)
	if want := clock.Now().Add(time.Hour); !got.DueAt.Equal(want) {
		t.Errorf("DueAt = %v, want %v", got.DueAt, want)
	}

	if _, err := e.StopTimer("missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("StopTimer(missing) error = %v, want ErrNotFound", err)
	}
}

func TestArchiveIsIdempotentAndDiscardsSession(t *testing.T) {
	e, clock := setupEngine(t)
	h := mustCreate(t, e, "journal", 60)

	if _, err := e.StartTimer(h.ID); err != nil {
		t.Fatal(err)
	}
	clock.Advance(10 * time.Minute)

	for i := 0; i < 2; i++ {
		archived, err := e.Archive(h.ID)
		if err != nil {
			t.Fatalf("Archive() call %d error = %v", i+1, err)
		}
		if !archived.Archived {
			t.Errorf("Archive() call %d returned unarchived habit", i+1)
		}
	}

	sessions, _ := e.Store().ListSessions()
	completions, _ := e.Store().ListCompletions()
	if len(sessions) != 0 || len(completions) != 0 {
		t.Errorf("after archive: %d sessions, %d completions; want 0 and 0", len(sessions), len(completions))
	}
	active, _ := e.Store().ListHabits(false)
	if len(active) != 0 {
		t.Errorf("archived habit still listed: %+v", active)
	}

	if _, err := e.StartTimer(h.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("StartTimer(archived) error = %v, want ErrNotFound", err)
	}
	if _, err := e.Archive("missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Archive(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMarkReminded(t *testing.T) {
	e, clock := setupEngine(t)
	h := mustCreate(t, e, "meds", 60)

	at := clock.Now().Add(time.Hour)
	if err := e.MarkReminded(h.ID, at); err != nil {
		t.Fatal(err)
	}
	got, _ := e.Store().GetHabit(h.ID, false)
	if got.LastReminderAt == nil || !got.LastReminderAt.Equal(at) {
		t.Errorf("LastReminderAt = %v, want %v", got.LastReminderAt, at)
	}

	if err := e.MarkReminded("missing", at); err != nil {
		t.Errorf("MarkReminded(missing) error = %v, want nil", err)
	}
}

func TestSharedJSONFileKeepsOtherProcessWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cadence.json")
	seed := storage.NewJSONStore(path)
	if err := seed.Init(); err != nil {
		t.Fatal(err)
	}
	openStore := func() *records.Store {
		s := storage.NewJSONStore(path)
		if err := s.Load(); err != nil {
			t.Fatal(err)
		}
		return records.New(s)
	}

	clock := &fakeClock{t: time.Date(2025, 6, 2, 9, 0, 0, 0, time.Local)}
	watcher := New(openStore(), WithClock(clock.Now))
	other := New(openStore(), WithClock(clock.Now))

	h := mustCreate(t, other, "water", 60)
	clock.Advance(2 * time.Hour)

	// The long-running engine reads the habit while it is due.
	due, err := watcher.Store().GetHabit(h.ID, false)
	if err != nil {
		t.Fatalf("watcher GetHabit() error = %v", err)
	}
	if !due.IsDue(clock.Now()) {
		t.Fatal("habit should be due before completion")
	}

	if _, err := other.Complete(h.ID, CompleteOptions{}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if err := watcher.MarkReminded(h.ID, clock.Now()); err != nil {
		t.Fatalf("MarkReminded() error = %v", err)
	}

	final := openStore()
	completions, _ := final.ListCompletions()
	if len(completions) != 1 {
		t.Errorf("completions on disk = %d, want 1", len(completions))
	}
	got, err := final.GetHabit(h.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	if got.LastCompletedAt == nil {
		t.Error("LastCompletedAt lost after the other engine wrote")
	}
	if want := clock.Now().Add(time.Hour); !got.DueAt.Equal(want) {
		t.Errorf("DueAt = %v, want %v", got.DueAt, want)
	}
	if got.LastReminderAt == nil {
		t.Error("LastReminderAt was not written")
	}
}

// Package reminder picks the habit that most needs attention and notifies
// the user about it, either once or on a cron schedule.
package reminder

import (
	"fmt"
	"time"

	"github.com/julianstephens/cadence/internal/engine"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/notifier"
	"github.com/julianstephens/cadence/internal/utils"
)

// Action is applied to the selected habit after the notification is sent.
type Action string

const (
	ActionNone   Action = "none"
	ActionStart  Action = "start"
	ActionDone   Action = "done"
	ActionSnooze Action = "snooze"
)

// ParseAction validates an action name. An empty name means ActionNone.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case "":
		return ActionNone, nil
	case ActionNone, ActionStart, ActionDone, ActionSnooze:
		return a, nil
	default:
		return "", fmt.Errorf("unknown reminder action %q (want none, start, done or snooze)", s)
	}
}

type Options struct {
	Action        Action
	Throttle      time.Duration
	SnoozeMinutes int
	// DryRun notifies without applying the action or recording the reminder.
	DryRun bool
}

type Reminder struct {
	engine   *engine.Engine
	notifier notifier.Notifier
	opts     Options
}

// Result describes one reminder pass.
type Result struct {
	Habit    models.Habit
	Reminded bool
	Message  string
}

func New(eng *engine.Engine, n notifier.Notifier, opts Options) *Reminder {
	if opts.Action == "" {
		opts.Action = ActionNone
	}
	return &Reminder{engine: eng, notifier: n, opts: opts}
}

// SelectCandidate returns the earliest-due habit that is due, not being
// timed, and either never reminded or last reminded at least throttle ago.
// habits must be sorted by DueAt.
func SelectCandidate(habits []models.Habit, sessions []models.TimerSession, now time.Time, throttle time.Duration) (models.Habit, bool) {
	timing := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		timing[s.HabitID] = true
	}

	for _, h := range habits {
		if h.Archived || !h.IsDue(now) || timing[h.ID] {
			continue
		}
		if h.LastReminderAt != nil && now.Sub(*h.LastReminderAt) < throttle {
			continue
		}
		return h, true
	}
	return models.Habit{}, false
}

// Message renders the notification text for h.
func Message(h models.Habit, now time.Time) string {
	kind := "Habit"
	if h.Type == models.HabitTypeTask {
		kind = "Task"
	}
	return fmt.Sprintf("%s due: %s (%s)", kind, h.Name, utils.FormatRelativeDue(h.DueAt, now))
}

// Check runs one reminder pass. Notification failures are logged and do not
// fail the pass.
func (r *Reminder) Check() (Result, error) {
	now := r.engine.Now()
	store := r.engine.Store()

	habits, err := store.ListHabits(false)
	if err != nil {
		return Result{}, err
	}
	sessions, err := store.ListSessions()
	if err != nil {
		return Result{}, err
	}

	habit, ok := SelectCandidate(habits, sessions, now, r.opts.Throttle)
	if !ok {
		logger.Debug("No habit needs a reminder")
		return Result{}, nil
	}

	result := Result{Habit: habit, Reminded: true, Message: Message(habit, now)}
	if err := r.notifier.Notify(result.Message); err != nil {
		logger.Warn("Failed to deliver reminder", "habit_id", habit.ID, "error", err)
	}
	if r.opts.DryRun {
		return result, nil
	}

	if err := r.apply(habit.ID); err != nil {
		return result, err
	}
	if err := r.engine.MarkReminded(habit.ID, now); err != nil {
		return result, err
	}
	logger.Info("Reminded", "habit_id", habit.ID, "name", habit.Name, "action", r.opts.Action)
	return result, nil
}

func (r *Reminder) apply(id string) error {
	var err error
	switch r.opts.Action {
	case ActionStart:
		_, err = r.engine.StartTimer(id)
	case ActionDone:
		_, err = r.engine.Complete(id, engine.CompleteOptions{})
	case ActionSnooze:
		_, err = r.engine.Postpone(id, r.opts.SnoozeMinutes)
	}
	if err != nil {
		return fmt.Errorf("reminder action %s failed: %w", r.opts.Action, err)
	}
	return nil
}

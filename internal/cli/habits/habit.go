package habits

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/engine"
	apperrors "github.com/julianstephens/cadence/internal/errors"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/utils"
)

type HabitCmd struct {
	Add      HabitAddCmd      `cmd:"" help:"Add a habit or task."`
	Edit     HabitEditCmd     `cmd:"" help:"Edit a habit."`
	List     HabitListCmd     `cmd:"" help:"List habits by due time." default:"1"`
	Show     HabitShowCmd     `cmd:"" help:"Show habit details."`
	Archive  HabitArchiveCmd  `cmd:"" help:"Archive a habit."`
	Done     HabitDoneCmd     `cmd:"" help:"Mark a habit as completed now."`
	Postpone HabitPostponeCmd `cmd:"" help:"Push a habit's due time back."`
}

func minutes(d time.Duration) int {
	return int(d / time.Minute)
}

type HabitAddCmd struct {
	Name     string        `arg:"" help:"Habit name."`
	Task     bool          `help:"Create a one-shot task instead of a repeating habit."`
	Every    time.Duration `help:"Interval between repetitions (e.g. 45m, 2h)." default:"1h"`
	Target   int           `help:"Target repetitions per day." default:"1"`
	Duration time.Duration `help:"Expected time per repetition (0 = not tracked)." default:"0s"`
	Notes    string        `help:"Free-form notes."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	draft := models.HabitDraft{
		Name:                    c.Name,
		Type:                    models.HabitTypeHabit,
		IntervalMinutes:         minutes(c.Every),
		TargetRepetitionsPerDay: c.Target,
		Notes:                   c.Notes,
	}
	if c.Task {
		draft.Type = models.HabitTypeTask
	}
	if m := minutes(c.Duration); m > 0 {
		draft.ExpectedDurationMinutes = &m
	}

	habit, err := ctx.Engine.Create(draft)
	if err != nil {
		return err
	}

	ctx.Printf("Added %s %q (%s), due %s at %s\n", habit.Type, habit.Name, cli.ShortID(habit.ID),
		utils.FormatRelativeDue(habit.DueAt, habit.CreatedAt), utils.FormatClock(habit.DueAt))
	return nil
}

type HabitEditCmd struct {
	Habit    string         `arg:"" help:"Habit id, id prefix or name."`
	Name     *string        `help:"New name."`
	Type     *string        `help:"New type (habit or task)."`
	Every    *time.Duration `help:"New interval."`
	Target   *int           `help:"New target repetitions per day."`
	Duration *time.Duration `help:"New expected time per repetition (0 clears it)."`
	Notes    *string        `help:"New notes."`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit, true)
	if err != nil {
		return err
	}

	draft := models.HabitDraft{
		Name:                    habit.Name,
		Type:                    habit.Type,
		IntervalMinutes:         habit.IntervalMinutes,
		TargetRepetitionsPerDay: habit.TargetRepetitionsPerDay,
		ExpectedDurationMinutes: habit.ExpectedDurationMinutes,
		Notes:                   habit.Notes,
	}
	if c.Name != nil {
		draft.Name = *c.Name
	}
	if c.Type != nil {
		draft.Type = models.HabitType(*c.Type)
	}
	if c.Every != nil {
		draft.IntervalMinutes = minutes(*c.Every)
	}
	if c.Target != nil {
		draft.TargetRepetitionsPerDay = *c.Target
	}
	if c.Duration != nil {
		m := minutes(*c.Duration)
		draft.ExpectedDurationMinutes = &m
	}
	if c.Notes != nil {
		draft.Notes = *c.Notes
	}

	updated, err := ctx.Engine.Update(habit.ID, draft)
	if err != nil {
		return err
	}
	ctx.Printf("Updated %q (%s)\n", updated.Name, cli.ShortID(updated.ID))
	return nil
}

type HabitListCmd struct {
	Archived bool `help:"Include archived habits."`
	JSON     bool `help:"Print habits as JSON." name:"json"`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	habits, err := ctx.Store.ListHabits(c.Archived)
	if err != nil {
		return err
	}
	if c.JSON {
		return writeJSON(ctx, habits)
	}
	if len(habits) == 0 {
		ctx.Println("No habits found. Add one with 'cadence habit add'.")
		return nil
	}

	sessions, err := ctx.Store.ListSessions()
	if err != nil {
		return err
	}
	timing := make(map[string]models.TimerSession, len(sessions))
	for _, s := range sessions {
		timing[s.HabitID] = s
	}

	now := ctx.Engine.Now()
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(cli.MutedStyle).
		Headers("ID", "NAME", "TYPE", "EVERY", "DUE", "STATUS")
	for _, h := range habits {
		status := ""
		if s, ok := timing[h.ID]; ok {
			status = "timing " + utils.FormatDuration(utils.SecondsBetween(s.StartedAt, now))
		}
		if h.Archived {
			status = cli.MutedStyle.Render("archived")
		}
		t.Row(
			cli.ShortID(h.ID),
			h.Name,
			string(h.Type),
			utils.FormatDuration(h.IntervalMinutes*60),
			cli.DueLabel(h, now),
			status,
		)
	}
	ctx.Println(t.String())
	return nil
}

type HabitShowCmd struct {
	Habit string `arg:"" help:"Habit id, id prefix or name."`
}

func (c *HabitShowCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit, true)
	if err != nil {
		return err
	}
	now := ctx.Engine.Now()

	ctx.Println(cli.HeaderStyle.Render(habit.Name))
	ctx.Printf("  ID:        %s\n", habit.ID)
	ctx.Printf("  Type:      %s\n", habit.Type)
	ctx.Printf("  Every:     %s\n", utils.FormatDuration(habit.IntervalMinutes*60))
	ctx.Printf("  Target:    %d per day\n", habit.TargetRepetitionsPerDay)
	if habit.ExpectedDurationMinutes != nil {
		ctx.Printf("  Expected:  %s per repetition\n", utils.FormatDuration(*habit.ExpectedDurationMinutes*60))
	}
	ctx.Printf("  Due:       %s (%s)\n", utils.FormatClock(habit.DueAt), cli.DueLabel(habit, now))
	if habit.LastCompletedAt != nil {
		ctx.Printf("  Last done: %s %s\n", utils.FormatDate(*habit.LastCompletedAt), utils.FormatClock(*habit.LastCompletedAt))
	}
	if habit.Notes != "" {
		ctx.Printf("  Notes:     %s\n", habit.Notes)
	}
	if habit.Archived {
		ctx.Println("  " + cli.MutedStyle.Render("archived"))
	}

	if session, ok, err := ctx.Store.SessionForHabit(habit.ID); err != nil {
		return err
	} else if ok {
		ctx.Printf("  Timer:     running for %s\n", utils.FormatDuration(utils.SecondsBetween(session.StartedAt, now)))
	}

	completions, err := ctx.Store.CompletionsBetween(utils.StartOfDay(now), now)
	if err != nil {
		return err
	}
	count, seconds := 0, 0
	for _, rec := range completions {
		if rec.HabitID == habit.ID {
			count++
			seconds += rec.DurationSeconds
		}
	}
	ctx.Printf("  Today:     %d/%d done, %s tracked\n", count, habit.TargetRepetitionsPerDay, utils.FormatDuration(seconds))
	return nil
}

type HabitArchiveCmd struct {
	Habit string `arg:"" help:"Habit id, id prefix or name."`
}

func (c *HabitArchiveCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit, true)
	if err != nil {
		return err
	}
	if _, err := ctx.Engine.Archive(habit.ID); err != nil {
		return err
	}
	ctx.Printf("Archived %q\n", habit.Name)
	return nil
}

type HabitDoneCmd struct {
	Habit    string         `arg:"" help:"Habit id, id prefix or name."`
	Duration *time.Duration `help:"Time spent on this repetition."`
}

func (c *HabitDoneCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit, false)
	if err != nil {
		return err
	}

	opts := engine.CompleteOptions{Source: models.CompletionSourceManual}
	if c.Duration != nil {
		seconds := int(*c.Duration / time.Second)
		opts.DurationSeconds = &seconds
	}

	rec, err := ctx.Engine.Complete(habit.ID, opts)
	if err != nil {
		return err
	}
	next := rec.CompletedAt.Add(habit.Interval())
	ctx.Printf("%s %s, next due at %s\n", cli.SuccessStyle.Render("Done:"), habit.Name, utils.FormatClock(next))
	return nil
}

type HabitPostponeCmd struct {
	Habit   string `arg:"" help:"Habit id, id prefix or name."`
	Minutes int    `arg:"" optional:"" help:"Minutes to postpone by (defaults to reminder.snooze_minutes)."`
	Until   string `help:"Postpone until this time today (HH:MM) instead of by a number of minutes."`
}

func (c *HabitPostponeCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit, false)
	if err != nil {
		return err
	}

	mins := c.Minutes
	if c.Until != "" {
		if mins, err = untilMinutes(habit, c.Until, ctx.Engine.Now()); err != nil {
			return err
		}
	} else if mins == 0 && ctx.Config != nil {
		mins = ctx.Config.Reminder.SnoozeMinutes
	}

	rec, err := ctx.Engine.Postpone(habit.ID, mins)
	if err != nil {
		return err
	}
	updated, err := ctx.Store.GetHabit(habit.ID, false)
	if err != nil {
		return err
	}
	ctx.Printf("Postponed %s by %d min, now due at %s\n", habit.Name, rec.Minutes, utils.FormatClock(updated.DueAt))
	return nil
}

// untilMinutes converts a clock time into minutes past the postpone anchor,
// rounded up.
func untilMinutes(habit models.Habit, clock string, now time.Time) (int, error) {
	until, err := utils.ParseClockToday(clock, now)
	if err != nil {
		return 0, apperrors.InvalidInput("%v", err)
	}
	anchor := utils.MaxTime(habit.DueAt, now)
	if !until.After(anchor) {
		return 0, apperrors.InvalidInput("%s is not after the current due time %s", clock, utils.FormatClock(anchor))
	}
	return (utils.SecondsBetween(anchor, until) + 59) / 60, nil
}

func writeJSON(ctx *cli.Context, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(data))
	return nil
}

func formatTarget(done, target int) string {
	return strconv.Itoa(done) + "/" + strconv.Itoa(target)
}

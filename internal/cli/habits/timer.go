package habits

import (
	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/utils"
)

type TimerCmd struct {
	Start TimerStartCmd `cmd:"" help:"Start timing a habit."`
	Stop  TimerStopCmd  `cmd:"" help:"Stop timing a habit and record a completion."`
	List  TimerListCmd  `cmd:"" help:"List running timers." default:"1"`
}

type TimerStartCmd struct {
	Habit string `arg:"" help:"Habit id, id prefix or name."`
}

func (c *TimerStartCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit, false)
	if err != nil {
		return err
	}
	session, err := ctx.Engine.StartTimer(habit.ID)
	if err != nil {
		return err
	}
	ctx.Printf("Timing %s since %s\n", habit.Name, utils.FormatClock(session.StartedAt))
	return nil
}

type TimerStopCmd struct {
	Habit string `arg:"" help:"Habit id, id prefix or name."`
}

func (c *TimerStopCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit, false)
	if err != nil {
		return err
	}
	rec, err := ctx.Engine.StopTimer(habit.ID)
	if err != nil {
		return err
	}
	ctx.Printf("%s %s after %s, next due at %s\n", cli.SuccessStyle.Render("Done:"), habit.Name,
		utils.FormatDuration(rec.DurationSeconds), utils.FormatClock(rec.CompletedAt.Add(habit.Interval())))
	return nil
}

type TimerListCmd struct{}

func (c *TimerListCmd) Run(ctx *cli.Context) error {
	sessions, err := ctx.Store.ListSessions()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		ctx.Println("No timers running.")
		return nil
	}

	now := ctx.Engine.Now()
	for _, s := range sessions {
		name := cli.MutedStyle.Render("(unknown habit " + cli.ShortID(s.HabitID) + ")")
		if h, err := ctx.Store.GetHabit(s.HabitID, true); err == nil {
			name = h.Name
		}
		ctx.Printf("%s  %s  started %s\n", name, utils.FormatDuration(utils.SecondsBetween(s.StartedAt, now)), utils.FormatClock(s.StartedAt))
	}
	return nil
}

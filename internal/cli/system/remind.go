package system

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/notifier"
	"github.com/julianstephens/cadence/internal/reminder"
)

type RemindCmd struct {
	Watch  bool   `help:"Keep running and check on the configured interval."`
	Action string `help:"What to do with the reminded habit: none, start, done or snooze." enum:"none,start,done,snooze" default:"none"`
	DryRun bool   `help:"Print reminders instead of sending them, without changing any habit."`
}

func (c *RemindCmd) notifier(ctx *cli.Context) notifier.Notifier {
	if c.DryRun {
		return notifier.NewConsole(ctx.Out, "[dry-run] ")
	}
	return notifier.Fallback{notifier.NewTray(), notifier.NewConsole(ctx.Out, "")}
}

func (c *RemindCmd) Run(ctx *cli.Context) error {
	action, err := reminder.ParseAction(c.Action)
	if err != nil {
		return err
	}

	r := reminder.New(ctx.Engine, c.notifier(ctx), reminder.Options{
		Action:        action,
		Throttle:      ctx.Config.Reminder.Throttle(),
		SnoozeMinutes: ctx.Config.Reminder.SnoozeMinutes,
		DryRun:        c.DryRun,
	})

	if !c.Watch {
		result, err := r.Check()
		if err != nil {
			return err
		}
		if !result.Reminded {
			ctx.Println("Nothing to remind.")
		}
		return nil
	}

	interval, err := ctx.Config.Reminder.Interval()
	if err != nil {
		return err
	}

	ctx.PerformAutomaticBackup()

	w := reminder.NewWatcher(r, interval)
	if err := w.Start(); err != nil {
		return err
	}
	ctx.Printf("Watching for due habits every %s (Ctrl+C to stop)\n", interval)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	w.Stop()
	return nil
}

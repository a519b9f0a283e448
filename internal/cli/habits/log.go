package habits

import (
	"sort"
	"time"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/utils"
)

// LogCmd prints today's completions and postpones in time order.
type LogCmd struct{}

type logLine struct {
	at   time.Time
	text string
}

func (c *LogCmd) Run(ctx *cli.Context) error {
	now := ctx.Engine.Now()
	from := utils.StartOfDay(now)

	completions, err := ctx.Store.CompletionsBetween(from, now)
	if err != nil {
		return err
	}
	postpones, err := ctx.Store.PostponesBetween(from, now)
	if err != nil {
		return err
	}
	habits, err := ctx.Store.AllHabits()
	if err != nil {
		return err
	}
	names := make(map[string]string, len(habits))
	for _, h := range habits {
		names[h.ID] = h.Name
	}
	name := func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return cli.ShortID(id)
	}

	var lines []logLine
	for _, rec := range completions {
		text := "done      " + name(rec.HabitID) + " (" + string(rec.Source)
		if rec.DurationSeconds > 0 {
			text += ", " + utils.FormatDuration(rec.DurationSeconds)
		}
		lines = append(lines, logLine{at: rec.CompletedAt, text: text + ")"})
	}
	for _, rec := range postpones {
		lines = append(lines, logLine{
			at:   rec.PostponedAt,
			text: cli.WarningStyle.Render("postponed") + " " + name(rec.HabitID) + " (+" + utils.FormatDuration(rec.Minutes*60) + ")",
		})
	}

	if len(lines) == 0 {
		ctx.Println("Nothing logged today.")
		return nil
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].at.Before(lines[j].at) })

	ctx.Println(cli.HeaderStyle.Render("Today, " + utils.FormatDate(now)))
	for _, l := range lines {
		ctx.Printf("  %s  %s\n", utils.FormatClock(l.at), l.text)
	}
	return nil
}

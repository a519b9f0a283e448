package habits

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/cadence/internal/cli"
	"github.com/julianstephens/cadence/internal/utils"
)

type ScoreCmd struct {
	JSON bool `help:"Print the score breakdown as JSON." name:"json"`
}

func (c *ScoreCmd) Run(ctx *cli.Context) error {
	score, err := ctx.Scorer.ComputeDailyScore(ctx.Engine.Now())
	if err != nil {
		return err
	}
	if c.JSON {
		return writeJSON(ctx, score)
	}

	ctx.Printf("%s  %s  %s\n",
		cli.HeaderStyle.Render("Score for "+utils.FormatDate(score.Date)),
		cli.GradeStyle(score.Grade).Render(fmt.Sprintf("%d %s", score.Score, score.Grade)),
		cli.MutedStyle.Render(fmt.Sprintf("%d done, %s tracked, %d due now",
			score.CompletedCount, utils.FormatDuration(score.TotalTrackedMinutes*60), score.DueNowCount)),
	)
	if len(score.Habits) == 0 {
		ctx.Println("No active habits.")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(cli.MutedStyle).
		Headers("HABIT", "REPS", "TIME", "POSTPONED", "OVERDUE", "SCORE")
	for _, b := range score.Habits {
		timeCol := utils.FormatDuration(int(b.DurationMinutes * 60))
		if b.DurationTargetMinutes > 0 {
			timeCol += " / " + utils.FormatDuration(b.DurationTargetMinutes*60)
		}
		overdue := ""
		if b.OverdueMinutes > 0 {
			overdue = utils.FormatDuration(b.OverdueMinutes * 60)
		}
		t.Row(
			b.Name,
			formatTarget(b.Repetitions, b.RepetitionTarget),
			timeCol,
			strconv.Itoa(b.PostponeCount),
			overdue,
			strconv.Itoa(b.Score),
		)
	}
	ctx.Println(t.String())
	return nil
}

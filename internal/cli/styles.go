package cli

import (
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/utils"
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	DangerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
)

// GradeStyle colors a letter grade.
func GradeStyle(grade string) lipgloss.Style {
	switch grade {
	case "S", "A+":
		return SuccessStyle.Bold(true)
	case "A", "B":
		return SuccessStyle
	case "C":
		return WarningStyle
	default:
		return DangerStyle
	}
}

// DueLabel renders the relative due time of h, colored by urgency.
func DueLabel(h models.Habit, now time.Time) string {
	label := utils.FormatRelativeDue(h.DueAt, now)
	switch {
	case h.DueAt.Before(now.Add(-time.Minute)):
		return DangerStyle.Render(label)
	case h.IsDue(now) || label == "now":
		return WarningStyle.Render(label)
	default:
		return MutedStyle.Render(label)
	}
}

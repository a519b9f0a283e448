package constants

const (
	// Weights applied to repetition and duration progress. They must sum to 1.0.
	RepetitionWeight = 0.65
	DurationWeight   = 0.35

	PostponePenaltyStep = 0.05
	PostponePenaltyMax  = 0.20

	// Overdue penalty grows by OverduePenaltyRate per full interval overdue.
	OverduePenaltyRate = 0.15
	OverduePenaltyMax  = 0.25

	// EmptyDayScore is reported when there are no active habits.
	EmptyDayScore = 100
)

// GradeThreshold maps a minimum score to a letter grade.
type GradeThreshold struct {
	Min   int
	Grade string
}

// GradeLadder is ordered from highest to lowest; the first threshold met wins.
var GradeLadder = []GradeThreshold{
	{Min: 95, Grade: "S"},
	{Min: 90, Grade: "A+"},
	{Min: 80, Grade: "A"},
	{Min: 70, Grade: "B"},
	{Min: 60, Grade: "C"},
}

// LowestGrade is assigned when no threshold in GradeLadder is met.
const LowestGrade = "D"

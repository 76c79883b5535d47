// Package recovery generates remedial tasks after a day below the productivity threshold.
package recovery

import (
	"momentum-tracker/internal/model"
)

// DefaultThreshold is the score below which yesterday counts as a failed day.
const DefaultThreshold = 70

// BatchSize is the number of tasks in one recovery batch.
const BatchSize = 4

// Template is the static shape of one recovery task.
type Template struct {
	Title       string
	Description string
	Priority    model.Priority
}

var templates = [BatchSize]Template{
	{
		Title:       "Quick win: finish one small task",
		Description: "Pick the smallest open task and get it done to restart momentum.",
		Priority:    model.PriorityHigh,
	},
	{
		Title:       "Review what blocked you yesterday",
		Description: "Write down the one thing that kept yesterday's score low.",
		Priority:    model.PriorityHigh,
	},
	{
		Title:       "Plan tomorrow's top three tasks",
		Description: "Choose three tasks for tomorrow and put them on the list now.",
		Priority:    model.PriorityMedium,
	},
	{
		Title:       "Ten minutes of focused work",
		Description: "Set a timer and work on your most important category without distraction.",
		Priority:    model.PriorityMedium,
	},
}

// Needed reports whether a recovery batch is due: yesterday has a score below
// threshold and today has no score yet.
func Needed(logs []model.DailyLog, today model.Date, threshold int) bool {
	yesterday := today.AddDays(-1)
	var (
		haveYesterday bool
		failed        bool
	)
	for _, l := range logs {
		switch l.Date {
		case today:
			return false
		case yesterday:
			haveYesterday = true
			failed = l.Score < threshold
		}
	}
	return haveYesterday && failed
}

// Generate builds a fresh batch dated today. It is stateless and will happily build
// another batch when called again; Manager.Ensure is the idempotent entry point.
func Generate(today model.Date, newID func() string) []model.Task {
	batch := make([]model.Task, 0, BatchSize)
	for _, tpl := range templates {
		batch = append(batch, model.Task{
			ID:          newID(),
			Title:       tpl.Title,
			Description: tpl.Description,
			Priority:    tpl.Priority,
			Date:        today,
			IsRecovery:  true,
		})
	}
	return batch
}

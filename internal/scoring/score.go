package scoring

import "momentum-tracker/internal/model"

// Calculator computes daily scores against a fixed weight table.
type Calculator struct {
	table *WeightTable
}

func NewCalculator(table *WeightTable) *Calculator {
	return &Calculator{table: table}
}

func (c *Calculator) Table() *WeightTable { return c.table }

// DailyScore returns round-half-up(100 * earned / total) over the category weights of
// tasks. Empty input and a zero total weight both score 0.
func (c *Calculator) DailyScore(tasks []model.Task) int {
	var total, earned int
	for _, task := range tasks {
		w := c.table.WeightOf(task.Category)
		total += w
		if task.Completed {
			earned += w
		}
	}
	return Percent(earned, total)
}

// Summarize builds the full DailyLog for day from its tasks.
func (c *Calculator) Summarize(day model.Date, tasks []model.Task) model.DailyLog {
	completed := 0
	for _, task := range tasks {
		if task.Completed {
			completed++
		}
	}
	return model.DailyLog{
		Date:           day,
		Score:          c.DailyScore(tasks),
		TasksCompleted: completed,
		TotalTasks:     len(tasks),
	}
}

// Percent is round-half-up(100 * part / whole) in integer arithmetic, 0 when whole <= 0.
func Percent(part, whole int) int {
	if whole <= 0 || part <= 0 {
		return 0
	}
	return (200*part + whole) / (2 * whole)
}

// Level buckets a score into the five heatmap intensities 0..4.
func Level(score int) int {
	switch {
	case score <= 0:
		return 0
	case score < 25:
		return 1
	case score < 50:
		return 2
	case score < 75:
		return 3
	default:
		return 4
	}
}

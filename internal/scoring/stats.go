package scoring

import (
	"sort"

	"momentum-tracker/internal/model"
)

// CategoryStat summarizes the tasks of one category.
type CategoryStat struct {
	Category             string `json:"category"`
	TotalTasks           int    `json:"totalTasks"`
	CompletedTasks       int    `json:"completedTasks"`
	TotalWeight          int    `json:"totalWeight"`
	EarnedWeight         int    `json:"earnedWeight"`
	CompletionPercentage int    `json:"completionPercentage"`
}

// CategoryStats groups tasks by the category they score under, ordered by name.
func (c *Calculator) CategoryStats(tasks []model.Task) []CategoryStat {
	byCategory := make(map[string]*CategoryStat)
	for _, task := range tasks {
		key := c.table.Resolve(task.Category)
		stat, ok := byCategory[key]
		if !ok {
			stat = &CategoryStat{Category: key}
			byCategory[key] = stat
		}
		w := c.table.WeightOf(key)
		stat.TotalTasks++
		stat.TotalWeight += w
		if task.Completed {
			stat.CompletedTasks++
			stat.EarnedWeight += w
		}
	}

	out := make([]CategoryStat, 0, len(byCategory))
	for _, stat := range byCategory {
		stat.CompletionPercentage = Percent(stat.CompletedTasks, stat.TotalTasks)
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

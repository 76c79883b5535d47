package service

import (
	"slices"
	"time"

	"momentum-tracker/internal/model"
)

// Agenda groups tasks the way the day view shows them.
type Agenda struct {
	Date      model.Date
	Active    []model.Task
	Overdue   []model.Task
	Completed []model.Task
	Scheduled []model.Task
}

// Len returns the number of tasks across all four lists.
func (a Agenda) Len() int {
	return len(a.Active) + len(a.Overdue) + len(a.Completed) + len(a.Scheduled)
}

// BuildAgenda sorts tasks into disjoint views relative to now. Recurring tasks are
// active on every day they occur and never overdue or scheduled.
func BuildAgenda(tasks []model.Task, now time.Time) Agenda {
	today := model.DateOf(now)
	agenda := Agenda{Date: today}

	for _, task := range tasks {
		if task.Completed {
			if completedOn(task, now.Location()) == today {
				agenda.Completed = append(agenda.Completed, task)
			}
			continue
		}

		if task.Kind() == model.KindRecurring {
			if task.OccursOn(today) {
				agenda.Active = append(agenda.Active, task)
			}
			continue
		}

		switch {
		case task.Date == today:
			agenda.Active = append(agenda.Active, task)
		case task.Date.Before(today):
			agenda.Overdue = append(agenda.Overdue, task)
		default:
			agenda.Scheduled = append(agenda.Scheduled, task)
		}
	}

	byPriority := func(a, b model.Task) int {
		if c := priorityRank(a.Priority) - priorityRank(b.Priority); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	slices.SortStableFunc(agenda.Active, byPriority)
	slices.SortStableFunc(agenda.Overdue, func(a, b model.Task) int {
		if a.Date != b.Date {
			if a.Date.Before(b.Date) {
				return -1
			}
			return 1
		}
		return byPriority(a, b)
	})
	slices.SortStableFunc(agenda.Scheduled, func(a, b model.Task) int {
		if a.Date != b.Date {
			if a.Date.Before(b.Date) {
				return -1
			}
			return 1
		}
		return byPriority(a, b)
	})
	return agenda
}

func completedOn(task model.Task, loc *time.Location) model.Date {
	if task.CompletedAt != nil {
		return model.DateOf(task.CompletedAt.In(loc))
	}
	return task.Date
}

func priorityRank(p model.Priority) int {
	switch p {
	case model.PriorityHigh:
		return 0
	case model.PriorityLow:
		return 2
	default:
		return 1
	}
}

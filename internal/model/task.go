package model

import (
	"fmt"
	"strings"
	"time"
)

// Priority is the legacy weighting signal of a task; category weight supersedes it in scoring.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// ParsePriority matches High/Medium/Low case-insensitively. Empty means Medium.
func ParsePriority(raw string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high", "h":
		return PriorityHigh, nil
	case "", "medium", "m":
		return PriorityMedium, nil
	case "low", "l":
		return PriorityLow, nil
	}
	return "", fmt.Errorf("unknown priority %q", raw)
}

// TaskKind distinguishes the three shapes a task record can take.
type TaskKind int

const (
	KindOneOff TaskKind = iota
	KindRecurring
	KindRecovery
)

func (k TaskKind) String() string {
	switch k {
	case KindRecurring:
		return "recurring"
	case KindRecovery:
		return "recovery"
	default:
		return "one-off"
	}
}

// Task is a single item of user-assigned work belonging to one calendar day.
type Task struct {
	ID             string     `gorm:"primaryKey" json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Priority       Priority   `json:"priority"`
	Category       string     `gorm:"index" json:"category,omitempty"`
	Completed      bool       `gorm:"default:false" json:"completed"`
	Date           Date       `gorm:"index" json:"date"`
	IsRecurring    bool       `gorm:"default:false" json:"isRecurring,omitempty"`
	RecurrenceDays Weekdays   `json:"recurrenceDays,omitempty"`
	IsRecovery     bool       `gorm:"index;default:false" json:"isRecovery,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (t Task) Kind() TaskKind {
	switch {
	case t.IsRecovery:
		return KindRecovery
	case t.IsRecurring && !t.RecurrenceDays.Empty():
		return KindRecurring
	default:
		return KindOneOff
	}
}

// OccursOn reports whether the task belongs to the given day. Recurring tasks
// occur on every day whose weekday flag is set.
func (t Task) OccursOn(day Date) bool {
	if t.Kind() == KindRecurring {
		return t.RecurrenceDays.Has(day.Weekday())
	}
	return t.Date == day
}

// NextOccurrences returns drafts of the recurring task for each matching weekday in
// (from, from+withinDays]. Drafts are one-off, incomplete and carry no ID; persisting
// them is the caller's job.
func NextOccurrences(task Task, from Date, withinDays int) []Task {
	if task.Kind() != KindRecurring || !from.Valid() {
		return nil
	}
	var drafts []Task
	for i := 1; i <= withinDays; i++ {
		day := from.AddDays(i)
		if !task.RecurrenceDays.Has(day.Weekday()) {
			continue
		}
		drafts = append(drafts, Task{
			Title:       task.Title,
			Description: task.Description,
			Priority:    task.Priority,
			Category:    task.Category,
			Date:        day,
		})
	}
	return drafts
}

package model

import "time"

// DailyLog is the cached score of one calendar day. It is always rebuilt from the
// full task set of that day, never patched.
type DailyLog struct {
	Date           Date      `gorm:"primaryKey" json:"date"`
	Score          int       `json:"score"`
	TasksCompleted int       `json:"tasksCompleted"`
	TotalTasks     int       `json:"totalTasks"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Productive reports whether the day meets the threshold.
func (l DailyLog) Productive(threshold int) bool {
	return l.Score >= threshold
}

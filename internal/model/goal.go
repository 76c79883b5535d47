package model

import (
	"errors"
	"math"
	"time"
)

var ErrInvalidGoal = errors.New("invalid goal")

type GoalStatus string

const (
	GoalAchieved       GoalStatus = "Achieved"
	GoalOnTrack        GoalStatus = "On Track"
	GoalBehind         GoalStatus = "Behind"
	GoalNeedsAttention GoalStatus = "Needs Attention"
)

// Defaults for a new goal.
const (
	DefaultGoalUnit     = "days"
	DefaultGoalCategory = "tasks"
	DefaultGoalDays     = 30
)

// Goal is a numeric target the user advances by hand over a date range.
type Goal struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Name         string    `json:"name"`
	Target       int       `json:"target"`
	CurrentValue int       `json:"currentValue"`
	Unit         string    `json:"unit"`
	Category     string    `json:"category"`
	StartDate    Date      `json:"startDate"`
	EndDate      Date      `json:"endDate"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Progress is the rounded share of the target reached, capped at 100.
func (g Goal) Progress() int {
	if g.Target <= 0 || g.CurrentValue <= 0 {
		return 0
	}
	return int(math.Min(100, math.Round(float64(g.CurrentValue)*100/float64(g.Target))))
}

func (g Goal) Status() GoalStatus {
	switch p := g.Progress(); {
	case p >= 100:
		return GoalAchieved
	case p >= 75:
		return GoalOnTrack
	case p >= 50:
		return GoalBehind
	default:
		return GoalNeedsAttention
	}
}

// Overlaps reports whether the goal's range touches from..to.
func (g Goal) Overlaps(from, to Date) bool {
	return !g.StartDate.After(to) && !g.EndDate.Before(from)
}

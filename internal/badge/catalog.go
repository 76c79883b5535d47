// Package badge evaluates the fixed achievement catalog against task and score history.
package badge

import (
	"momentum-tracker/internal/model"
	"momentum-tracker/internal/scoring"
	"momentum-tracker/internal/streak"
)

// Stats is the snapshot every badge predicate reads from.
type Stats struct {
	HasActivity    bool
	ScoreRuns      streak.State // runs of days scoring above 50
	ActiveRuns     streak.State // runs of days with at least one completed task
	Days80         int
	Days90         int
	LoggedDays     int
	CompletedTasks int
}

// Input is the history a badge evaluation runs over.
type Input struct {
	Tasks []model.Task
	Logs  []model.DailyLog
}

// Collect derives Stats from the history. Runs are calendar-consecutive: a day
// without a log ends a run.
func Collect(in Input) Stats {
	logs := streak.Normalize(in.Logs)
	stats := Stats{
		HasActivity: len(in.Tasks) > 0 || len(in.Logs) > 0,
		ScoreRuns:   streak.Compute(logs, 51),
		ActiveRuns: streak.ComputeFunc(logs, func(l model.DailyLog) bool {
			return l.TasksCompleted > 0
		}),
		LoggedDays: len(logs),
	}
	for _, l := range logs {
		if l.Score >= 80 {
			stats.Days80++
		}
		if l.Score >= 90 {
			stats.Days90++
		}
	}
	for _, t := range in.Tasks {
		if t.Completed && !t.IsRecovery {
			stats.CompletedTasks++
		}
	}
	return stats
}

// Definition is one catalog entry. Check reports whether the badge is earned and the
// current value its progress is measured by.
type Definition struct {
	Level       model.BadgeLevel
	Name        string
	Description string
	Requirement string
	Target      int
	Check       func(Stats) (earned bool, current int)
}

// Progress is the locked-badge completion percentage in 0..100.
func (d Definition) Progress(current int) int {
	if current < 0 {
		current = 0
	}
	if current > d.Target {
		current = d.Target
	}
	return scoring.Percent(current, d.Target)
}

// Badge renders the definition as a locked badge record.
func (d Definition) Badge() model.Badge {
	return model.Badge{
		Level:       d.Level,
		Name:        d.Name,
		Description: d.Description,
		Requirement: d.Requirement,
	}
}

var catalog = [model.BadgeCount]Definition{
	{
		Level:       model.BadgeFirstDay,
		Name:        "First Day Login",
		Description: "Welcome to MomentumTracker",
		Requirement: "Login for the first time",
		Target:      1,
		Check: func(s Stats) (bool, int) {
			if s.HasActivity {
				return true, 1
			}
			return false, 0
		},
	},
	{
		Level:       model.BadgeWeekStreak,
		Name:        "7-Day Streak",
		Description: "Maintained momentum for a full week!",
		Requirement: "Complete tasks for 7 consecutive days with score > 50% each day",
		Target:      7,
		Check: func(s Stats) (bool, int) {
			return s.ScoreRuns.LongestStreak >= 7, s.ScoreRuns.CurrentStreak
		},
	},
	{
		Level:       model.BadgeFortnight,
		Name:        "Fortnight Master",
		Description: "Two weeks of consistent effort!",
		Requirement: "Maintain tasks for 14 consecutive days",
		Target:      14,
		Check: func(s Stats) (bool, int) {
			return s.ActiveRuns.LongestStreak >= 14, s.ActiveRuns.CurrentStreak
		},
	},
	{
		Level:       model.BadgeMonth,
		Name:        "Month Master",
		Description: "A full month of dedication!",
		Requirement: "30 consecutive days OR 30 days at 80%+ score total",
		Target:      30,
		Check: func(s Stats) (bool, int) {
			return s.ActiveRuns.LongestStreak >= 30 || s.Days80 >= 30, s.ActiveRuns.CurrentStreak
		},
	},
	{
		Level:       model.BadgeJourney,
		Name:        "Productive Journey",
		Description: "50 days of productive momentum!",
		Requirement: "Log in and complete tasks for 50 total days (not consecutive)",
		Target:      50,
		Check: func(s Stats) (bool, int) {
			return s.LoggedDays >= 50, s.LoggedDays
		},
	},
	{
		Level:       model.BadgeTaskMaster,
		Name:        "Task Master",
		Description: "100 tasks conquered!",
		Requirement: "Complete 100 total tasks",
		Target:      100,
		Check: func(s Stats) (bool, int) {
			return s.CompletedTasks >= 100, s.CompletedTasks
		},
	},
	{
		Level:       model.BadgeHighPerformer,
		Name:        "High Performer",
		Description: "Exceptional performance!",
		Requirement: "Achieve 90%+ score on 10 different days",
		Target:      10,
		Check: func(s Stats) (bool, int) {
			return s.Days90 >= 10, s.Days90
		},
	},
	{
		Level:       model.BadgeCenturyClub,
		Name:        "Century Club",
		Description: "100 days of consistent achievement!",
		Requirement: "Log in and complete tasks for 100 total days (not consecutive)",
		Target:      100,
		Check: func(s Stats) (bool, int) {
			return s.LoggedDays >= 100, s.LoggedDays
		},
	},
}

// Catalog returns the eight definitions ordered by level.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog[:])
	return out
}

// Lookup returns the definition of a level.
func Lookup(level model.BadgeLevel) (Definition, bool) {
	if !level.Valid() {
		return Definition{}, false
	}
	return catalog[level], true
}

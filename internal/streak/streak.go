// Package streak derives current and longest runs from a daily score series.
package streak

import (
	"sort"

	"momentum-tracker/internal/model"
)

// DefaultThreshold is the score a day needs to count as productive.
const DefaultThreshold = 70

// State is derived from the full score series and never treated as ground truth.
type State struct {
	CurrentStreak       int        `json:"currentStreak"`
	CurrentStart        model.Date `json:"currentStart,omitempty"`
	CurrentEnd          model.Date `json:"currentEnd,omitempty"`
	LongestStreak       int        `json:"longestStreak"`
	LongestStart        model.Date `json:"longestStart,omitempty"`
	LongestEnd          model.Date `json:"longestEnd,omitempty"`
	TotalProductiveDays int        `json:"totalProductiveDays"`
}

// Predicate decides whether a day extends a run.
type Predicate func(model.DailyLog) bool

// AtLeast counts days scoring threshold or more.
func AtLeast(threshold int) Predicate {
	return func(l model.DailyLog) bool { return l.Score >= threshold }
}

// Compute evaluates runs of days scoring at least threshold.
func Compute(logs []model.DailyLog, threshold int) State {
	return ComputeFunc(logs, AtLeast(threshold))
}

// ComputeAsOf is Compute restricted to days up to today. Today is still in progress:
// its log only counts once it meets the threshold. The current streak only survives
// when its last day is today or yesterday.
func ComputeAsOf(logs []model.DailyLog, threshold int, today model.Date) State {
	past := make([]model.DailyLog, 0, len(logs))
	for _, l := range logs {
		switch {
		case l.Date.After(today):
		case l.Date == today && l.Score < threshold:
		default:
			past = append(past, l)
		}
	}
	state := Compute(past, threshold)
	if state.CurrentStreak > 0 && state.CurrentEnd != today && state.CurrentEnd != today.AddDays(-1) {
		state.CurrentStreak = 0
		state.CurrentStart = ""
		state.CurrentEnd = ""
	}
	return state
}

// ComputeFunc walks the series once in date order. A missing calendar day breaks a run
// exactly like a failing day. The current streak is the run ending at the latest
// recorded day; the earliest of equally long runs is reported as longest.
func ComputeFunc(logs []model.DailyLog, pred Predicate) State {
	series := Normalize(logs)

	var (
		state    State
		run      int
		runStart model.Date
		prev     model.Date
	)
	for _, l := range series {
		if pred(l) {
			state.TotalProductiveDays++
			if run > 0 && prev.AddDays(1) == l.Date {
				run++
			} else {
				run = 1
				runStart = l.Date
			}
			if run > state.LongestStreak {
				state.LongestStreak = run
				state.LongestStart = runStart
				state.LongestEnd = l.Date
			}
		} else {
			run = 0
		}
		prev = l.Date
	}

	if run > 0 {
		state.CurrentStreak = run
		state.CurrentStart = runStart
		state.CurrentEnd = prev
	}
	return state
}

// Normalize returns the valid logs sorted by date with one entry per day; for a
// duplicated day the later entry in input order wins.
func Normalize(logs []model.DailyLog) []model.DailyLog {
	byDate := make(map[model.Date]model.DailyLog, len(logs))
	for _, l := range logs {
		if l.Date.Valid() {
			byDate[l.Date] = l
		}
	}
	out := make([]model.DailyLog, 0, len(byDate))
	for _, l := range byDate {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

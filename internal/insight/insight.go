// Package insight derives coaching hints from the stored history: weak weekdays per
// task, declining scores, task pairs that go well together, streaks about to break
// and sustained high performance. The heuristics are best effort.
package insight

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"momentum-tracker/internal/model"
	"momentum-tracker/internal/scoring"
	"momentum-tracker/internal/streak"
)

type Kind string

const (
	KindDayPattern Kind = "day-pattern"
	KindBurnout    Kind = "burnout-warning"
	KindSynergy    Kind = "synergy"
	KindStreakRisk Kind = "streak-risk"
	KindPositive   Kind = "positive"
)

type Severity string

const (
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityPositive Severity = "positive"
)

// Thresholds of the heuristics.
const (
	minDaySamples     = 3
	weakDayRate       = 50
	burnoutWindow     = 14
	synergyMinLogs    = 7
	synergyMinDays    = 3
	synergyMargin     = 10
	streakRiskScore   = 50
	streakRiskLength  = 7
	streakRiskHours   = 6
	highPerformingAvg = 80
)

type Insight struct {
	ID         string   `json:"id"`
	Kind       Kind     `json:"type"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion"`
	Action     string   `json:"action,omitempty"`
}

// Input is the history the heuristics run over. Now decides what "today" is and
// how many hours are left in it.
type Input struct {
	Tasks   []model.Task
	Logs    []model.DailyLog
	Weights *scoring.WeightTable
	Now     time.Time
}

// Generate runs every heuristic and returns the insights in a stable order.
func Generate(in Input) []Insight {
	logs := streak.Normalize(in.Logs)
	days := tasksByDay(in.Tasks, logs)

	var out []Insight
	out = append(out, dayPatterns(days, logs)...)
	out = append(out, burnout(logs)...)
	out = append(out, synergies(days, logs)...)
	out = append(out, streakRisk(in, logs)...)
	out = append(out, highPerformance(logs)...)
	return out
}

// dayTasks maps a normalized title to whether any instance was completed that day.
type dayTasks map[string]bool

// tasksByDay groups the task instances of every logged day by title. Recurring
// clones share a title, so a title stands for "the same task" across days.
func tasksByDay(tasks []model.Task, logs []model.DailyLog) map[model.Date]dayTasks {
	logged := make(map[model.Date]bool, len(logs))
	for _, l := range logs {
		logged[l.Date] = true
	}
	days := make(map[model.Date]dayTasks)
	for _, t := range tasks {
		if !logged[t.Date] {
			continue
		}
		key := titleKey(t.Title)
		if key == "" {
			continue
		}
		if days[t.Date] == nil {
			days[t.Date] = make(dayTasks)
		}
		days[t.Date][key] = days[t.Date][key] || t.Completed
	}
	return days
}

func dayPatterns(days map[model.Date]dayTasks, logs []model.DailyLog) []Insight {
	type samples struct {
		title string
		byDay [7][]bool
	}
	byTitle := make(map[string]*samples)
	for _, l := range logs {
		for key, done := range days[l.Date] {
			s := byTitle[key]
			if s == nil {
				s = &samples{title: key}
				byTitle[key] = s
			}
			wd := l.Date.Weekday()
			s.byDay[wd] = append(s.byDay[wd], done)
		}
	}

	var out []Insight
	for _, key := range sortedKeys(byTitle) {
		s := byTitle[key]
		worst, worstRate, found := time.Sunday, 101.0, false
		for _, wd := range mondayFirst {
			completions := s.byDay[wd]
			if len(completions) < minDaySamples {
				continue
			}
			rate := completionRate(completions)
			if rate < worstRate {
				worst, worstRate, found = wd, rate, true
			}
		}
		if !found || worstRate >= weakDayRate {
			continue
		}
		out = append(out, Insight{
			ID:         fmt.Sprintf("day-pattern-%s-%s", slug(key), strings.ToLower(worst.String())),
			Kind:       KindDayPattern,
			Severity:   SeverityMedium,
			Message:    fmt.Sprintf("You complete %q only %d%% of the time on %ss", key, round(worstRate), worst),
			Suggestion: fmt.Sprintf("Consider moving to a better day or reducing priority on %ss", worst),
			Action:     "reschedule",
		})
	}
	return out
}

func burnout(logs []model.DailyLog) []Insight {
	if len(logs) < burnoutWindow {
		return nil
	}
	window := logs[len(logs)-burnoutWindow:]
	prior := average(window[:burnoutWindow/2])
	recent := average(window[burnoutWindow/2:])
	drop := prior - recent

	var out []Insight
	if recent > 80 && drop > 15 {
		out = append(out, Insight{
			ID:         "burnout-high-declining",
			Kind:       KindBurnout,
			Severity:   SeverityHigh,
			Message:    fmt.Sprintf("You've been crushing it (%d%% avg) but scores are dropping %d%%", round(recent), round(drop)),
			Suggestion: "Consider scheduling a recovery day to prevent burnout",
			Action:     "recovery-day",
		})
	}
	if drop > 10 && recent > 70 {
		out = append(out, Insight{
			ID:         "burnout-decline",
			Kind:       KindBurnout,
			Severity:   SeverityMedium,
			Message:    "Scores declining over last 14 days despite good performance",
			Suggestion: "Review your task load - might be overcommitting",
			Action:     "reduce-load",
		})
	}
	return out
}

func synergies(days map[model.Date]dayTasks, logs []model.DailyLog) []Insight {
	if len(logs) < synergyMinLogs {
		return nil
	}
	titles := make(map[string]bool)
	for _, tasks := range days {
		for key := range tasks {
			titles[key] = true
		}
	}
	names := sortedKeys(titles)

	var out []Insight
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			a, b := names[i], names[j]
			var both, onlyOne []model.DailyLog
			for _, l := range logs {
				doneA, doneB := days[l.Date][a], days[l.Date][b]
				switch {
				case doneA && doneB:
					both = append(both, l)
				case doneA != doneB:
					onlyOne = append(onlyOne, l)
				}
			}
			if len(both) < synergyMinDays || len(onlyOne) < synergyMinDays {
				continue
			}
			together, alone := average(both), average(onlyOne)
			if together <= alone+synergyMargin {
				continue
			}
			out = append(out, Insight{
				ID:         fmt.Sprintf("synergy-%s-%s", slug(a), slug(b)),
				Kind:       KindSynergy,
				Severity:   SeverityPositive,
				Message:    fmt.Sprintf("%s + %s combo = %d%% avg (vs %d%% alone)", a, b, round(together), round(alone)),
				Suggestion: "Try scheduling these tasks together more often",
				Action:     "pair-tasks",
			})
		}
	}
	return out
}

// streakRisk fires late in the day when today is weak and a streak of at least a
// week, counted up to yesterday, would break.
func streakRisk(in Input, logs []model.DailyLog) []Insight {
	if len(logs) == 0 || in.Now.IsZero() {
		return nil
	}
	today := model.DateOf(in.Now)
	score := 0
	for _, l := range logs {
		if l.Date == today {
			score = l.Score
		}
	}
	hoursLeft := 24 - in.Now.Hour()
	if score >= streakRiskScore || hoursLeft >= streakRiskHours {
		return nil
	}
	yesterday := today.AddDays(-1)
	past := make([]model.DailyLog, 0, len(logs))
	for _, l := range logs {
		if l.Date.Before(today) {
			past = append(past, l)
		}
	}
	state := streak.Compute(past, streakRiskScore)
	run := state.CurrentStreak
	if state.CurrentEnd != yesterday || run < streakRiskLength {
		return nil
	}

	var pending []model.Task
	for _, t := range in.Tasks {
		if !t.Completed && t.OccursOn(today) {
			pending = append(pending, t)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	weight := func(t model.Task) int {
		if in.Weights == nil {
			return 0
		}
		return in.Weights.WeightOf(t.Category)
	}
	sort.SliceStable(pending, func(i, j int) bool { return weight(pending[i]) > weight(pending[j]) })

	return []Insight{{
		ID:         "streak-risk",
		Kind:       KindStreakRisk,
		Severity:   SeverityHigh,
		Message:    fmt.Sprintf("%d-day streak at risk! Need %d points in %dh", run, streakRiskScore-score, hoursLeft),
		Suggestion: fmt.Sprintf("Quick wins: %s (%d pts)", pending[0].Title, weight(pending[0])),
		Action:     "urgent-tasks",
	}}
}

func highPerformance(logs []model.DailyLog) []Insight {
	if len(logs) < burnoutWindow {
		return nil
	}
	avg := average(logs)
	if avg <= highPerformingAvg {
		return nil
	}
	return []Insight{{
		ID:         "high-performance",
		Kind:       KindPositive,
		Severity:   SeverityPositive,
		Message:    fmt.Sprintf("You're maintaining a %d%% average - impressive consistency!", round(avg)),
		Suggestion: "Keep up the great work and maintain your momentum",
		Action:     "maintain",
	}}
}

var mondayFirst = [7]time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

func average(logs []model.DailyLog) float64 {
	if len(logs) == 0 {
		return 0
	}
	sum := 0
	for _, l := range logs {
		sum += l.Score
	}
	return float64(sum) / float64(len(logs))
}

func completionRate(completions []bool) float64 {
	done := 0
	for _, c := range completions {
		if c {
			done++
		}
	}
	return float64(done) / float64(len(completions)) * 100
}

func round(v float64) int {
	return int(math.Round(v))
}

func titleKey(title string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(title)), " ")
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "-")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

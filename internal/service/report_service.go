package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jinzhu/now"

	"momentum-tracker/internal/insight"
	"momentum-tracker/internal/model"
	"momentum-tracker/internal/scoring"
	"momentum-tracker/internal/streak"
)

// Dashboard is the at-a-glance state of today.
type Dashboard struct {
	Date           model.Date
	Today          model.DailyLog
	Scored         bool // a log exists for today
	Streak         streak.State
	Recovery       []model.Task
	UnlockedBadges int
}

// WeekStat aggregates the logged days of one calendar week inside a month.
type WeekStat struct {
	Start          model.Date
	End            model.Date
	LoggedDays     int
	AverageScore   int
	ProductiveDays int
}

// MonthReport aggregates one calendar month.
type MonthReport struct {
	Start          model.Date
	End            model.Date
	TotalTasks     int
	CompletedTasks int
	LoggedDays     int
	AverageScore   int
	ProductiveDays int
	BestDay        *model.DailyLog
	Weeks          []WeekStat
	Habits         HabitAverages
	Goals          []model.Goal
}

// HabitAverages averages the journal entries of a period. Fields an entry did not
// record count as zero.
type HabitAverages struct {
	Entries      int
	ScreenTime   float64
	SleepHours   float64
	WaterGlasses float64
	Mood         int
	Energy       int
}

// HeatmapCell is one day of the activity heatmap.
type HeatmapCell struct {
	Date  model.Date
	Score int
	Level int
}

// ReportService builds dashboards, monthly reports and human-readable summaries.
type ReportService struct {
	store     Store
	threshold int
	now       func() time.Time
}

func NewReportService(store Store, threshold int, clock func() time.Time) *ReportService {
	if clock == nil {
		clock = time.Now
	}
	return &ReportService{store: store, threshold: threshold, now: clock}
}

func (s *ReportService) Dashboard(ctx context.Context) (Dashboard, error) {
	today := model.DateOf(s.now())
	logs, err := s.store.LoadDailyLogs(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load daily logs: %w", err)
	}
	batch, err := s.store.LoadRecoveryTasks(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load recovery tasks: %w", err)
	}
	badges, err := s.store.LoadUnlockedBadges(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load badges: %w", err)
	}

	d := Dashboard{
		Date:           today,
		Today:          model.DailyLog{Date: today},
		Streak:         streak.ComputeAsOf(logs, s.threshold, today),
		Recovery:       batch,
		UnlockedBadges: len(badges),
	}
	for _, l := range logs {
		if l.Date == today {
			d.Today = l
			d.Scored = true
		}
	}
	return d, nil
}

// Monthly reports on the calendar month containing month. Weeks start on Monday
// and are clipped to the month.
func (s *ReportService) Monthly(ctx context.Context, month time.Time) (MonthReport, error) {
	cfg := &now.Config{WeekStartDay: time.Monday}
	start := model.DateOf(cfg.With(month).BeginningOfMonth())
	end := model.DateOf(cfg.With(month).EndOfMonth())

	tasks, err := s.store.LoadTasks(ctx)
	if err != nil {
		return MonthReport{}, fmt.Errorf("load tasks: %w", err)
	}
	logs, err := s.store.DailyLogsBetween(ctx, start, end)
	if err != nil {
		return MonthReport{}, fmt.Errorf("load daily logs: %w", err)
	}

	report := MonthReport{Start: start, End: end}
	for _, t := range tasks {
		if t.Date.Before(start) || t.Date.After(end) {
			continue
		}
		report.TotalTasks++
		if t.Completed {
			report.CompletedTasks++
		}
	}

	inMonth := streak.Normalize(logs)
	for _, l := range inMonth {
		if report.BestDay == nil || l.Score > report.BestDay.Score {
			best := l
			report.BestDay = &best
		}
	}
	report.LoggedDays, report.AverageScore, report.ProductiveDays = s.aggregate(inMonth, start, end)

	weekStart := model.DateOf(cfg.With(start.Time()).BeginningOfWeek())
	for ; !weekStart.After(end); weekStart = weekStart.AddDays(7) {
		ws := WeekStat{Start: maxDate(weekStart, start), End: minDate(weekStart.AddDays(6), end)}
		ws.LoggedDays, ws.AverageScore, ws.ProductiveDays = s.aggregate(inMonth, ws.Start, ws.End)
		report.Weeks = append(report.Weeks, ws)
	}

	entries, err := s.store.LoadJournalEntries(ctx)
	if err != nil {
		return MonthReport{}, fmt.Errorf("load journal entries: %w", err)
	}
	report.Habits = averageHabits(entries, start, end)

	goals, err := s.store.LoadGoals(ctx)
	if err != nil {
		return MonthReport{}, fmt.Errorf("load goals: %w", err)
	}
	for _, g := range goals {
		if g.Overlaps(start, end) {
			report.Goals = append(report.Goals, g)
		}
	}
	return report, nil
}

func averageHabits(entries []model.JournalEntry, from, to model.Date) HabitAverages {
	var (
		avg                  HabitAverages
		screen, sleep, water float64
		mood, energy         int
	)
	for _, e := range entries {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		avg.Entries++
		screen += e.ScreenTime
		sleep += e.SleepHours
		water += float64(e.WaterGlasses)
		mood += e.Mood
		energy += e.Energy
	}
	if avg.Entries == 0 {
		return avg
	}
	n := float64(avg.Entries)
	avg.ScreenTime = screen / n
	avg.SleepHours = sleep / n
	avg.WaterGlasses = water / n
	avg.Mood = int(math.Round(float64(mood) / n))
	avg.Energy = int(math.Round(float64(energy) / n))
	return avg
}

func (s *ReportService) aggregate(logs []model.DailyLog, from, to model.Date) (logged, average, productive int) {
	sum := 0
	for _, l := range logs {
		if l.Date.Before(from) || l.Date.After(to) {
			continue
		}
		logged++
		sum += l.Score
		if l.Productive(s.threshold) {
			productive++
		}
	}
	if logged > 0 {
		average = (2*sum + logged) / (2 * logged)
	}
	return logged, average, productive
}

// Heatmap returns one cell per day in [from, to]. Days without a log are level 0.
func (s *ReportService) Heatmap(ctx context.Context, from, to model.Date) ([]HeatmapCell, error) {
	if !from.Valid() || !to.Valid() {
		return nil, fmt.Errorf("%w: heatmap range %q..%q", model.ErrInvalidDate, from, to)
	}
	if from.After(to) {
		return nil, fmt.Errorf("%w: heatmap range %s..%s is reversed", model.ErrInvalidDate, from, to)
	}
	logs, err := s.store.DailyLogsBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load daily logs: %w", err)
	}
	scores := make(map[model.Date]int, len(logs))
	for _, l := range logs {
		scores[l.Date] = l.Score
	}

	cells := make([]HeatmapCell, 0, model.DaysBetween(from, to)+1)
	for day := from; !day.After(to); day = day.AddDays(1) {
		score := scores[day]
		cells = append(cells, HeatmapCell{Date: day, Score: score, Level: scoring.Level(score)})
	}
	return cells, nil
}

// DailySummary builds the plain-text report the scheduler logs and the CLI prints.
func (s *ReportService) DailySummary(ctx context.Context) (string, error) {
	current := s.now()
	dash, err := s.Dashboard(ctx)
	if err != nil {
		return "", err
	}
	tasks, err := s.store.LoadTasks(ctx)
	if err != nil {
		return "", fmt.Errorf("load tasks: %w", err)
	}
	agenda := BuildAgenda(append(tasks, dash.Recovery...), current)

	var builder strings.Builder
	builder.WriteString("Daily report\n")
	builder.WriteString(fmt.Sprintf("%s\n\n", current.Format("Mon 02.01.2006")))

	if dash.Scored {
		builder.WriteString(fmt.Sprintf("Score: %d (%d/%d tasks)\n", dash.Today.Score, dash.Today.TasksCompleted, dash.Today.TotalTasks))
	} else {
		builder.WriteString("Score: not scored yet\n")
	}
	builder.WriteString(fmt.Sprintf("Streak: %d days (best %d)\n", dash.Streak.CurrentStreak, dash.Streak.LongestStreak))
	builder.WriteString(fmt.Sprintf("Badges: %d unlocked\n", dash.UnlockedBadges))

	writeSection(&builder, "Today", agenda.Active, "no open tasks")
	writeSection(&builder, "Overdue", agenda.Overdue, "nothing overdue")
	if len(dash.Recovery) > 0 {
		writeSection(&builder, "Recovery", dash.Recovery, "")
	}

	return strings.TrimSpace(builder.String()), nil
}

// Insights runs the coaching heuristics over the full history.
func (s *ReportService) Insights(ctx context.Context, weights *scoring.WeightTable) ([]insight.Insight, error) {
	tasks, err := s.store.LoadTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	logs, err := s.store.LoadDailyLogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load daily logs: %w", err)
	}
	return insight.Generate(insight.Input{Tasks: tasks, Logs: logs, Weights: weights, Now: s.now()}), nil
}

func writeSection(builder *strings.Builder, title string, tasks []model.Task, empty string) {
	builder.WriteString(fmt.Sprintf("\n%s\n", title))
	if len(tasks) == 0 {
		builder.WriteString(fmt.Sprintf("- %s\n", empty))
		return
	}
	for _, task := range tasks {
		builder.WriteString(formatTask(task))
	}
}

func formatTask(task model.Task) string {
	var sb strings.Builder

	mark := "[ ]"
	if task.Completed {
		mark = "[x]"
	}
	sb.WriteString(fmt.Sprintf("%s %s", mark, strings.TrimSpace(task.Title)))

	if category := strings.TrimSpace(task.Category); category != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", category))
	}
	if task.Priority == model.PriorityHigh {
		sb.WriteString(" !")
	}
	if task.Kind() == model.KindRecurring {
		sb.WriteString(fmt.Sprintf(" every %s", task.RecurrenceDays))
	}
	sb.WriteString(fmt.Sprintf(" · %s", task.Date))

	sb.WriteByte('\n')
	return sb.String()
}

func maxDate(a, b model.Date) model.Date {
	if a.After(b) {
		return a
	}
	return b
}

func minDate(a, b model.Date) model.Date {
	if a.Before(b) {
		return a
	}
	return b
}

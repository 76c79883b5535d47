package service_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentum-tracker/internal/badge"
	"momentum-tracker/internal/jsonstore"
	"momentum-tracker/internal/model"
	"momentum-tracker/internal/recovery"
	"momentum-tracker/internal/repository"
	"momentum-tracker/internal/scoring"
	"momentum-tracker/internal/service"
)

// Monday 2024-06-10, 09:00 UTC.
var monday = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

type backend struct {
	name string
	open func(t *testing.T) service.Store
}

var backends = []backend{
	{name: "json", open: func(t *testing.T) service.Store {
		return jsonstore.New(filepath.Join(t.TempDir(), "momentum.json"), zerolog.Nop())
	}},
	{name: "sqlite", open: func(t *testing.T) service.Store {
		db, err := repository.NewDB(filepath.Join(t.TempDir(), "momentum.db"), zerolog.Nop())
		require.NoError(t, err)
		t.Cleanup(func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
		return repository.NewStore(db)
	}},
}

// eachBackend runs fn once per storage backend with a fresh fixture.
func eachBackend(t *testing.T, fn func(t *testing.T, f *fixture)) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			fn(t, newFixtureOn(t, b.open(t)))
		})
	}
}

type fixture struct {
	store    service.Store
	tasks    *service.TaskService
	reports  *service.ReportService
	cats     *service.CategoryService
	journal  *service.JournalService
	goals    *service.GoalService
	clock    *time.Time
	unlocked []model.Badge
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, backends[0].open(t))
}

func newFixtureOn(t *testing.T, store service.Store) *fixture {
	t.Helper()
	f := &fixture{store: store, clock: new(time.Time)}
	*f.clock = monday
	now := func() time.Time { return *f.clock }

	calc := scoring.NewCalculator(scoring.MustDefault())
	checker := badge.NewChecker(f.store, zerolog.Nop(), badge.WithClock(now),
		badge.WithObserver(func(b model.Badge) { f.unlocked = append(f.unlocked, b) }))

	n := 0
	ids := func() string {
		n++
		return fmt.Sprintf("id-%02d", n)
	}
	rec := recovery.NewManager(f.store, recovery.DefaultThreshold, zerolog.Nop(),
		recovery.WithClock(now), recovery.WithIDs(ids))

	f.tasks = service.NewTaskService(f.store, calc, checker, rec, zerolog.Nop(),
		service.WithClock(now), service.WithIDs(ids))
	f.reports = service.NewReportService(f.store, 70, now)
	f.cats = service.NewCategoryService(f.store, calc)
	f.journal = service.NewJournalService(f.store, now)
	f.goals = service.NewGoalService(f.store, now, ids)
	return f
}

func (f *fixture) log(t *testing.T, day model.Date) model.DailyLog {
	t.Helper()
	logs, err := f.store.LoadDailyLogs(context.Background())
	require.NoError(t, err)
	for _, l := range logs {
		if l.Date == day {
			return l
		}
	}
	t.Fatalf("no log for %s", day)
	return model.DailyLog{}
}

func TestCreateValidatesInput(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()

		_, err := f.tasks.Create(ctx, service.TaskInput{Title: "  "})
		assert.ErrorIs(t, err, service.ErrTitleRequired)

		_, err = f.tasks.Create(ctx, service.TaskInput{Title: "x", Category: "gardening"})
		assert.ErrorIs(t, err, service.ErrUnknownCategory)

		_, err = f.tasks.Create(ctx, service.TaskInput{Title: "x", Date: "2024-13-01"})
		assert.ErrorIs(t, err, model.ErrInvalidDate)

		_, err = f.tasks.Create(ctx, service.TaskInput{Title: "x", Priority: "urgent"})
		assert.Error(t, err)
	})
}

func TestCreateScoresTodayAndUnlocksFirstDay(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()

		res, err := f.tasks.Create(ctx, service.TaskInput{Title: "Standup", Category: "math"})
		require.NoError(t, err)
		assert.Equal(t, "MATH", res.Task.Category)
		assert.Equal(t, model.Date("2024-06-10"), res.Task.Date)
		assert.Equal(t, model.PriorityMedium, res.Task.Priority)
		require.NotNil(t, res.Log)
		assert.Equal(t, 0, res.Log.Score)
		assert.Equal(t, 1, res.Log.TotalTasks)

		require.Len(t, res.Unlocked, 1)
		assert.Equal(t, model.BadgeFirstDay, res.Unlocked[0].Level)
		assert.Len(t, f.unlocked, 1)
	})
}

func TestFutureTaskIsNotScored(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()

		res, err := f.tasks.Create(ctx, service.TaskInput{Title: "Dentist", Date: "2024-06-20"})
		require.NoError(t, err)
		assert.Nil(t, res.Log)

		logs, err := f.store.LoadDailyLogs(ctx)
		require.NoError(t, err)
		assert.Empty(t, logs)
	})
}

func TestSetCompletedRecomputesWeightedScore(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()

		work, err := f.tasks.Create(ctx, service.TaskInput{Title: "Ship", Category: "MATH"})
		require.NoError(t, err)
		_, err = f.tasks.Create(ctx, service.TaskInput{Title: "Sweep", Category: "GYM"})
		require.NoError(t, err)

		res, err := f.tasks.SetCompleted(ctx, work.Task.ID, true)
		require.NoError(t, err)
		require.NotNil(t, res.Task.CompletedAt)

		table := scoring.MustDefault()
		want := scoring.Percent(table.WeightOf("MATH"), table.WeightOf("MATH")+table.WeightOf("GYM"))
		assert.Equal(t, want, res.Log.Score)
		assert.Equal(t, want, f.log(t, "2024-06-10").Score)

		res, err = f.tasks.SetCompleted(ctx, work.Task.ID, false)
		require.NoError(t, err)
		assert.Nil(t, res.Task.CompletedAt)
		assert.Equal(t, 0, f.log(t, "2024-06-10").Score)

		_, err = f.tasks.SetCompleted(ctx, "nope", true)
		assert.ErrorIs(t, err, service.ErrTaskNotFound)
	})
}

func TestCompletingRecurringTaskSchedulesNextWeek(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()

		days := model.NewWeekdays(time.Monday, time.Wednesday)
		created, err := f.tasks.Create(ctx, service.TaskInput{Title: "Gym", Category: "GYM", RecurrenceDays: days})
		require.NoError(t, err)
		assert.Equal(t, model.KindRecurring, created.Task.Kind())

		// an instance already exists on Wednesday
		_, err = f.tasks.Create(ctx, service.TaskInput{Title: "gym", Category: "GYM", Date: "2024-06-12"})
		require.NoError(t, err)

		res, err := f.tasks.SetCompleted(ctx, created.Task.ID, true)
		require.NoError(t, err)
		require.Len(t, res.Scheduled, 1)
		assert.Equal(t, model.Date("2024-06-17"), res.Scheduled[0].Date)
		assert.Equal(t, model.KindOneOff, res.Scheduled[0].Kind())
		assert.False(t, res.Scheduled[0].Completed)

		// toggling again does not duplicate the clones
		_, err = f.tasks.SetCompleted(ctx, created.Task.ID, false)
		require.NoError(t, err)
		res, err = f.tasks.SetCompleted(ctx, created.Task.ID, true)
		require.NoError(t, err)
		assert.Empty(t, res.Scheduled)

		next, err := f.store.TasksByDate(ctx, "2024-06-17")
		require.NoError(t, err)
		assert.Len(t, next, 1)
	})
}

func TestUpdateMovesTaskAndRecomputesBothDays(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()

		created, err := f.tasks.Create(ctx, service.TaskInput{Title: "Read", Category: "STATISTICS", Date: "2024-06-09"})
		require.NoError(t, err)
		_, err = f.tasks.SetCompleted(ctx, created.Task.ID, true)
		require.NoError(t, err)
		assert.Equal(t, 100, f.log(t, "2024-06-09").Score)

		moved := model.Date("2024-06-10")
		title := "Read a chapter"
		res, err := f.tasks.Update(ctx, created.Task.ID, service.TaskUpdate{Date: &moved, Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "Read a chapter", res.Task.Title)
		assert.Equal(t, 100, f.log(t, "2024-06-10").Score)
		assert.Equal(t, 0, f.log(t, "2024-06-09").TotalTasks)

		empty := ""
		_, err = f.tasks.Update(ctx, created.Task.ID, service.TaskUpdate{Title: &empty})
		assert.ErrorIs(t, err, service.ErrTitleRequired)

		bad := "nowhere"
		_, err = f.tasks.Update(ctx, created.Task.ID, service.TaskUpdate{Category: &bad})
		assert.ErrorIs(t, err, service.ErrUnknownCategory)
	})
}

func TestDeleteRecomputesDay(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()

		a, err := f.tasks.Create(ctx, service.TaskInput{Title: "a", Category: "MATH"})
		require.NoError(t, err)
		b, err := f.tasks.Create(ctx, service.TaskInput{Title: "b", Category: "MATH"})
		require.NoError(t, err)
		_, err = f.tasks.SetCompleted(ctx, a.Task.ID, true)
		require.NoError(t, err)
		assert.Equal(t, 50, f.log(t, "2024-06-10").Score)

		_, err = f.tasks.Delete(ctx, b.Task.ID)
		require.NoError(t, err)
		assert.Equal(t, 100, f.log(t, "2024-06-10").Score)

		_, err = f.tasks.Delete(ctx, b.Task.ID)
		assert.ErrorIs(t, err, service.ErrTaskNotFound)
	})
}

func TestRecoveryFlow(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()

		// yesterday was a weak day
		require.NoError(t, f.store.SaveDailyLog(ctx, model.DailyLog{Date: "2024-06-09", Score: 30, TotalTasks: 3, TasksCompleted: 1}))

		res, err := f.tasks.Rollover(ctx)
		require.NoError(t, err)
		require.NotNil(t, res.Log)
		assert.Equal(t, recovery.BatchSize, res.Log.TotalTasks)

		batch, err := f.store.LoadRecoveryTasks(ctx)
		require.NoError(t, err)
		require.Len(t, batch, recovery.BatchSize)

		// second rollover on the same day keeps the batch
		_, err = f.tasks.Rollover(ctx)
		require.NoError(t, err)
		again, err := f.store.LoadRecoveryTasks(ctx)
		require.NoError(t, err)
		assert.Equal(t, batch[0].ID, again[0].ID)

		_, err = f.tasks.Update(ctx, batch[0].ID, service.TaskUpdate{})
		assert.ErrorIs(t, err, service.ErrRecoveryTask)
		_, err = f.tasks.Delete(ctx, batch[0].ID)
		assert.ErrorIs(t, err, service.ErrRecoveryTask)

		got, err := f.tasks.Get(ctx, batch[1].ID)
		require.NoError(t, err)
		assert.True(t, got.IsRecovery)

		for i, task := range batch {
			res, err := f.tasks.SetCompleted(ctx, task.ID, true)
			require.NoError(t, err)
			if i < len(batch)-1 {
				assert.False(t, res.RecoveryCleared)
				assert.Equal(t, scoring.Percent(i+1, len(batch)), res.Log.Score)
			} else {
				assert.True(t, res.RecoveryCleared)
			}
		}

		cleared, err := f.store.LoadRecoveryTasks(ctx)
		require.NoError(t, err)
		assert.Empty(t, cleared)
	})
}

func TestAgendaGroupsTasks(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()

		mustCreate := func(in service.TaskInput) model.Task {
			res, err := f.tasks.Create(ctx, in)
			require.NoError(t, err)
			return res.Task
		}
		today := mustCreate(service.TaskInput{Title: "today", Priority: "low"})
		urgent := mustCreate(service.TaskInput{Title: "urgent", Priority: "high"})
		overdue := mustCreate(service.TaskInput{Title: "late", Date: "2024-06-07"})
		later := mustCreate(service.TaskInput{Title: "later", Date: "2024-06-14"})
		recurring := mustCreate(service.TaskInput{Title: "weekly", Date: "2024-06-03", RecurrenceDays: model.NewWeekdays(time.Monday)})
		mustCreate(service.TaskInput{Title: "not today", Date: "2024-06-04", RecurrenceDays: model.NewWeekdays(time.Tuesday)})
		done := mustCreate(service.TaskInput{Title: "done"})
		_, err := f.tasks.SetCompleted(ctx, done.ID, true)
		require.NoError(t, err)

		agenda, err := f.tasks.Agenda(ctx)
		require.NoError(t, err)
		ids := func(tasks []model.Task) []string {
			out := make([]string, 0, len(tasks))
			for _, t := range tasks {
				out = append(out, t.ID)
			}
			return out
		}
		assert.Equal(t, []string{urgent.ID, recurring.ID, today.ID}, ids(agenda.Active))
		assert.Equal(t, []string{overdue.ID}, ids(agenda.Overdue))
		assert.Equal(t, []string{later.ID}, ids(agenda.Scheduled))
		assert.Equal(t, []string{done.ID}, ids(agenda.Completed))
		assert.Equal(t, 6, agenda.Len())
	})
}

func TestCategoryStats(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()

		a, err := f.tasks.Create(ctx, service.TaskInput{Title: "a", Category: "MATH"})
		require.NoError(t, err)
		_, err = f.tasks.Create(ctx, service.TaskInput{Title: "b", Category: "MATH", Date: "2024-06-09"})
		require.NoError(t, err)
		_, err = f.tasks.SetCompleted(ctx, a.Task.ID, true)
		require.NoError(t, err)

		all, err := f.cats.Stats(ctx, "")
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, 2, all[0].TotalTasks)
		assert.Equal(t, 50, all[0].CompletionPercentage)

		day, err := f.cats.Stats(ctx, "2024-06-10")
		require.NoError(t, err)
		require.Len(t, day, 1)
		assert.Equal(t, 100, day[0].CompletionPercentage)

		_, err = f.cats.Stats(ctx, "junk")
		assert.ErrorIs(t, err, model.ErrInvalidDate)

		assert.Len(t, f.cats.List(), len(scoring.DefaultWeights()))
	})
}

func TestRecoveryClearsAfterLastTask(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		require.NoError(t, f.store.SaveDailyLog(ctx, model.DailyLog{Date: "2024-06-09", Score: 10, TotalTasks: 2}))
		_, err := f.tasks.Rollover(ctx)
		require.NoError(t, err)

		batch, err := f.store.LoadRecoveryTasks(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, batch)

		// recovery ids never resolve as regular tasks
		_, err = f.store.GetTask(ctx, batch[0].ID)
		assert.ErrorIs(t, err, model.ErrNotFound)

		var last service.Result
		for _, task := range batch {
			last, err = f.tasks.SetCompleted(ctx, task.ID, true)
			require.NoError(t, err)
		}
		assert.True(t, last.RecoveryCleared)

		left, err := f.store.LoadRecoveryTasks(ctx)
		require.NoError(t, err)
		assert.Empty(t, left)
	})
}

func TestRecomputeDayRefusesFutureDays(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		_, err := f.tasks.Create(ctx, service.TaskInput{Title: "Trip", Category: "MATH", Date: "2024-06-20"})
		require.NoError(t, err)

		_, err = f.tasks.RecomputeDay(ctx, "2024-06-20")
		assert.ErrorIs(t, err, service.ErrFutureDay)

		preview, err := f.tasks.ScoreDay(ctx, "2024-06-20")
		require.NoError(t, err)
		assert.Equal(t, 1, preview.TotalTasks)
		assert.Equal(t, 0, preview.Score)

		_, err = f.tasks.ScoreDay(ctx, "2024-02-30")
		assert.ErrorIs(t, err, model.ErrInvalidDate)

		logs, err := f.store.LoadDailyLogs(ctx)
		require.NoError(t, err)
		assert.Empty(t, logs)
	})
}

func TestScoreDayDoesNotStore(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		res, err := f.tasks.Create(ctx, service.TaskInput{Title: "Read", Category: "STATISTICS"})
		require.NoError(t, err)

		// a stale stored score stays until the day is recomputed
		require.NoError(t, f.store.SaveDailyLog(ctx, model.DailyLog{Date: "2024-06-10", Score: 5, TotalTasks: 9}))
		task := res.Task
		task.Completed = true
		require.NoError(t, f.store.UpdateTask(ctx, task))

		log, err := f.tasks.ScoreDay(ctx, "2024-06-10")
		require.NoError(t, err)
		assert.Equal(t, 100, log.Score)
		assert.Equal(t, 5, f.log(t, "2024-06-10").Score)
	})
}

func TestIdleDaysLeaveNoLog(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		res, err := f.tasks.Rollover(ctx)
		require.NoError(t, err)
		require.NotNil(t, res.Log)
		assert.Equal(t, 0, res.Log.TotalTasks)

		log, err := f.tasks.RecomputeDay(ctx, "2024-06-08")
		require.NoError(t, err)
		assert.Equal(t, model.Date("2024-06-08"), log.Date)

		logs, err := f.store.LoadDailyLogs(ctx)
		require.NoError(t, err)
		assert.Empty(t, logs)

		// the next rollover finds no weak day to recover from
		*f.clock = monday.AddDate(0, 0, 1)
		_, err = f.tasks.Rollover(ctx)
		require.NoError(t, err)
		batch, err := f.store.LoadRecoveryTasks(ctx)
		require.NoError(t, err)
		assert.Empty(t, batch)
	})
}

func TestCategoryStatsMatchScoredDay(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		require.NoError(t, f.store.SaveDailyLog(ctx, model.DailyLog{Date: "2024-06-09", Score: 10, TotalTasks: 2}))
		_, err := f.tasks.Rollover(ctx)
		require.NoError(t, err)
		_, err = f.tasks.Create(ctx, service.TaskInput{Title: "a", Category: "MATH"})
		require.NoError(t, err)

		batch, err := f.store.LoadRecoveryTasks(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, batch)
		res, err := f.tasks.SetCompleted(ctx, batch[0].ID, true)
		require.NoError(t, err)

		stats, err := f.cats.Stats(ctx, "2024-06-10")
		require.NoError(t, err)
		var total, completed int
		for _, s := range stats {
			total += s.TotalTasks
			completed += s.CompletedTasks
		}
		assert.Equal(t, res.Log.TotalTasks, total)
		assert.Equal(t, res.Log.TasksCompleted, completed)
		assert.Equal(t, 1+len(batch), total)
	})
}

package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentum-tracker/internal/model"
	"momentum-tracker/internal/repository"
	"momentum-tracker/internal/service"
)

var _ service.Store = (*repository.Store)(nil)

func newStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "data", "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return repository.NewStore(db)
}

func TestTaskCRUD(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	task := model.Task{
		ID:             "t1",
		Title:          "Write report",
		Priority:       model.PriorityHigh,
		Category:       "WORK",
		Date:           "2024-03-04",
		IsRecurring:    true,
		RecurrenceDays: model.NewWeekdays(time.Monday, time.Friday),
	}
	require.NoError(t, store.CreateTask(ctx, task))

	got, err := store.GetTask(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Write report", got.Title)
	assert.Equal(t, model.Date("2024-03-04"), got.Date)
	assert.True(t, got.RecurrenceDays.Has(time.Friday))
	assert.False(t, got.Completed)

	got.Completed = true
	got.Title = "Write weekly report"
	require.NoError(t, store.UpdateTask(ctx, got))

	got, err = store.GetTask(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, "Write weekly report", got.Title)

	got.Completed = false
	require.NoError(t, store.UpdateTask(ctx, got))
	got, err = store.GetTask(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, got.Completed)

	require.NoError(t, store.DeleteTask(ctx, "t1"))
	_, err = store.GetTask(ctx, "t1")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, store.DeleteTask(ctx, "t1"), model.ErrNotFound)
	assert.ErrorIs(t, store.UpdateTask(ctx, model.Task{ID: "missing"}), model.ErrNotFound)
}

func TestTasksByDateExcludesRecovery(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.CreateTask(ctx, model.Task{ID: "a", Title: "a", Date: "2024-03-04"}))
	require.NoError(t, store.CreateTask(ctx, model.Task{ID: "b", Title: "b", Date: "2024-03-05"}))
	require.NoError(t, store.SaveRecoveryTasks(ctx, []model.Task{{ID: "r", Title: "r", Date: "2024-03-04"}}))

	day, err := store.TasksByDate(ctx, "2024-03-04")
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.Equal(t, "a", day[0].ID)

	all, err := store.LoadTasks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
}

func TestRecoveryTasksAreNotRegularTasks(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.SaveRecoveryTasks(ctx, []model.Task{{ID: "r", Title: "r", Date: "2024-03-04"}}))

	_, err := store.GetTask(ctx, "r")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, store.UpdateTask(ctx, model.Task{ID: "r", Title: "hijacked"}), model.ErrNotFound)
	assert.ErrorIs(t, store.DeleteTask(ctx, "r"), model.ErrNotFound)

	batch, err := store.LoadRecoveryTasks(ctx)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "r", batch[0].Title)
	assert.True(t, batch[0].IsRecovery)
}

func TestRecoveryBatchReplaceAndClear(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	batch := []model.Task{
		{ID: "r1", Title: "one", Date: "2024-03-04"},
		{ID: "r2", Title: "two", Date: "2024-03-04"},
	}
	require.NoError(t, store.SaveRecoveryTasks(ctx, batch))

	got, err := store.LoadRecoveryTasks(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "r1", got[0].ID)
	assert.True(t, got[0].IsRecovery)

	batch[0].Completed = true
	require.NoError(t, store.SaveRecoveryTasks(ctx, batch))
	got, err = store.LoadRecoveryTasks(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Completed)

	require.NoError(t, store.ClearRecoveryTasks(ctx))
	got, err = store.LoadRecoveryTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDailyLogUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.SaveDailyLog(ctx, model.DailyLog{Date: "2024-03-05", Score: 40, TasksCompleted: 1, TotalTasks: 3}))
	require.NoError(t, store.SaveDailyLog(ctx, model.DailyLog{Date: "2024-03-04", Score: 90, TasksCompleted: 2, TotalTasks: 2}))
	require.NoError(t, store.SaveDailyLog(ctx, model.DailyLog{Date: "2024-03-05", Score: 75, TasksCompleted: 2, TotalTasks: 3}))

	logs, err := store.LoadDailyLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, model.Date("2024-03-04"), logs[0].Date)
	assert.Equal(t, 75, logs[1].Score)
	assert.Equal(t, 2, logs[1].TasksCompleted)

	between, err := store.DailyLogsBetween(ctx, "2024-03-05", "2024-03-31")
	require.NoError(t, err)
	require.Len(t, between, 1)

	log, err := store.DailyLogByDate(ctx, "2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, 90, log.Score)
	_, err = store.DailyLogByDate(ctx, "2024-01-01")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestJournalEntryUpsert(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := store.JournalEntryByDate(ctx, "2024-03-04")
	assert.ErrorIs(t, err, model.ErrNotFound)

	entry := model.JournalEntry{Date: "2024-03-04", SleepHours: 6.5, WaterGlasses: 5, Mood: 7,
		CustomMetrics: []model.JournalMetric{{Name: "pushups", Value: "40"}}}
	require.NoError(t, store.SaveJournalEntry(ctx, entry))

	entry.Mood = 9
	entry.CustomMetrics = nil
	require.NoError(t, store.SaveJournalEntry(ctx, entry))
	require.NoError(t, store.SaveJournalEntry(ctx, model.JournalEntry{Date: "2024-03-02", Energy: 4}))

	got, err := store.JournalEntryByDate(ctx, "2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, 9, got.Mood)
	assert.Equal(t, 5, got.WaterGlasses)
	assert.InDelta(t, 6.5, got.SleepHours, 0.001)
	assert.Empty(t, got.CustomMetrics)

	all, err := store.LoadJournalEntries(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, model.Date("2024-03-02"), all[0].Date)
}

func TestGoalSaveAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	goal := model.Goal{ID: "g1", Name: "Gym days", Target: 12, Unit: "days", StartDate: "2024-03-01", EndDate: "2024-03-31"}
	require.NoError(t, store.SaveGoal(ctx, goal))
	goal.CurrentValue = 9
	require.NoError(t, store.SaveGoal(ctx, goal))

	got, err := store.GetGoal(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 9, got.CurrentValue)
	assert.Equal(t, model.Date("2024-03-31"), got.EndDate)

	goals, err := store.LoadGoals(ctx)
	require.NoError(t, err)
	assert.Len(t, goals, 1)

	require.NoError(t, store.DeleteGoal(ctx, "g1"))
	assert.ErrorIs(t, store.DeleteGoal(ctx, "g1"), model.ErrNotFound)
	_, err = store.GetGoal(ctx, "g1")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestBadgeUnlockKeepsFirstTimestamp(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	first := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)
	require.NoError(t, store.SaveUnlockedBadge(ctx, model.Badge{Level: model.BadgeWeekStreak, Name: "Week Warrior", Unlocked: true, UnlockedAt: &first}))
	require.NoError(t, store.SaveUnlockedBadge(ctx, model.Badge{Level: model.BadgeFirstDay, Name: "First Step", Unlocked: true, UnlockedAt: &first}))
	require.NoError(t, store.SaveUnlockedBadge(ctx, model.Badge{Level: model.BadgeWeekStreak, Name: "Week Warrior", Unlocked: true, UnlockedAt: &later}))

	badges, err := store.LoadUnlockedBadges(ctx)
	require.NoError(t, err)
	require.Len(t, badges, 2)
	assert.Equal(t, model.BadgeFirstDay, badges[0].Level)
	assert.Equal(t, model.BadgeWeekStreak, badges[1].Level)
	assert.True(t, badges[1].Unlocked)
	assert.True(t, first.Equal(*badges[1].UnlockedAt))

	assert.Error(t, store.SaveUnlockedBadge(ctx, model.Badge{Level: model.BadgeLevel(42)}))
}

func TestNewDBInMemory(t *testing.T) {
	db, err := repository.NewDB("file::memory:?cache=shared", zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, db.Migrator().HasTable(&model.DailyLog{}))
	assert.True(t, db.Migrator().HasTable("badges"))
}

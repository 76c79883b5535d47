package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentum-tracker/internal/model"
	"momentum-tracker/internal/service"
)

func TestJournalSaveMergesIntoDay(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		sleep, mood := 7.5, 6
		entry, err := f.journal.Save(ctx, service.JournalInput{
			SleepHours: &sleep,
			Metrics:    []model.JournalMetric{{Name: "steps", Value: "9000"}},
		})
		require.NoError(t, err)
		assert.Equal(t, model.Date("2024-06-10"), entry.Date)

		entry, err = f.journal.Save(ctx, service.JournalInput{
			Date:    "2024-06-10",
			Mood:    &mood,
			Metrics: []model.JournalMetric{{Name: "Steps", Value: "12000"}, {Name: "reading", Value: "30m"}},
		})
		require.NoError(t, err)
		assert.InDelta(t, 7.5, entry.SleepHours, 0.001)
		assert.Equal(t, 6, entry.Mood)

		got, err := f.journal.Get(ctx, "2024-06-10")
		require.NoError(t, err)
		assert.Equal(t, []model.JournalMetric{{Name: "steps", Value: "12000"}, {Name: "reading", Value: "30m"}}, got.CustomMetrics)
		assert.InDelta(t, 7.5, got.SleepHours, 0.001)

		entries, err := f.journal.List(ctx)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestJournalRejectsInvalidEntries(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		tooMuch, badMood := 25.0, 11

		_, err := f.journal.Save(ctx, service.JournalInput{SleepHours: &tooMuch})
		assert.ErrorIs(t, err, model.ErrInvalidJournal)
		_, err = f.journal.Save(ctx, service.JournalInput{Mood: &badMood})
		assert.ErrorIs(t, err, model.ErrInvalidJournal)
		_, err = f.journal.Save(ctx, service.JournalInput{Date: "2024-06-31"})
		assert.ErrorIs(t, err, model.ErrInvalidDate)

		_, err = f.journal.Get(ctx, "2024-06-10")
		assert.ErrorIs(t, err, service.ErrEntryNotFound)

		entries, err := f.journal.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestGoalLifecycle(t *testing.T) {
	eachBackend(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		goal, err := f.goals.Create(ctx, service.GoalInput{Name: " Read daily ", Target: 20})
		require.NoError(t, err)
		assert.Equal(t, "Read daily", goal.Name)
		assert.Equal(t, model.DefaultGoalUnit, goal.Unit)
		assert.Equal(t, model.DefaultGoalCategory, goal.Category)
		assert.Equal(t, model.Date("2024-06-10"), goal.StartDate)
		assert.Equal(t, model.Date("2024-07-10"), goal.EndDate)

		goal, err = f.goals.SetProgress(ctx, goal.ID, 15)
		require.NoError(t, err)
		assert.Equal(t, 75, goal.Progress())
		assert.Equal(t, model.GoalOnTrack, goal.Status())

		goal, err = f.goals.Advance(ctx, goal.ID, 10)
		require.NoError(t, err)
		assert.Equal(t, 25, goal.CurrentValue)
		assert.Equal(t, 100, goal.Progress())
		assert.Equal(t, model.GoalAchieved, goal.Status())

		goal, err = f.goals.Advance(ctx, goal.ID, -40)
		require.NoError(t, err)
		assert.Equal(t, 0, goal.CurrentValue)

		stored, err := f.goals.Get(ctx, goal.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.CurrentValue)

		_, err = f.goals.SetProgress(ctx, goal.ID, -1)
		assert.ErrorIs(t, err, model.ErrInvalidGoal)

		require.NoError(t, f.goals.Delete(ctx, goal.ID))
		assert.ErrorIs(t, f.goals.Delete(ctx, goal.ID), service.ErrGoalNotFound)
		_, err = f.goals.Advance(ctx, goal.ID, 1)
		assert.ErrorIs(t, err, service.ErrGoalNotFound)

		goals, err := f.goals.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, goals)
	})
}

func TestGoalCreateValidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.goals.Create(ctx, service.GoalInput{Name: "  ", Target: 5})
	assert.ErrorIs(t, err, model.ErrInvalidGoal)
	_, err = f.goals.Create(ctx, service.GoalInput{Name: "x"})
	assert.ErrorIs(t, err, model.ErrInvalidGoal)
	_, err = f.goals.Create(ctx, service.GoalInput{Name: "x", Target: 1, StartDate: "2024-06-10", EndDate: "2024-06-01"})
	assert.ErrorIs(t, err, model.ErrInvalidGoal)
	_, err = f.goals.Create(ctx, service.GoalInput{Name: "x", Target: 1, EndDate: "soon"})
	assert.ErrorIs(t, err, model.ErrInvalidDate)
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJournalEntryValidate(t *testing.T) {
	t.Parallel()

	ok := JournalEntry{Date: "2024-06-10", SleepHours: 8, ScreenTime: 3.5, WaterGlasses: 6, Mood: 7, Energy: 10}
	assert.NoError(t, ok.Validate())

	cases := map[string]JournalEntry{
		"date":   {Date: "06/10/2024"},
		"sleep":  {Date: "2024-06-10", SleepHours: 24.5},
		"screen": {Date: "2024-06-10", ScreenTime: -1},
		"water":  {Date: "2024-06-10", WaterGlasses: -2},
		"mood":   {Date: "2024-06-10", Mood: 11},
		"energy": {Date: "2024-06-10", Energy: -1},
		"metric": {Date: "2024-06-10", CustomMetrics: []JournalMetric{{Name: " ", Value: "1"}}},
	}
	for name, entry := range cases {
		assert.Error(t, entry.Validate(), name)
	}
}

func TestJournalEntrySetMetric(t *testing.T) {
	t.Parallel()

	var e JournalEntry
	e.SetMetric(" Steps ", "9000")
	e.SetMetric("reading", "20m")
	e.SetMetric("STEPS", "12000")
	assert.Equal(t, []JournalMetric{{Name: "Steps", Value: "12000"}, {Name: "reading", Value: "20m"}}, e.CustomMetrics)

	e.SetMetric("steps", "")
	e.SetMetric("unknown", "")
	assert.Equal(t, []JournalMetric{{Name: "reading", Value: "20m"}}, e.CustomMetrics)
}

func TestGoalProgressAndStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		current, target int
		progress        int
		status          GoalStatus
	}{
		{0, 10, 0, GoalNeedsAttention},
		{4, 10, 40, GoalNeedsAttention},
		{1, 2, 50, GoalBehind},
		{2, 3, 67, GoalBehind},
		{3, 4, 75, GoalOnTrack},
		{10, 10, 100, GoalAchieved},
		{15, 10, 100, GoalAchieved},
		{5, 0, 0, GoalNeedsAttention},
	}
	for _, tc := range cases {
		g := Goal{CurrentValue: tc.current, Target: tc.target}
		assert.Equal(t, tc.progress, g.Progress(), "%d/%d", tc.current, tc.target)
		assert.Equal(t, tc.status, g.Status(), "%d/%d", tc.current, tc.target)
	}
}

func TestGoalOverlaps(t *testing.T) {
	t.Parallel()

	g := Goal{StartDate: "2024-06-10", EndDate: "2024-07-10"}
	assert.True(t, g.Overlaps("2024-06-01", "2024-06-30"))
	assert.True(t, g.Overlaps("2024-07-10", "2024-07-31"))
	assert.True(t, g.Overlaps("2024-06-12", "2024-06-12"))
	assert.False(t, g.Overlaps("2024-05-01", "2024-06-09"))
	assert.False(t, g.Overlaps("2024-07-11", "2024-07-31"))
}

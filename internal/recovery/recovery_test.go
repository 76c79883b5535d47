package recovery

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentum-tracker/internal/model"
)

type memStore struct {
	logs  []model.DailyLog
	batch []model.Task
	saves int
}

func (m *memStore) LoadDailyLogs(context.Context) ([]model.DailyLog, error) { return m.logs, nil }

func (m *memStore) LoadRecoveryTasks(context.Context) ([]model.Task, error) {
	return append([]model.Task(nil), m.batch...), nil
}

func (m *memStore) SaveRecoveryTasks(_ context.Context, tasks []model.Task) error {
	m.saves++
	m.batch = append([]model.Task(nil), tasks...)
	return nil
}

func (m *memStore) ClearRecoveryTasks(context.Context) error {
	m.batch = nil
	return nil
}

const today = model.Date("2024-06-10")

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("rec-%d", n)
	}
}

func newManager(store *memStore) *Manager {
	return NewManager(store, DefaultThreshold, zerolog.Nop(),
		WithIDs(sequentialIDs()),
		WithClock(func() time.Time { return time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC) }),
	)
}

func TestNeeded(t *testing.T) {
	t.Parallel()

	yesterday := today.AddDays(-1)
	cases := []struct {
		name string
		logs []model.DailyLog
		want bool
	}{
		{"failed yesterday, today unscored", []model.DailyLog{{Date: yesterday, Score: 40}}, true},
		{"yesterday at threshold", []model.DailyLog{{Date: yesterday, Score: 70}}, false},
		{"today already scored", []model.DailyLog{{Date: yesterday, Score: 40}, {Date: today, Score: 0}}, false},
		{"no record yesterday", []model.DailyLog{{Date: today.AddDays(-2), Score: 10}}, false},
		{"no history", nil, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Needed(tc.logs, today, DefaultThreshold), tc.name)
	}
}

func TestGenerateFixedBatch(t *testing.T) {
	t.Parallel()

	batch := Generate(today, sequentialIDs())
	require.Len(t, batch, BatchSize)

	priorities := map[model.Priority]int{}
	for _, task := range batch {
		priorities[task.Priority]++
		assert.Equal(t, today, task.Date)
		assert.False(t, task.Completed)
		assert.True(t, task.IsRecovery)
		assert.Equal(t, model.KindRecovery, task.Kind())
		assert.NotEmpty(t, task.Title)
	}
	assert.Equal(t, 2, priorities[model.PriorityHigh])
	assert.Equal(t, 2, priorities[model.PriorityMedium])
}

func TestEnsureIsIdempotent(t *testing.T) {
	t.Parallel()

	store := &memStore{logs: []model.DailyLog{{Date: today.AddDays(-1), Score: 40}}}
	m := newManager(store)

	first, created, err := m.Ensure(context.Background(), today)
	require.NoError(t, err)
	assert.True(t, created)
	require.Len(t, first, BatchSize)

	second, created, err := m.Ensure(context.Background(), today)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, second)
	assert.Len(t, store.batch, BatchSize)
	assert.Equal(t, 1, store.saves)
}

func TestEnsureNotNeeded(t *testing.T) {
	t.Parallel()

	store := &memStore{logs: []model.DailyLog{{Date: today.AddDays(-1), Score: 90}}}
	batch, created, err := newManager(store).Ensure(context.Background(), today)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Empty(t, batch)
	assert.Zero(t, store.saves)
}

func TestBatchClearedOnlyWhenAllComplete(t *testing.T) {
	t.Parallel()

	store := &memStore{logs: []model.DailyLog{{Date: today.AddDays(-1), Score: 10}}}
	m := newManager(store)
	batch, _, err := m.Ensure(context.Background(), today)
	require.NoError(t, err)

	for i, task := range batch[:BatchSize-1] {
		updated, cleared, err := m.SetCompleted(context.Background(), task.ID, true)
		require.NoError(t, err)
		assert.False(t, cleared, "task %d", i)
		assert.True(t, updated.Completed)
		assert.NotNil(t, updated.CompletedAt)
	}
	assert.Len(t, store.batch, BatchSize)

	// undo and redo one task keeps the batch
	_, cleared, err := m.SetCompleted(context.Background(), batch[0].ID, false)
	require.NoError(t, err)
	assert.False(t, cleared)
	_, _, err = m.SetCompleted(context.Background(), batch[0].ID, true)
	require.NoError(t, err)

	_, cleared, err = m.SetCompleted(context.Background(), batch[BatchSize-1].ID, true)
	require.NoError(t, err)
	assert.True(t, cleared)
	assert.Empty(t, store.batch)
}

func TestSetCompletedUnknownID(t *testing.T) {
	t.Parallel()

	_, _, err := newManager(&memStore{}).SetCompleted(context.Background(), "nope", true)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

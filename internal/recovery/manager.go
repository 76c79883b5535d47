package recovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"momentum-tracker/internal/model"
)

// ErrTaskNotFound is returned when an id is not part of the stored batch.
var ErrTaskNotFound = errors.New("recovery task not found")

// Store is the slice of the storage collaborator recovery needs.
type Store interface {
	LoadDailyLogs(ctx context.Context) ([]model.DailyLog, error)
	LoadRecoveryTasks(ctx context.Context) ([]model.Task, error)
	SaveRecoveryTasks(ctx context.Context, tasks []model.Task) error
	ClearRecoveryTasks(ctx context.Context) error
}

// Manager owns the lifecycle of the stored batch: at most one batch exists per
// broken-streak episode and it is cleared as a whole once every task is done.
type Manager struct {
	store     Store
	threshold int
	logger    zerolog.Logger
	newID     func() string
	now       func() time.Time
}

type Option func(*Manager)

func WithIDs(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(store Store, threshold int, logger zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		threshold: threshold,
		logger:    logger,
		newID:     uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Batch returns the stored recovery tasks.
func (m *Manager) Batch(ctx context.Context) ([]model.Task, error) {
	batch, err := m.store.LoadRecoveryTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load recovery tasks: %w", err)
	}
	return batch, nil
}

// Ensure returns the active batch. A non-empty stored batch is returned untouched;
// otherwise a new one is generated and saved only when Needed holds for today.
func (m *Manager) Ensure(ctx context.Context, today model.Date) ([]model.Task, bool, error) {
	batch, err := m.Batch(ctx)
	if err != nil {
		return nil, false, err
	}
	if len(batch) > 0 {
		return batch, false, nil
	}

	logs, err := m.store.LoadDailyLogs(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("load daily logs: %w", err)
	}
	if !Needed(logs, today, m.threshold) {
		return nil, false, nil
	}

	batch = Generate(today, m.newID)
	now := m.now()
	for i := range batch {
		batch[i].CreatedAt = now
		batch[i].UpdatedAt = now
	}
	if err := m.store.SaveRecoveryTasks(ctx, batch); err != nil {
		return nil, false, fmt.Errorf("save recovery tasks: %w", err)
	}
	m.logger.Info().Str("date", today.String()).Int("tasks", len(batch)).Msg("recovery batch generated")
	return batch, true, nil
}

// SetCompleted updates one task of the batch. When every task of the batch is
// complete afterwards the whole batch is cleared and cleared is true.
func (m *Manager) SetCompleted(ctx context.Context, id string, completed bool) (model.Task, bool, error) {
	batch, err := m.Batch(ctx)
	if err != nil {
		return model.Task{}, false, err
	}

	idx := -1
	for i := range batch {
		if batch[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.Task{}, false, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	now := m.now()
	batch[idx].Completed = completed
	batch[idx].UpdatedAt = now
	batch[idx].CompletedAt = nil
	if completed {
		batch[idx].CompletedAt = &now
	}
	task := batch[idx]

	if allCompleted(batch) {
		if err := m.store.ClearRecoveryTasks(ctx); err != nil {
			return task, false, fmt.Errorf("clear recovery tasks: %w", err)
		}
		m.logger.Info().Int("tasks", len(batch)).Msg("recovery batch completed and cleared")
		return task, true, nil
	}

	if err := m.store.SaveRecoveryTasks(ctx, batch); err != nil {
		return task, false, fmt.Errorf("save recovery tasks: %w", err)
	}
	return task, false, nil
}

func allCompleted(batch []model.Task) bool {
	for _, t := range batch {
		if !t.Completed {
			return false
		}
	}
	return len(batch) > 0
}

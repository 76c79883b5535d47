package service

import (
	"context"
	"errors"

	"momentum-tracker/internal/badge"
	"momentum-tracker/internal/model"
	"momentum-tracker/internal/recovery"
)

var (
	ErrTitleRequired   = errors.New("title is required")
	ErrUnknownCategory = errors.New("unknown category")
	ErrTaskNotFound    = errors.New("task not found")
	ErrRecoveryTask    = errors.New("recovery tasks are managed by the recovery batch")
	ErrFutureDay       = errors.New("days after today are not scored")
	ErrEntryNotFound   = errors.New("journal entry not found")
	ErrGoalNotFound    = errors.New("goal not found")
)

// Store is the storage collaborator the services run on. Both the SQLite
// repository and the JSON file store implement it.
type Store interface {
	badge.Store
	recovery.Store
	JournalStore
	GoalStore

	SaveDailyLog(ctx context.Context, log model.DailyLog) error
	DailyLogByDate(ctx context.Context, day model.Date) (model.DailyLog, error)
	DailyLogsBetween(ctx context.Context, from, to model.Date) ([]model.DailyLog, error)

	GetTask(ctx context.Context, id string) (model.Task, error)
	TasksByDate(ctx context.Context, day model.Date) ([]model.Task, error)
	CreateTask(ctx context.Context, task model.Task) error
	UpdateTask(ctx context.Context, task model.Task) error
	DeleteTask(ctx context.Context, id string) error
}

// JournalStore keeps at most one journal entry per day.
type JournalStore interface {
	LoadJournalEntries(ctx context.Context) ([]model.JournalEntry, error)
	JournalEntryByDate(ctx context.Context, day model.Date) (model.JournalEntry, error)
	SaveJournalEntry(ctx context.Context, entry model.JournalEntry) error
}

type GoalStore interface {
	LoadGoals(ctx context.Context) ([]model.Goal, error)
	GetGoal(ctx context.Context, id string) (model.Goal, error)
	SaveGoal(ctx context.Context, goal model.Goal) error
	DeleteGoal(ctx context.Context, id string) error
}

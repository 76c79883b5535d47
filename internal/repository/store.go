package repository

import (
	"context"

	"gorm.io/gorm"

	"momentum-tracker/internal/model"
)

// Store is the SQLite storage collaborator. It composes the table repositories
// behind the load/save operations the engines and services use.
type Store struct {
	Tasks   *TaskRepository
	Logs    *DailyLogRepository
	Badges  *BadgeRepository
	Journal *JournalRepository
	Goals   *GoalRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		Tasks:   NewTaskRepository(db),
		Logs:    NewDailyLogRepository(db),
		Badges:  NewBadgeRepository(db),
		Journal: NewJournalRepository(db),
		Goals:   NewGoalRepository(db),
	}
}

// LoadTasks returns every regular task. Recovery tasks are loaded separately.
func (s *Store) LoadTasks(ctx context.Context) ([]model.Task, error) {
	return s.Tasks.ListRegular(ctx)
}

func (s *Store) TasksByDate(ctx context.Context, day model.Date) ([]model.Task, error) {
	return s.Tasks.ListByDate(ctx, day)
}

func (s *Store) GetTask(ctx context.Context, id string) (model.Task, error) {
	task, err := s.Tasks.FindByID(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	return *task, nil
}

func (s *Store) CreateTask(ctx context.Context, task model.Task) error {
	return s.Tasks.Create(ctx, &task)
}

func (s *Store) UpdateTask(ctx context.Context, task model.Task) error {
	return s.Tasks.Update(ctx, &task)
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return s.Tasks.Delete(ctx, id)
}

func (s *Store) LoadDailyLogs(ctx context.Context) ([]model.DailyLog, error) {
	return s.Logs.List(ctx)
}

func (s *Store) DailyLogsBetween(ctx context.Context, from, to model.Date) ([]model.DailyLog, error) {
	return s.Logs.ListBetween(ctx, from, to)
}

func (s *Store) DailyLogByDate(ctx context.Context, day model.Date) (model.DailyLog, error) {
	log, err := s.Logs.FindByDate(ctx, day)
	if err != nil {
		return model.DailyLog{}, err
	}
	return *log, nil
}

func (s *Store) SaveDailyLog(ctx context.Context, log model.DailyLog) error {
	return s.Logs.Upsert(ctx, &log)
}

func (s *Store) LoadUnlockedBadges(ctx context.Context) ([]model.Badge, error) {
	return s.Badges.ListUnlocked(ctx)
}

func (s *Store) SaveUnlockedBadge(ctx context.Context, b model.Badge) error {
	return s.Badges.SaveUnlocked(ctx, b)
}

func (s *Store) LoadRecoveryTasks(ctx context.Context) ([]model.Task, error) {
	return s.Tasks.ListRecovery(ctx)
}

func (s *Store) SaveRecoveryTasks(ctx context.Context, tasks []model.Task) error {
	return s.Tasks.ReplaceRecovery(ctx, tasks)
}

func (s *Store) ClearRecoveryTasks(ctx context.Context) error {
	return s.Tasks.DeleteRecovery(ctx)
}

func (s *Store) LoadJournalEntries(ctx context.Context) ([]model.JournalEntry, error) {
	return s.Journal.List(ctx)
}

func (s *Store) JournalEntryByDate(ctx context.Context, day model.Date) (model.JournalEntry, error) {
	entry, err := s.Journal.FindByDate(ctx, day)
	if err != nil {
		return model.JournalEntry{}, err
	}
	return *entry, nil
}

func (s *Store) SaveJournalEntry(ctx context.Context, entry model.JournalEntry) error {
	return s.Journal.Upsert(ctx, &entry)
}

func (s *Store) LoadGoals(ctx context.Context) ([]model.Goal, error) {
	return s.Goals.List(ctx)
}

func (s *Store) GetGoal(ctx context.Context, id string) (model.Goal, error) {
	goal, err := s.Goals.FindByID(ctx, id)
	if err != nil {
		return model.Goal{}, err
	}
	return *goal, nil
}

func (s *Store) SaveGoal(ctx context.Context, goal model.Goal) error {
	return s.Goals.Save(ctx, &goal)
}

func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	return s.Goals.Delete(ctx, id)
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"momentum-tracker/internal/model"
)

// TaskRepository handles CRUD for regular and recovery tasks. Both live in one
// table, told apart by is_recovery.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Update writes every column of an existing regular task.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	res := r.db.WithContext(ctx).Model(&model.Task{}).Where("id = ? AND is_recovery = ?", task.ID, false).
		Select("*").Omit("created_at").Updates(task)
	if res.Error != nil {
		return fmt.Errorf("update task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update task %s: %w", task.ID, model.ErrNotFound)
	}
	return nil
}

// FindByID loads a regular task. Recovery tasks are only reachable through ListRecovery.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Where("id = ? AND is_recovery = ?", id, false).First(&task).Error
	switch {
	case err == nil:
		return &task, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	default:
		return nil, fmt.Errorf("find task: %w", err)
	}
}

// ListRegular returns every non-recovery task ordered by date.
func (r *TaskRepository) ListRegular(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("is_recovery = ?", false).
		Order("date ASC, created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) ListByDate(ctx context.Context, day model.Date) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("is_recovery = ? AND date = ?", false, day).
		Order("created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks by date: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND is_recovery = ?", id, false).Delete(&model.Task{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete task %s: %w", id, model.ErrNotFound)
	}
	return nil
}

func (r *TaskRepository) ListRecovery(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("is_recovery = ?", true).
		Order("rowid ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list recovery tasks: %w", err)
	}
	return tasks, nil
}

// ReplaceRecovery swaps the stored recovery batch for tasks in one transaction.
func (r *TaskRepository) ReplaceRecovery(ctx context.Context, tasks []model.Task) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("is_recovery = ?", true).Delete(&model.Task{}).Error; err != nil {
			return fmt.Errorf("clear recovery tasks: %w", err)
		}
		if len(tasks) == 0 {
			return nil
		}
		batch := make([]model.Task, len(tasks))
		for i, t := range tasks {
			t.IsRecovery = true
			batch[i] = t
		}
		if err := tx.Create(&batch).Error; err != nil {
			return fmt.Errorf("create recovery tasks: %w", err)
		}
		return nil
	})
}

func (r *TaskRepository) DeleteRecovery(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Where("is_recovery = ?", true).Delete(&model.Task{}).Error; err != nil {
		return fmt.Errorf("clear recovery tasks: %w", err)
	}
	return nil
}

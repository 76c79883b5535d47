package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"momentum-tracker/internal/model"
)

type GoalRepository struct {
	db *gorm.DB
}

func NewGoalRepository(db *gorm.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

// Save creates the goal or overwrites the stored one with the same id.
func (r *GoalRepository) Save(ctx context.Context, goal *model.Goal) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "target", "current_value", "unit", "category", "start_date", "end_date", "updated_at"}),
	}).Create(goal).Error
	if err != nil {
		return fmt.Errorf("save goal %s: %w", goal.ID, err)
	}
	return nil
}

func (r *GoalRepository) List(ctx context.Context) ([]model.Goal, error) {
	var goals []model.Goal
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&goals).Error; err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

func (r *GoalRepository) FindByID(ctx context.Context, id string) (*model.Goal, error) {
	var goal model.Goal
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&goal).Error
	switch {
	case err == nil:
		return &goal, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("goal %s: %w", id, model.ErrNotFound)
	default:
		return nil, fmt.Errorf("find goal: %w", err)
	}
}

func (r *GoalRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Goal{})
	if res.Error != nil {
		return fmt.Errorf("delete goal: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete goal %s: %w", id, model.ErrNotFound)
	}
	return nil
}

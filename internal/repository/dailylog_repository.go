package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"momentum-tracker/internal/model"
)

// DailyLogRepository stores one score row per calendar day.
type DailyLogRepository struct {
	db *gorm.DB
}

func NewDailyLogRepository(db *gorm.DB) *DailyLogRepository {
	return &DailyLogRepository{db: db}
}

// Upsert inserts the log or replaces the counters of an existing row for the same date.
func (r *DailyLogRepository) Upsert(ctx context.Context, log *model.DailyLog) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "tasks_completed", "total_tasks", "updated_at"}),
	}).Create(log).Error
	if err != nil {
		return fmt.Errorf("upsert daily log %s: %w", log.Date, err)
	}
	return nil
}

func (r *DailyLogRepository) List(ctx context.Context) ([]model.DailyLog, error) {
	var logs []model.DailyLog
	if err := r.db.WithContext(ctx).Order("date ASC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list daily logs: %w", err)
	}
	return logs, nil
}

// ListBetween returns logs with from <= date <= to.
func (r *DailyLogRepository) ListBetween(ctx context.Context, from, to model.Date) ([]model.DailyLog, error) {
	var logs []model.DailyLog
	if err := r.db.WithContext(ctx).Where("date >= ? AND date <= ?", from, to).
		Order("date ASC").
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list daily logs: %w", err)
	}
	return logs, nil
}

func (r *DailyLogRepository) FindByDate(ctx context.Context, day model.Date) (*model.DailyLog, error) {
	var log model.DailyLog
	err := r.db.WithContext(ctx).Where("date = ?", day).First(&log).Error
	switch {
	case err == nil:
		return &log, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("daily log %s: %w", day, model.ErrNotFound)
	default:
		return nil, fmt.Errorf("find daily log: %w", err)
	}
}

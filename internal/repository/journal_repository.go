package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"momentum-tracker/internal/model"
)

// JournalRepository stores one habit journal entry per day.
type JournalRepository struct {
	db *gorm.DB
}

func NewJournalRepository(db *gorm.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

// Upsert replaces every recorded field of the entry for its date.
func (r *JournalRepository) Upsert(ctx context.Context, entry *model.JournalEntry) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"screen_time", "sleep_hours", "water_glasses", "mood", "energy", "custom_metrics", "updated_at",
		}),
	}).Create(entry).Error
	if err != nil {
		return fmt.Errorf("upsert journal entry %s: %w", entry.Date, err)
	}
	return nil
}

func (r *JournalRepository) List(ctx context.Context) ([]model.JournalEntry, error) {
	var entries []model.JournalEntry
	if err := r.db.WithContext(ctx).Order("date ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	return entries, nil
}

func (r *JournalRepository) FindByDate(ctx context.Context, day model.Date) (*model.JournalEntry, error) {
	var entry model.JournalEntry
	err := r.db.WithContext(ctx).Where("date = ?", day).First(&entry).Error
	switch {
	case err == nil:
		return &entry, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("journal entry %s: %w", day, model.ErrNotFound)
	default:
		return nil, fmt.Errorf("find journal entry: %w", err)
	}
}

package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"momentum-tracker/internal/model"
)

// badgeRecord is the persisted unlock of one level, keyed by "levelN".
type badgeRecord struct {
	LevelKey    string `gorm:"primaryKey"`
	Level       int    `gorm:"uniqueIndex"`
	Name        string
	Description string
	UnlockedAt  time.Time
}

func (badgeRecord) TableName() string { return "badges" }

// BadgeRepository keeps the unlocked badges. Locked badges are never stored.
type BadgeRepository struct {
	db *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

func (r *BadgeRepository) ListUnlocked(ctx context.Context) ([]model.Badge, error) {
	var records []badgeRecord
	if err := r.db.WithContext(ctx).Order("level ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	badges := make([]model.Badge, 0, len(records))
	for _, rec := range records {
		unlockedAt := rec.UnlockedAt
		badges = append(badges, model.Badge{
			Level:       model.BadgeLevel(rec.Level),
			Name:        rec.Name,
			Description: rec.Description,
			Unlocked:    true,
			UnlockedAt:  &unlockedAt,
		})
	}
	return badges, nil
}

// SaveUnlocked stores the unlock. The first unlock time of a level is kept.
func (r *BadgeRepository) SaveUnlocked(ctx context.Context, b model.Badge) error {
	if !b.Level.Valid() {
		return fmt.Errorf("save badge: unknown level %d", b.Level)
	}
	rec := badgeRecord{
		LevelKey:    b.Level.Key(),
		Level:       int(b.Level),
		Name:        b.Name,
		Description: b.Description,
		UnlockedAt:  time.Now(),
	}
	if b.UnlockedAt != nil {
		rec.UnlockedAt = *b.UnlockedAt
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "level_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save badge %s: %w", rec.LevelKey, err)
	}
	return nil
}

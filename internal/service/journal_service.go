package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"momentum-tracker/internal/model"
)

// JournalInput carries the habits to record for a day; nil fields keep the stored value.
type JournalInput struct {
	Date         model.Date // empty means today
	ScreenTime   *float64
	SleepHours   *float64
	WaterGlasses *int
	Mood         *int
	Energy       *int
	Metrics      []model.JournalMetric // an empty value removes the metric
}

// JournalService keeps one habit entry per day.
type JournalService struct {
	store JournalStore
	now   func() time.Time
}

func NewJournalService(store JournalStore, clock func() time.Time) *JournalService {
	if clock == nil {
		clock = time.Now
	}
	return &JournalService{store: store, now: clock}
}

// Save merges input into the entry of its day, creating the entry when missing.
func (s *JournalService) Save(ctx context.Context, input JournalInput) (model.JournalEntry, error) {
	day := input.Date
	if day == "" {
		day = model.DateOf(s.now())
	} else if !day.Valid() {
		return model.JournalEntry{}, fmt.Errorf("%w %q", model.ErrInvalidDate, day)
	}

	now := s.now()
	entry, err := s.store.JournalEntryByDate(ctx, day)
	switch {
	case errors.Is(err, model.ErrNotFound):
		entry = model.JournalEntry{Date: day, CreatedAt: now}
	case err != nil:
		return model.JournalEntry{}, fmt.Errorf("find journal entry: %w", err)
	}

	if input.ScreenTime != nil {
		entry.ScreenTime = *input.ScreenTime
	}
	if input.SleepHours != nil {
		entry.SleepHours = *input.SleepHours
	}
	if input.WaterGlasses != nil {
		entry.WaterGlasses = *input.WaterGlasses
	}
	if input.Mood != nil {
		entry.Mood = *input.Mood
	}
	if input.Energy != nil {
		entry.Energy = *input.Energy
	}
	for _, m := range input.Metrics {
		entry.SetMetric(m.Name, m.Value)
	}
	entry.UpdatedAt = now

	if err := entry.Validate(); err != nil {
		return model.JournalEntry{}, err
	}
	if err := s.store.SaveJournalEntry(ctx, entry); err != nil {
		return model.JournalEntry{}, fmt.Errorf("save journal entry: %w", err)
	}
	return entry, nil
}

func (s *JournalService) Get(ctx context.Context, day model.Date) (model.JournalEntry, error) {
	if !day.Valid() {
		return model.JournalEntry{}, fmt.Errorf("%w %q", model.ErrInvalidDate, day)
	}
	entry, err := s.store.JournalEntryByDate(ctx, day)
	if errors.Is(err, model.ErrNotFound) {
		return model.JournalEntry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, day)
	}
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("find journal entry: %w", err)
	}
	return entry, nil
}

// List returns every entry, oldest first.
func (s *JournalService) List(ctx context.Context) ([]model.JournalEntry, error) {
	entries, err := s.store.LoadJournalEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load journal entries: %w", err)
	}
	return entries, nil
}

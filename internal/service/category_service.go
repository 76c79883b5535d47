package service

import (
	"context"
	"fmt"

	"momentum-tracker/internal/model"
	"momentum-tracker/internal/scoring"
)

// CategoryService provides helpers around categories.
type CategoryService struct {
	store Store
	calc  *scoring.Calculator
}

func NewCategoryService(store Store, calc *scoring.Calculator) *CategoryService {
	return &CategoryService{store: store, calc: calc}
}

// List returns the weight table, heaviest first.
func (s *CategoryService) List() []model.CategoryWeight {
	return s.calc.Table().Categories()
}

// Stats summarizes tasks per category. A valid day restricts the stats to the tasks
// scored on that day, recovery tasks included; an empty day covers every stored task
// and the active recovery batch.
func (s *CategoryService) Stats(ctx context.Context, day model.Date) ([]scoring.CategoryStat, error) {
	if day != "" && !day.Valid() {
		return nil, fmt.Errorf("%w %q", model.ErrInvalidDate, day)
	}
	var (
		tasks []model.Task
		err   error
	)
	if day == "" {
		tasks, err = s.store.LoadTasks(ctx)
	} else {
		tasks, err = s.store.TasksByDate(ctx, day)
	}
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	batch, err := s.store.LoadRecoveryTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load recovery tasks: %w", err)
	}
	for _, t := range batch {
		if day == "" || t.Date == day {
			tasks = append(tasks, t)
		}
	}
	return s.calc.CategoryStats(tasks), nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"momentum-tracker/internal/model"
)

// GoalInput describes a new goal. Empty fields take the model defaults and the
// range starts today.
type GoalInput struct {
	Name      string
	Target    int
	Unit      string
	Category  string
	StartDate model.Date
	EndDate   model.Date
}

// GoalService manages goals whose progress the user advances by hand.
type GoalService struct {
	store GoalStore
	now   func() time.Time
	newID func() string
}

func NewGoalService(store GoalStore, clock func() time.Time, newID func() string) *GoalService {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &GoalService{store: store, now: clock, newID: newID}
}

func (s *GoalService) Create(ctx context.Context, input GoalInput) (model.Goal, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return model.Goal{}, fmt.Errorf("%w: name is required", model.ErrInvalidGoal)
	}
	if input.Target <= 0 {
		return model.Goal{}, fmt.Errorf("%w: target must be positive", model.ErrInvalidGoal)
	}

	start := input.StartDate
	if start == "" {
		start = model.DateOf(s.now())
	} else if !start.Valid() {
		return model.Goal{}, fmt.Errorf("%w %q", model.ErrInvalidDate, start)
	}
	end := input.EndDate
	if end == "" {
		end = start.AddDays(model.DefaultGoalDays)
	} else if !end.Valid() {
		return model.Goal{}, fmt.Errorf("%w %q", model.ErrInvalidDate, end)
	}
	if end.Before(start) {
		return model.Goal{}, fmt.Errorf("%w: ends %s before it starts %s", model.ErrInvalidGoal, end, start)
	}

	now := s.now()
	goal := model.Goal{
		ID:        s.newID(),
		Name:      name,
		Target:    input.Target,
		Unit:      orDefault(input.Unit, model.DefaultGoalUnit),
		Category:  orDefault(input.Category, model.DefaultGoalCategory),
		StartDate: start,
		EndDate:   end,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.SaveGoal(ctx, goal); err != nil {
		return model.Goal{}, fmt.Errorf("save goal: %w", err)
	}
	return goal, nil
}

// SetProgress replaces the current value of a goal.
func (s *GoalService) SetProgress(ctx context.Context, id string, value int) (model.Goal, error) {
	if value < 0 {
		return model.Goal{}, fmt.Errorf("%w: progress %d is negative", model.ErrInvalidGoal, value)
	}
	return s.update(ctx, id, func(g *model.Goal) { g.CurrentValue = value })
}

// Advance adds delta to the current value. The value never drops below zero.
func (s *GoalService) Advance(ctx context.Context, id string, delta int) (model.Goal, error) {
	return s.update(ctx, id, func(g *model.Goal) {
		g.CurrentValue = max(0, g.CurrentValue+delta)
	})
}

func (s *GoalService) update(ctx context.Context, id string, apply func(*model.Goal)) (model.Goal, error) {
	goal, err := s.Get(ctx, id)
	if err != nil {
		return model.Goal{}, err
	}
	apply(&goal)
	goal.UpdatedAt = s.now()
	if err := s.store.SaveGoal(ctx, goal); err != nil {
		return model.Goal{}, fmt.Errorf("save goal: %w", err)
	}
	return goal, nil
}

func (s *GoalService) Get(ctx context.Context, id string) (model.Goal, error) {
	goal, err := s.store.GetGoal(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.Goal{}, fmt.Errorf("%w: %s", ErrGoalNotFound, id)
	}
	if err != nil {
		return model.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return goal, nil
}

func (s *GoalService) Delete(ctx context.Context, id string) error {
	err := s.store.DeleteGoal(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrGoalNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}

func (s *GoalService) List(ctx context.Context) ([]model.Goal, error) {
	goals, err := s.store.LoadGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}
	return goals, nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

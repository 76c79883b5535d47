package badge

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"momentum-tracker/internal/model"
)

// Store is the slice of the storage collaborator the checker needs.
type Store interface {
	LoadTasks(ctx context.Context) ([]model.Task, error)
	LoadDailyLogs(ctx context.Context) ([]model.DailyLog, error)
	LoadUnlockedBadges(ctx context.Context) ([]model.Badge, error)
	SaveUnlockedBadge(ctx context.Context, b model.Badge) error
}

// Observer is notified once per badge the moment it is persisted as unlocked.
type Observer func(model.Badge)

// Checker runs Evaluate against stored history and persists new unlocks.
type Checker struct {
	store     Store
	logger    zerolog.Logger
	now       func() time.Time
	observers []Observer
}

type Option func(*Checker)

func WithClock(now func() time.Time) Option {
	return func(c *Checker) { c.now = now }
}

func WithObserver(fn Observer) Option {
	return func(c *Checker) { c.Subscribe(fn) }
}

func NewChecker(store Store, logger zerolog.Logger, opts ...Option) *Checker {
	c := &Checker{store: store, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers an observer for future unlocks.
func (c *Checker) Subscribe(fn Observer) {
	if fn != nil {
		c.observers = append(c.observers, fn)
	}
}

// CheckAll evaluates every locked badge in level order, persists each newly earned
// one and notifies observers. It returns only the badges unlocked by this call.
func (c *Checker) CheckAll(ctx context.Context) ([]model.Badge, error) {
	in, unlocked, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	res := Evaluate(in, unlocked, c.now())
	newly := make([]model.Badge, 0, len(res.NewlyUnlocked))
	for _, b := range res.NewlyUnlocked {
		if err := c.store.SaveUnlockedBadge(ctx, b); err != nil {
			return newly, fmt.Errorf("save badge %s: %w", b.Level.Key(), err)
		}
		c.logger.Info().Int("level", int(b.Level)).Str("badge", b.Name).Msg("badge unlocked")
		newly = append(newly, b)
		for _, fn := range c.observers {
			fn(b)
		}
	}
	return newly, nil
}

// All returns the catalog with unlock state from storage and progress for locked
// badges. It does not persist anything.
func (c *Checker) All(ctx context.Context) ([]model.Badge, error) {
	in, unlocked, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	res := Evaluate(in, unlocked, c.now())
	for _, b := range res.NewlyUnlocked {
		// earned but not persisted until the next CheckAll
		locked := catalog[b.Level].Badge()
		locked.Progress = 100
		res.Badges[b.Level] = locked
	}
	return res.Badges, nil
}

func (c *Checker) load(ctx context.Context) (Input, []model.Badge, error) {
	tasks, err := c.store.LoadTasks(ctx)
	if err != nil {
		return Input{}, nil, fmt.Errorf("load tasks: %w", err)
	}
	logs, err := c.store.LoadDailyLogs(ctx)
	if err != nil {
		return Input{}, nil, fmt.Errorf("load daily logs: %w", err)
	}
	unlocked, err := c.store.LoadUnlockedBadges(ctx)
	if err != nil {
		return Input{}, nil, fmt.Errorf("load badges: %w", err)
	}
	return Input{Tasks: tasks, Logs: logs}, unlocked, nil
}

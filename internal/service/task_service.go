package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"momentum-tracker/internal/badge"
	"momentum-tracker/internal/model"
	"momentum-tracker/internal/recovery"
	"momentum-tracker/internal/scoring"
)

// RecurrenceWindow is how many days ahead a completed recurring task is cloned.
const RecurrenceWindow = 7

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title          string
	Description    string
	Category       string
	Priority       string
	Date           model.Date // empty means today
	RecurrenceDays model.Weekdays
}

// TaskUpdate carries the fields to change; nil fields are kept.
type TaskUpdate struct {
	Title          *string
	Description    *string
	Category       *string
	Priority       *string
	Date           *model.Date
	RecurrenceDays *model.Weekdays
}

// Result describes the effects of one task mutation.
type Result struct {
	Task            model.Task
	Log             *model.DailyLog // recomputed log of the task's day, nil for future days
	Scheduled       []model.Task    // clones created for a completed recurring task
	RecoveryCleared bool
	Unlocked        []model.Badge
}

// TaskService wraps task-related business logic. Every mutation recomputes the
// affected day and runs the badge check.
type TaskService struct {
	store    Store
	calc     *scoring.Calculator
	badges   *badge.Checker
	recovery *recovery.Manager
	logger   zerolog.Logger
	now      func() time.Time
	newID    func() string
}

type Option func(*TaskService)

func WithClock(now func() time.Time) Option {
	return func(s *TaskService) { s.now = now }
}

func WithIDs(newID func() string) Option {
	return func(s *TaskService) { s.newID = newID }
}

func NewTaskService(store Store, calc *scoring.Calculator, badges *badge.Checker, rec *recovery.Manager, logger zerolog.Logger, opts ...Option) *TaskService {
	s := &TaskService{
		store:    store,
		calc:     calc,
		badges:   badges,
		recovery: rec,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current calendar day in the service clock's location.
func (s *TaskService) Today() model.Date {
	return model.DateOf(s.now())
}

func (s *TaskService) Create(ctx context.Context, input TaskInput) (Result, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Result{}, ErrTitleRequired
	}
	category, err := s.category(input.Category)
	if err != nil {
		return Result{}, err
	}
	priority, err := model.ParsePriority(input.Priority)
	if err != nil {
		return Result{}, err
	}
	day := input.Date
	if day == "" {
		day = s.Today()
	} else if !day.Valid() {
		return Result{}, fmt.Errorf("%w %q", model.ErrInvalidDate, day)
	}

	now := s.now()
	task := model.Task{
		ID:             s.newID(),
		Title:          title,
		Description:    strings.TrimSpace(input.Description),
		Priority:       priority,
		Category:       category,
		Date:           day,
		IsRecurring:    !input.RecurrenceDays.Empty(),
		RecurrenceDays: input.RecurrenceDays,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return Result{}, fmt.Errorf("create task: %w", err)
	}
	s.logger.Info().Str("id", task.ID).Str("date", day.String()).Str("category", category).Msg("task created")

	return s.settle(ctx, Result{Task: task}, day)
}

// SetCompleted marks a regular or recovery task done or not done. Completing a
// recurring task schedules its next occurrences within RecurrenceWindow days.
func (s *TaskService) SetCompleted(ctx context.Context, id string, completed bool) (Result, error) {
	task, err := s.store.GetTask(ctx, id)
	if errors.Is(err, model.ErrNotFound) || (err == nil && task.IsRecovery) {
		return s.setRecoveryCompleted(ctx, id, completed)
	}
	if err != nil {
		return Result{}, fmt.Errorf("get task: %w", err)
	}

	now := s.now()
	task.Completed = completed
	task.UpdatedAt = now
	task.CompletedAt = nil
	if completed {
		task.CompletedAt = &now
	}
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return Result{}, fmt.Errorf("update task: %w", err)
	}

	res := Result{Task: task}
	if completed && task.Kind() == model.KindRecurring {
		scheduled, err := s.scheduleNext(ctx, task)
		if err != nil {
			return res, err
		}
		res.Scheduled = scheduled
	}
	return s.settle(ctx, res, task.Date)
}

func (s *TaskService) setRecoveryCompleted(ctx context.Context, id string, completed bool) (Result, error) {
	task, cleared, err := s.recovery.SetCompleted(ctx, id, completed)
	if errors.Is(err, recovery.ErrTaskNotFound) {
		return Result{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if err != nil {
		return Result{}, err
	}
	return s.settle(ctx, Result{Task: task, RecoveryCleared: cleared}, task.Date)
}

// scheduleNext persists the upcoming one-off copies of a recurring task, skipping
// days that already hold a task with the same title.
func (s *TaskService) scheduleNext(ctx context.Context, task model.Task) ([]model.Task, error) {
	drafts := model.NextOccurrences(task, s.Today(), RecurrenceWindow)
	created := make([]model.Task, 0, len(drafts))
	for _, draft := range drafts {
		existing, err := s.store.TasksByDate(ctx, draft.Date)
		if err != nil {
			return created, fmt.Errorf("list tasks: %w", err)
		}
		if hasTitle(existing, draft.Title) {
			continue
		}
		now := s.now()
		draft.ID = s.newID()
		draft.CreatedAt = now
		draft.UpdatedAt = now
		if err := s.store.CreateTask(ctx, draft); err != nil {
			return created, fmt.Errorf("create occurrence: %w", err)
		}
		created = append(created, draft)
	}
	if len(created) > 0 {
		s.logger.Info().Str("id", task.ID).Int("occurrences", len(created)).Msg("recurring task scheduled")
	}
	return created, nil
}

func (s *TaskService) Update(ctx context.Context, id string, upd TaskUpdate) (Result, error) {
	task, err := s.get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	oldDate := task.Date

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return Result{}, ErrTitleRequired
		}
		task.Title = title
	}
	if upd.Description != nil {
		task.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.Category != nil {
		category, err := s.category(*upd.Category)
		if err != nil {
			return Result{}, err
		}
		task.Category = category
	}
	if upd.Priority != nil {
		priority, err := model.ParsePriority(*upd.Priority)
		if err != nil {
			return Result{}, err
		}
		task.Priority = priority
	}
	if upd.Date != nil {
		if !upd.Date.Valid() {
			return Result{}, fmt.Errorf("%w %q", model.ErrInvalidDate, *upd.Date)
		}
		task.Date = *upd.Date
	}
	if upd.RecurrenceDays != nil {
		task.RecurrenceDays = *upd.RecurrenceDays
		task.IsRecurring = !task.RecurrenceDays.Empty()
	}
	task.UpdatedAt = s.now()

	if err := s.store.UpdateTask(ctx, task); err != nil {
		return Result{}, fmt.Errorf("update task: %w", err)
	}
	return s.settle(ctx, Result{Task: task}, task.Date, oldDate)
}

// Delete removes a task completely (for both one-off and recurring tasks).
func (s *TaskService) Delete(ctx context.Context, id string) (Result, error) {
	task, err := s.get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return Result{}, fmt.Errorf("delete task: %w", err)
	}
	s.logger.Info().Str("id", id).Msg("task deleted")
	return s.settle(ctx, Result{Task: task}, task.Date)
}

// Get returns a regular task or a task of the active recovery batch.
func (s *TaskService) Get(ctx context.Context, id string) (model.Task, error) {
	task, err := s.store.GetTask(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		batch, berr := s.recovery.Batch(ctx)
		if berr != nil {
			return model.Task{}, berr
		}
		for _, t := range batch {
			if t.ID == id {
				return t, nil
			}
		}
		return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// Agenda returns the day view including the active recovery batch.
func (s *TaskService) Agenda(ctx context.Context) (Agenda, error) {
	tasks, err := s.store.LoadTasks(ctx)
	if err != nil {
		return Agenda{}, fmt.Errorf("load tasks: %w", err)
	}
	batch, err := s.recovery.Batch(ctx)
	if err != nil {
		return Agenda{}, err
	}
	return BuildAgenda(append(tasks, batch...), s.now()), nil
}

// EnsureRecovery creates today's recovery batch when yesterday fell short.
func (s *TaskService) EnsureRecovery(ctx context.Context) ([]model.Task, bool, error) {
	return s.recovery.Ensure(ctx, s.Today())
}

// ScoreDay computes the log of day from its current tasks, including recovery tasks
// dated that day, without storing it.
func (s *TaskService) ScoreDay(ctx context.Context, day model.Date) (model.DailyLog, error) {
	if !day.Valid() {
		return model.DailyLog{}, fmt.Errorf("%w %q", model.ErrInvalidDate, day)
	}
	tasks, err := s.dayTasks(ctx, day)
	if err != nil {
		return model.DailyLog{}, err
	}
	return s.calc.Summarize(day, tasks), nil
}

// RecomputeDay rebuilds and stores the log of day. Days after today are refused.
// A day without tasks is only written when it already has a log, so idle days
// leave no history behind.
func (s *TaskService) RecomputeDay(ctx context.Context, day model.Date) (model.DailyLog, error) {
	if !day.Valid() {
		return model.DailyLog{}, fmt.Errorf("%w %q", model.ErrInvalidDate, day)
	}
	if day.After(s.Today()) {
		return model.DailyLog{}, fmt.Errorf("%w: %s", ErrFutureDay, day)
	}
	tasks, err := s.dayTasks(ctx, day)
	if err != nil {
		return model.DailyLog{}, err
	}
	log := s.calc.Summarize(day, tasks)

	if len(tasks) == 0 {
		_, err := s.store.DailyLogByDate(ctx, day)
		if errors.Is(err, model.ErrNotFound) {
			return log, nil
		}
		if err != nil {
			return model.DailyLog{}, fmt.Errorf("find daily log: %w", err)
		}
	}

	if err := s.store.SaveDailyLog(ctx, log); err != nil {
		return model.DailyLog{}, fmt.Errorf("save daily log: %w", err)
	}
	s.logger.Debug().Str("date", day.String()).Int("score", log.Score).
		Int("completed", log.TasksCompleted).Int("total", log.TotalTasks).Msg("daily log recomputed")
	return log, nil
}

func (s *TaskService) dayTasks(ctx context.Context, day model.Date) ([]model.Task, error) {
	tasks, err := s.store.TasksByDate(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	batch, err := s.recovery.Batch(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range batch {
		if t.Date == day {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

// CheckBadges persists badges earned since the last check.
func (s *TaskService) CheckBadges(ctx context.Context) ([]model.Badge, error) {
	if s.badges == nil {
		return nil, nil
	}
	unlocked, err := s.badges.CheckAll(ctx)
	if err != nil {
		return unlocked, fmt.Errorf("check badges: %w", err)
	}
	return unlocked, nil
}

// settle recomputes the given days up to today and runs the badge check. Days after
// today are not scored until they arrive.
func (s *TaskService) settle(ctx context.Context, res Result, days ...model.Date) (Result, error) {
	today := s.Today()
	seen := make(map[model.Date]bool, len(days))
	for i, day := range days {
		if seen[day] || !day.Valid() || day.After(today) {
			continue
		}
		seen[day] = true
		log, err := s.RecomputeDay(ctx, day)
		if err != nil {
			return res, err
		}
		if i == 0 {
			res.Log = &log
		}
	}

	unlocked, err := s.CheckBadges(ctx)
	res.Unlocked = unlocked
	return res, err
}

// get loads a regular task; recovery ids are reported as ErrRecoveryTask.
func (s *TaskService) get(ctx context.Context, id string) (model.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	if task.IsRecovery {
		return model.Task{}, fmt.Errorf("%w: %s", ErrRecoveryTask, id)
	}
	return task, nil
}

func (s *TaskService) category(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	category := scoring.Normalize(raw)
	if !s.calc.Table().Known(category) {
		return "", fmt.Errorf("%w %q", ErrUnknownCategory, raw)
	}
	return category, nil
}

func hasTitle(tasks []model.Task, title string) bool {
	for _, t := range tasks {
		if strings.EqualFold(strings.TrimSpace(t.Title), strings.TrimSpace(title)) {
			return true
		}
	}
	return false
}

// Rollover runs the start-of-day work: the recovery batch for today, today's log
// and the badge check. It is safe to run more than once per day.
func (s *TaskService) Rollover(ctx context.Context) (Result, error) {
	batch, created, err := s.EnsureRecovery(ctx)
	if err != nil {
		return Result{}, err
	}
	if created {
		s.logger.Info().Int("tasks", len(batch)).Msg("streak broken yesterday, recovery tasks added")
	}
	return s.settle(ctx, Result{}, s.Today())
}

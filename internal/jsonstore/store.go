// Package jsonstore provides a JSON file-based storage collaborator. The file holds
// one JSON blob per collection key, the way a browser key/value store would.
package jsonstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"momentum-tracker/internal/model"
)

// Collection keys inside the store file.
const (
	KeyTasks         = "momentum_tasks"
	KeyDailyLogs     = "momentum_daily_logs"
	KeyBadges        = "momentum_badges"
	KeyRecoveryTasks = "momentum_recovery_tasks"
	KeyJournal       = "momentum_journal_entries"
	KeyGoals         = "momentum_goals"

	// CorruptSuffix names the key or file an unparsable value is moved to before a write.
	CorruptSuffix = ".corrupt"
)

// blobs is the raw file content: collection key to its JSON value.
type blobs map[string]json.RawMessage

// Store keeps tasks, daily logs, unlocked badges, the recovery batch, journal
// entries and goals in a single JSON file. A collection that fails to decode loads
// as empty; the next write moves the broken value aside instead of dropping it.
type Store struct {
	path     string
	lockPath string
	logger   zerolog.Logger
	now      func() time.Time
}

// New creates a Store for the given file path.
// The file does not need to exist; it will be created on first write.
func New(path string, logger zerolog.Logger) *Store {
	return &Store{
		path:     path,
		lockPath: path + ".lock",
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Store) LoadTasks(_ context.Context) ([]model.Task, error) {
	var tasks map[string]model.Task
	if err := s.view(func(b blobs) { tasks = decode[map[string]model.Task](s.logger, b, KeyTasks) }); err != nil {
		return nil, err
	}
	return sortedTasks(tasks), nil
}

func (s *Store) TasksByDate(ctx context.Context, day model.Date) ([]model.Task, error) {
	tasks, err := s.LoadTasks(ctx)
	if err != nil {
		return nil, err
	}
	out := tasks[:0]
	for _, t := range tasks {
		if t.Date == day {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) GetTask(_ context.Context, id string) (model.Task, error) {
	var tasks map[string]model.Task
	if err := s.view(func(b blobs) { tasks = decode[map[string]model.Task](s.logger, b, KeyTasks) }); err != nil {
		return model.Task{}, err
	}
	task, ok := tasks[id]
	if !ok {
		return model.Task{}, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}
	return task, nil
}

func (s *Store) CreateTask(_ context.Context, task model.Task) error {
	return s.updateTasks(func(tasks map[string]model.Task) error {
		if _, exists := tasks[task.ID]; exists {
			return fmt.Errorf("create task: duplicate id %s", task.ID)
		}
		now := s.now()
		if task.CreatedAt.IsZero() {
			task.CreatedAt = now
		}
		task.UpdatedAt = now
		tasks[task.ID] = task
		return nil
	})
}

func (s *Store) UpdateTask(_ context.Context, task model.Task) error {
	return s.updateTasks(func(tasks map[string]model.Task) error {
		old, exists := tasks[task.ID]
		if !exists {
			return fmt.Errorf("update task %s: %w", task.ID, model.ErrNotFound)
		}
		task.CreatedAt = old.CreatedAt
		task.UpdatedAt = s.now()
		tasks[task.ID] = task
		return nil
	})
}

func (s *Store) DeleteTask(_ context.Context, id string) error {
	return s.updateTasks(func(tasks map[string]model.Task) error {
		if _, exists := tasks[id]; !exists {
			return fmt.Errorf("delete task %s: %w", id, model.ErrNotFound)
		}
		delete(tasks, id)
		return nil
	})
}

func (s *Store) LoadDailyLogs(_ context.Context) ([]model.DailyLog, error) {
	var logs map[model.Date]model.DailyLog
	if err := s.view(func(b blobs) { logs = decode[map[model.Date]model.DailyLog](s.logger, b, KeyDailyLogs) }); err != nil {
		return nil, err
	}
	out := make([]model.DailyLog, 0, len(logs))
	for _, l := range logs {
		out = append(out, l)
	}
	slices.SortFunc(out, func(a, b model.DailyLog) int { return strings.Compare(string(a.Date), string(b.Date)) })
	return out, nil
}

func (s *Store) DailyLogByDate(_ context.Context, day model.Date) (model.DailyLog, error) {
	var logs map[model.Date]model.DailyLog
	if err := s.view(func(b blobs) { logs = decode[map[model.Date]model.DailyLog](s.logger, b, KeyDailyLogs) }); err != nil {
		return model.DailyLog{}, err
	}
	log, ok := logs[day]
	if !ok {
		return model.DailyLog{}, fmt.Errorf("daily log %s: %w", day, model.ErrNotFound)
	}
	return log, nil
}

// DailyLogsBetween returns the logs with from <= date <= to in date order.
func (s *Store) DailyLogsBetween(ctx context.Context, from, to model.Date) ([]model.DailyLog, error) {
	logs, err := s.LoadDailyLogs(ctx)
	if err != nil {
		return nil, err
	}
	out := logs[:0]
	for _, l := range logs {
		if !l.Date.Before(from) && !l.Date.After(to) {
			out = append(out, l)
		}
	}
	return out, nil
}

// SaveDailyLog replaces the log stored for log.Date.
func (s *Store) SaveDailyLog(_ context.Context, log model.DailyLog) error {
	return s.update(func(b blobs) error {
		logs := decodeForWrite[map[model.Date]model.DailyLog](s.logger, b, KeyDailyLogs)
		if logs == nil {
			logs = make(map[model.Date]model.DailyLog)
		}
		now := s.now()
		if old, ok := logs[log.Date]; ok {
			log.CreatedAt = old.CreatedAt
		} else if log.CreatedAt.IsZero() {
			log.CreatedAt = now
		}
		log.UpdatedAt = now
		logs[log.Date] = log
		return encode(b, KeyDailyLogs, logs)
	})
}

// LoadUnlockedBadges returns the stored unlocks in level order.
func (s *Store) LoadUnlockedBadges(_ context.Context) ([]model.Badge, error) {
	var badges map[string]model.Badge
	if err := s.view(func(b blobs) { badges = decode[map[string]model.Badge](s.logger, b, KeyBadges) }); err != nil {
		return nil, err
	}
	out := make([]model.Badge, 0, len(badges))
	for _, b := range badges {
		if b.Unlocked && b.Level.Valid() {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b model.Badge) int { return int(a.Level) - int(b.Level) })
	return out, nil
}

// SaveUnlockedBadge stores the unlock under its level key. An existing unlock is kept.
func (s *Store) SaveUnlockedBadge(_ context.Context, badge model.Badge) error {
	if !badge.Level.Valid() {
		return fmt.Errorf("save badge: unknown level %d", badge.Level)
	}
	return s.update(func(b blobs) error {
		badges := decodeForWrite[map[string]model.Badge](s.logger, b, KeyBadges)
		if badges == nil {
			badges = make(map[string]model.Badge)
		}
		if old, ok := badges[badge.Level.Key()]; ok && old.Unlocked {
			return nil
		}
		badge.Unlocked = true
		badge.Progress = 0
		if badge.UnlockedAt == nil {
			now := s.now()
			badge.UnlockedAt = &now
		}
		badges[badge.Level.Key()] = badge
		return encode(b, KeyBadges, badges)
	})
}

func (s *Store) LoadRecoveryTasks(_ context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := s.view(func(b blobs) { tasks = decode[[]model.Task](s.logger, b, KeyRecoveryTasks) }); err != nil {
		return nil, err
	}
	return tasks, nil
}

// SaveRecoveryTasks replaces the stored batch.
func (s *Store) SaveRecoveryTasks(_ context.Context, tasks []model.Task) error {
	batch := make([]model.Task, len(tasks))
	for i, t := range tasks {
		t.IsRecovery = true
		batch[i] = t
	}
	return s.update(func(b blobs) error {
		decodeForWrite[[]model.Task](s.logger, b, KeyRecoveryTasks)
		return encode(b, KeyRecoveryTasks, batch)
	})
}

func (s *Store) ClearRecoveryTasks(_ context.Context) error {
	return s.update(func(b blobs) error {
		delete(b, KeyRecoveryTasks)
		return nil
	})
}

// LoadJournalEntries returns every entry in date order.
func (s *Store) LoadJournalEntries(_ context.Context) ([]model.JournalEntry, error) {
	var entries map[model.Date]model.JournalEntry
	if err := s.view(func(b blobs) { entries = decode[map[model.Date]model.JournalEntry](s.logger, b, KeyJournal) }); err != nil {
		return nil, err
	}
	out := make([]model.JournalEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b model.JournalEntry) int { return strings.Compare(string(a.Date), string(b.Date)) })
	return out, nil
}

func (s *Store) JournalEntryByDate(_ context.Context, day model.Date) (model.JournalEntry, error) {
	var entries map[model.Date]model.JournalEntry
	if err := s.view(func(b blobs) { entries = decode[map[model.Date]model.JournalEntry](s.logger, b, KeyJournal) }); err != nil {
		return model.JournalEntry{}, err
	}
	entry, ok := entries[day]
	if !ok {
		return model.JournalEntry{}, fmt.Errorf("journal entry %s: %w", day, model.ErrNotFound)
	}
	return entry, nil
}

// SaveJournalEntry replaces the entry stored for entry.Date.
func (s *Store) SaveJournalEntry(_ context.Context, entry model.JournalEntry) error {
	return s.update(func(b blobs) error {
		entries := decodeForWrite[map[model.Date]model.JournalEntry](s.logger, b, KeyJournal)
		if entries == nil {
			entries = make(map[model.Date]model.JournalEntry)
		}
		now := s.now()
		if old, ok := entries[entry.Date]; ok {
			entry.CreatedAt = old.CreatedAt
		} else if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		entry.UpdatedAt = now
		entries[entry.Date] = entry
		return encode(b, KeyJournal, entries)
	})
}

// LoadGoals returns the goals in creation order.
func (s *Store) LoadGoals(_ context.Context) ([]model.Goal, error) {
	var goals map[string]model.Goal
	if err := s.view(func(b blobs) { goals = decode[map[string]model.Goal](s.logger, b, KeyGoals) }); err != nil {
		return nil, err
	}
	out := make([]model.Goal, 0, len(goals))
	for _, g := range goals {
		out = append(out, g)
	}
	slices.SortFunc(out, func(a, b model.Goal) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) GetGoal(_ context.Context, id string) (model.Goal, error) {
	var goals map[string]model.Goal
	if err := s.view(func(b blobs) { goals = decode[map[string]model.Goal](s.logger, b, KeyGoals) }); err != nil {
		return model.Goal{}, err
	}
	goal, ok := goals[id]
	if !ok {
		return model.Goal{}, fmt.Errorf("goal %s: %w", id, model.ErrNotFound)
	}
	return goal, nil
}

// SaveGoal creates the goal or replaces the one with the same id.
func (s *Store) SaveGoal(_ context.Context, goal model.Goal) error {
	return s.updateGoals(func(goals map[string]model.Goal) error {
		now := s.now()
		if old, ok := goals[goal.ID]; ok {
			goal.CreatedAt = old.CreatedAt
		} else if goal.CreatedAt.IsZero() {
			goal.CreatedAt = now
		}
		goal.UpdatedAt = now
		goals[goal.ID] = goal
		return nil
	})
}

func (s *Store) DeleteGoal(_ context.Context, id string) error {
	return s.updateGoals(func(goals map[string]model.Goal) error {
		if _, ok := goals[id]; !ok {
			return fmt.Errorf("delete goal %s: %w", id, model.ErrNotFound)
		}
		delete(goals, id)
		return nil
	})
}

func (s *Store) updateGoals(fn func(map[string]model.Goal) error) error {
	return s.update(func(b blobs) error {
		goals := decodeForWrite[map[string]model.Goal](s.logger, b, KeyGoals)
		if goals == nil {
			goals = make(map[string]model.Goal)
		}
		if err := fn(goals); err != nil {
			return err
		}
		return encode(b, KeyGoals, goals)
	})
}

func (s *Store) updateTasks(fn func(map[string]model.Task) error) error {
	return s.update(func(b blobs) error {
		tasks := decodeForWrite[map[string]model.Task](s.logger, b, KeyTasks)
		if tasks == nil {
			tasks = make(map[string]model.Task)
		}
		if err := fn(tasks); err != nil {
			return err
		}
		return encode(b, KeyTasks, tasks)
	})
}

// decode unmarshals one collection. A corrupted value is logged and loads as the zero value.
func decode[T any](logger zerolog.Logger, b blobs, key string) T {
	var v T
	raw, ok := b[key]
	if !ok || len(raw) == 0 {
		return v
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("corrupted collection, loading as empty")
		var zero T
		return zero
	}
	return v
}

// decodeForWrite is decode for read-modify-write paths: a corrupted value is moved
// to key+CorruptSuffix so the write that follows does not destroy it.
func decodeForWrite[T any](logger zerolog.Logger, b blobs, key string) T {
	var v T
	raw, ok := b[key]
	if !ok || len(raw) == 0 {
		return v
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		backup := key + CorruptSuffix
		if _, taken := b[backup]; taken {
			backup = fmt.Sprintf("%s%s.%d", key, CorruptSuffix, time.Now().UnixNano())
		}
		b[backup] = raw
		delete(b, key)
		logger.Warn().Err(err).Str("key", key).Str("backup", backup).
			Msg("corrupted collection moved aside, starting it empty")
		var zero T
		return zero
	}
	return v
}

func encode(b blobs, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	b[key] = raw
	return nil
}

// view executes fn with a shared (read) lock.
func (s *Store) view(fn func(blobs)) error {
	lock, err := s.acquireLock(syscall.LOCK_SH)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	data, err := s.read(false)
	if err != nil {
		return err
	}
	fn(data)
	return nil
}

// update executes fn with an exclusive (write) lock and writes the result.
func (s *Store) update(fn func(blobs) error) error {
	lock, err := s.acquireLock(syscall.LOCK_EX)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	data, err := s.read(true)
	if err != nil {
		return err
	}
	if err := fn(data); err != nil {
		return err
	}
	return s.write(data)
}

func (s *Store) acquireLock(lockType int) (*os.File, error) {
	dir := filepath.Dir(s.lockPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lock, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(lock.Fd()), lockType); err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	return lock, nil
}

func (s *Store) releaseLock(lock *os.File) {
	_ = syscall.Flock(int(lock.Fd()), syscall.LOCK_UN)
	_ = lock.Close()
}

// read loads the file. A missing file is an empty store; an unparsable file is
// logged and treated as empty. Before a write the unparsable content is copied to
// path+CorruptSuffix.
func (s *Store) read(forWrite bool) (blobs, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(blobs), nil
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}

	var data blobs
	if err := json.Unmarshal(content, &data); err != nil {
		if !forWrite {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("corrupted store file, loading as empty")
			return make(blobs), nil
		}
		backup := s.path + CorruptSuffix
		if werr := os.WriteFile(backup, content, 0o600); werr != nil {
			return nil, fmt.Errorf("back up corrupted store file: %w", werr)
		}
		s.logger.Warn().Err(err).Str("path", s.path).Str("backup", backup).
			Msg("corrupted store file copied aside, starting empty")
		return make(blobs), nil
	}
	if data == nil {
		data = make(blobs)
	}
	return data, nil
}

func (s *Store) write(data blobs) error {
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store data: %w", err)
	}

	// Write to temp file first, then rename for atomicity
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

func sortedTasks(tasks map[string]model.Task) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b model.Task) int {
		if c := strings.Compare(string(a.Date), string(b.Date)); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

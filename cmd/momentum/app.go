package main

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"momentum-tracker/internal/badge"
	"momentum-tracker/internal/config"
	"momentum-tracker/internal/jsonstore"
	"momentum-tracker/internal/logging"
	"momentum-tracker/internal/model"
	"momentum-tracker/internal/recovery"
	"momentum-tracker/internal/repository"
	"momentum-tracker/internal/scoring"
	"momentum-tracker/internal/service"
)

// clock is swapped in tests.
var clock = time.Now

// app wires storage, engines and services for one command run.
type app struct {
	cfg        *config.Config
	logger     zerolog.Logger
	loc        *time.Location
	now        func() time.Time
	store      service.Store
	table      *scoring.WeightTable
	badges     *badge.Checker
	tasks      *service.TaskService
	reports    *service.ReportService
	categories *service.CategoryService
	journal    *service.JournalService
	goals      *service.GoalService
	close      func() error
}

func newApp(cfg *config.Config, logger zerolog.Logger, out io.Writer) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	now := func() time.Time { return clock().In(loc) }

	table, err := scoring.NewWeightTable(cfg.Scoring.Categories, scoring.Options{
		Strict: cfg.Scoring.StrictWeights,
		Logger: &logger,
	})
	if err != nil {
		return nil, fmt.Errorf("weights: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, loc: loc, now: now, table: table, close: func() error { return nil }}

	switch cfg.Storage.Driver {
	case config.DriverJSON:
		a.store = jsonstore.New(cfg.Storage.JSONPath, logging.Component(logger, "jsonstore"))
	default:
		db, err := repository.NewDB(cfg.Storage.DBPath, logger)
		if err != nil {
			return nil, fmt.Errorf("db: %w", err)
		}
		a.store = repository.NewStore(db)
		a.close = func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}
	}

	calc := scoring.NewCalculator(table)
	a.badges = badge.NewChecker(a.store, logging.Component(logger, "badges"),
		badge.WithClock(now),
		badge.WithObserver(func(b model.Badge) {
			fmt.Fprintf(out, "Badge unlocked: %s - %s\n", b.Name, b.Description)
		}),
	)
	rec := recovery.NewManager(a.store, cfg.Recovery.Threshold, logging.Component(logger, "recovery"),
		recovery.WithClock(now))
	a.tasks = service.NewTaskService(a.store, calc, a.badges, rec, logging.Component(logger, "tasks"),
		service.WithClock(now))
	a.reports = service.NewReportService(a.store, cfg.Scoring.ProductiveThreshold, now)
	a.categories = service.NewCategoryService(a.store, calc)
	a.journal = service.NewJournalService(a.store, now)
	a.goals = service.NewGoalService(a.store, now, nil)
	return a, nil
}

func (a *app) today() model.Date {
	return model.DateOf(a.now())
}

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"momentum-tracker/internal/config"
	"momentum-tracker/internal/logging"
	"momentum-tracker/internal/model"
	"momentum-tracker/internal/service"
	"momentum-tracker/internal/streak"
)

// newRootCommand creates the momentum command tree. The app is built once the
// config flag is parsed and torn down after the command ran.
func newRootCommand() *cobra.Command {
	var (
		configPath string
		a          *app
	)

	root := &cobra.Command{
		Use:           "momentum",
		Short:         "Weighted daily productivity tracker",
		Long:          "momentum scores each day by category-weighted task completion, tracks streaks,\nunlocks badges and adds recovery tasks after a weak day.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger := logging.New(cfg.App.LogLevel, cfg.App.LogFormat, cmd.ErrOrStderr())
			if cfg.Source != "" {
				logger.Debug().Str("path", cfg.Source).Msg("config loaded")
			}

			a, err = newApp(cfg, logger, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			// a weak yesterday is noticed on the first command of the day
			if _, _, err := a.tasks.EnsureRecovery(cmd.Context()); err != nil {
				return err
			}
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a == nil {
				return nil
			}
			return a.close()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./momentum.yaml)")

	get := func() *app { return a }
	root.AddCommand(
		newAddCommand(get),
		newSetDoneCommand(get, "done", true),
		newSetDoneCommand(get, "undo", false),
		newEditCommand(get),
		newRemoveCommand(get),
		newTodayCommand(get),
		newScoreCommand(get),
		newStreakCommand(get),
		newBadgesCommand(get),
		newReportCommand(get),
		newHeatmapCommand(get),
		newInsightsCommand(get),
		newCategoriesCommand(get),
		newSummaryCommand(get),
		newJournalCommand(get),
		newGoalCommand(get),
		newRunCommand(get),
	)
	return root
}

type taskFlags struct {
	Title       string
	Description string
	Category    string
	Priority    string
	Date        string
	Repeat      string
}

func (f *taskFlags) register(cmd *cobra.Command, withTitle bool) {
	if withTitle {
		cmd.Flags().StringVar(&f.Title, "title", "", "Task title")
	}
	cmd.Flags().StringVarP(&f.Description, "desc", "d", "", "Description")
	cmd.Flags().StringVarP(&f.Category, "category", "c", "", "Category name, see the categories command")
	cmd.Flags().StringVarP(&f.Priority, "priority", "p", "", "Priority: high, medium or low")
	cmd.Flags().StringVar(&f.Date, "date", "", "Date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&f.Repeat, "repeat", "", "Weekly recurrence, e.g. mon,wed,fri")
}

func newAddCommand(get func() *app) *cobra.Command {
	var opts taskFlags

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Long: `Add a task.

Examples:
  momentum add "Solve two graph problems" -c "DSA - I" -p high
  momentum add "Gym session" -c gym --repeat mon,wed,fri`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			repeat, err := model.ParseWeekdays(opts.Repeat)
			if err != nil {
				return err
			}
			var day model.Date
			if opts.Date != "" {
				if day, err = model.ParseDate(opts.Date); err != nil {
					return err
				}
			}
			res, err := a.tasks.Create(cmd.Context(), service.TaskInput{
				Title:          strings.Join(args, " "),
				Description:    opts.Description,
				Category:       opts.Category,
				Priority:       opts.Priority,
				Date:           day,
				RecurrenceDays: repeat,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s\n", shortID(res.Task.ID), res.Task.Title)
			printLog(cmd.OutOrStdout(), res.Log)
			return nil
		},
	}
	opts.register(cmd, false)
	return cmd
}

func newSetDoneCommand(get func() *app, use string, completed bool) *cobra.Command {
	short := "Mark a task as done"
	if !completed {
		short = "Mark a task as not done"
	}
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			id, err := resolveID(cmd, a, args[0])
			if err != nil {
				return err
			}
			res, err := a.tasks.SetCompleted(cmd.Context(), id, completed)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %s\n", checkbox(res.Task.Completed), res.Task.Title)
			for _, t := range res.Scheduled {
				fmt.Fprintf(w, "Scheduled %s for %s\n", shortID(t.ID), t.Date)
			}
			if res.RecoveryCleared {
				fmt.Fprintln(w, "Recovery batch complete")
			}
			printLog(w, res.Log)
			return nil
		},
	}
}

func newEditCommand(get func() *app) *cobra.Command {
	var opts taskFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			id, err := resolveID(cmd, a, args[0])
			if err != nil {
				return err
			}

			var upd service.TaskUpdate
			flags := cmd.Flags()
			if flags.Changed("title") {
				upd.Title = &opts.Title
			}
			if flags.Changed("desc") {
				upd.Description = &opts.Description
			}
			if flags.Changed("category") {
				upd.Category = &opts.Category
			}
			if flags.Changed("priority") {
				upd.Priority = &opts.Priority
			}
			if flags.Changed("date") {
				day, err := model.ParseDate(opts.Date)
				if err != nil {
					return err
				}
				upd.Date = &day
			}
			if flags.Changed("repeat") {
				repeat, err := model.ParseWeekdays(opts.Repeat)
				if err != nil {
					return err
				}
				upd.RecurrenceDays = &repeat
			}

			res, err := a.tasks.Update(cmd.Context(), id, upd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %s\n", shortID(res.Task.ID), res.Task.Title)
			return nil
		},
	}
	opts.register(cmd, true)
	return cmd
}

func newRemoveCommand(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			id, err := resolveID(cmd, a, args[0])
			if err != nil {
				return err
			}
			res, err := a.tasks.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", shortID(res.Task.ID), res.Task.Title)
			return nil
		},
	}
}

func newTodayCommand(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's agenda",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			agenda, err := get().tasks.Agenda(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Agenda for %s\n", agenda.Date)
			if agenda.Len() == 0 {
				fmt.Fprintln(w, "No tasks yet. Add your first task with `momentum add`.")
				return nil
			}
			printTasks(w, "Today", agenda.Active)
			printTasks(w, "Overdue", agenda.Overdue)
			printTasks(w, "Completed", agenda.Completed)
			printTasks(w, "Scheduled", agenda.Scheduled)
			return nil
		},
	}
}

func newScoreCommand(get func() *app) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Show the score of a day with per-category stats",
		Long:  "Show the score of a day computed from its current tasks. Nothing is stored, so any\ndate including future ones can be previewed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			day := a.today()
			if date != "" {
				var err error
				if day, err = model.ParseDate(date); err != nil {
					return err
				}
			}
			log, err := a.tasks.ScoreDay(cmd.Context(), day)
			if err != nil {
				return err
			}
			stats, err := a.categories.Stats(cmd.Context(), day)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printLog(w, &log)
			for _, s := range stats {
				fmt.Fprintf(w, "  %-22s %d/%d tasks  %d/%d weight  %d%%\n",
					s.Category, s.CompletedTasks, s.TotalTasks, s.EarnedWeight, s.TotalWeight, s.CompletionPercentage)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date as YYYY-MM-DD (default today)")
	return cmd
}

func newStreakCommand(get func() *app) *cobra.Command {
	var threshold int

	cmd := &cobra.Command{
		Use:   "streak",
		Short: "Show current and longest streak",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			if !cmd.Flags().Changed("threshold") {
				threshold = a.cfg.Scoring.ProductiveThreshold
			}
			logs, err := a.store.LoadDailyLogs(cmd.Context())
			if err != nil {
				return err
			}
			state := streak.ComputeAsOf(logs, threshold, a.today())

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Current streak: %d days", state.CurrentStreak)
			if state.CurrentStreak > 0 {
				fmt.Fprintf(w, " (%s..%s)", state.CurrentStart, state.CurrentEnd)
			}
			fmt.Fprintf(w, "\nLongest streak: %d days", state.LongestStreak)
			if state.LongestStreak > 0 {
				fmt.Fprintf(w, " (%s..%s)", state.LongestStart, state.LongestEnd)
			}
			fmt.Fprintf(w, "\nProductive days (>= %d): %d\n", threshold, state.TotalProductiveDays)
			return nil
		},
	}
	cmd.Flags().IntVar(&threshold, "threshold", streak.DefaultThreshold, "Score a day needs to count")
	return cmd
}

func newBadgesCommand(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "badges",
		Short: "List badges with unlock state and progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			badges, err := get().badges.All(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, b := range badges {
				if b.Unlocked && b.UnlockedAt != nil {
					fmt.Fprintf(w, "[x] %-20s unlocked %s\n", b.Name, b.UnlockedAt.Format(model.DateLayout))
					continue
				}
				fmt.Fprintf(w, "[ ] %-20s %3d%%  %s\n", b.Name, b.Progress, b.Requirement)
			}
			return nil
		},
	}
}

func newReportCommand(get func() *app) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Monthly report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			at := a.now()
			if month != "" {
				var err error
				if at, err = time.ParseInLocation("2006-01", month, a.loc); err != nil {
					return fmt.Errorf("invalid month %q, expected YYYY-MM", month)
				}
			}
			report, err := a.reports.Monthly(cmd.Context(), at)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Report %s..%s\n", report.Start, report.End)
			fmt.Fprintf(w, "Tasks completed: %d/%d\n", report.CompletedTasks, report.TotalTasks)
			fmt.Fprintf(w, "Average score:   %d over %d days\n", report.AverageScore, report.LoggedDays)
			fmt.Fprintf(w, "Productive days: %d\n", report.ProductiveDays)
			if report.BestDay != nil {
				fmt.Fprintf(w, "Best day:        %s (%d)\n", report.BestDay.Date, report.BestDay.Score)
			}
			for _, wk := range report.Weeks {
				fmt.Fprintf(w, "  %s..%s  avg %3d  productive %d/%d\n", wk.Start, wk.End, wk.AverageScore, wk.ProductiveDays, wk.LoggedDays)
			}
			if h := report.Habits; h.Entries > 0 {
				fmt.Fprintf(w, "Habits over %d journal days: sleep %.1fh  screen %.1fh  water %.1f  mood %d/10  energy %d/10\n",
					h.Entries, h.SleepHours, h.ScreenTime, h.WaterGlasses, h.Mood, h.Energy)
			}
			for _, g := range report.Goals {
				printGoal(w, g)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "Month as YYYY-MM (default current)")
	return cmd
}

func newHeatmapCommand(get func() *app) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "heatmap",
		Short: "Show recent activity as a heatmap",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days <= 0 {
				return errors.New("--days must be positive")
			}
			a := get()
			to := a.today()
			cells, err := a.reports.Heatmap(cmd.Context(), to.AddDays(1-days), to)
			if err != nil {
				return err
			}
			shades := []rune(" .:*#")
			w := cmd.OutOrStdout()
			for i, c := range cells {
				fmt.Fprintf(w, "%c", shades[c.Level])
				if (i+1)%7 == 0 {
					fmt.Fprintln(w)
				}
			}
			if len(cells)%7 != 0 {
				fmt.Fprintln(w)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 28, "Number of days up to today")
	return cmd
}

func newInsightsCommand(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Coaching hints from your history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			insights, err := a.reports.Insights(cmd.Context(), a.table)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(insights) == 0 {
				fmt.Fprintln(w, "Not enough history for insights yet.")
				return nil
			}
			for _, in := range insights {
				fmt.Fprintf(w, "[%s] %s\n      %s\n", in.Severity, in.Message, in.Suggestion)
			}
			return nil
		},
	}
}

func newCategoriesCommand(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List category weights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			w := cmd.OutOrStdout()
			for _, c := range a.categories.List() {
				fmt.Fprintf(w, "%-22s %3d\n", c.Name, c.Weight)
			}
			fmt.Fprintf(w, "%-22s %3d\n", "total", a.table.Sum())
			return nil
		},
	}
}

func newSummaryCommand(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the daily summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			summary, err := get().reports.DailySummary(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}

func newRunCommand(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler until interrupted",
		Long:  "Run the day rollover at schedule.day_reset_time and log a summary every schedule.report_interval.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			scheduler := service.NewSchedulerService(a.loc, logging.Component(a.logger, "scheduler"))
			if _, err := scheduler.ScheduleRollover(a.cfg.Schedule.DayResetTime, a.tasks); err != nil {
				return fmt.Errorf("schedule rollover: %w", err)
			}
			if a.cfg.Schedule.ReportInterval > 0 {
				if _, err := scheduler.ScheduleSummary(a.cfg.Schedule.ReportInterval, a.reports); err != nil {
					return fmt.Errorf("schedule summary: %w", err)
				}
			}

			if _, err := a.tasks.Rollover(cmd.Context()); err != nil {
				return err
			}
			scheduler.Start()
			defer scheduler.Stop()

			a.logger.Info().Str("reset", a.cfg.Schedule.DayResetTime).Dur("report_interval", a.cfg.Schedule.ReportInterval).Msg("momentum scheduler started")
			<-cmd.Context().Done()
			a.logger.Info().Msg("shutdown complete")
			return nil
		},
	}
}

// resolveID accepts a full id or a unique prefix of a regular or recovery task.
func resolveID(cmd *cobra.Command, a *app, ref string) (string, error) {
	regular, err := a.store.LoadTasks(cmd.Context())
	if err != nil {
		return "", err
	}
	batch, err := a.store.LoadRecoveryTasks(cmd.Context())
	if err != nil {
		return "", err
	}
	ids := make([]string, 0, len(regular)+len(batch))
	for _, t := range append(regular, batch...) {
		ids = append(ids, t.ID)
	}
	return matchID(ids, ref, service.ErrTaskNotFound)
}

// matchID returns the id equal to ref or the only id starting with it.
func matchID(ids []string, ref string, notFound error) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", notFound
	}
	var match string
	for _, id := range ids {
		if id == ref {
			return id, nil
		}
		if strings.HasPrefix(id, ref) && id != match {
			if match != "" {
				return "", fmt.Errorf("ambiguous id %q", ref)
			}
			match = id
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", notFound, ref)
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func printTasks(w io.Writer, title string, tasks []model.Task) {
	if len(tasks) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s (%d)\n", title, len(tasks))
	for _, t := range tasks {
		fmt.Fprintf(w, "  %s %s %s", checkbox(t.Completed), shortID(t.ID), t.Title)
		if t.Category != "" {
			fmt.Fprintf(w, " (%s)", t.Category)
		}
		switch t.Kind() {
		case model.KindRecurring:
			fmt.Fprintf(w, " every %s", t.RecurrenceDays)
		case model.KindRecovery:
			fmt.Fprint(w, " [recovery]")
		default:
			if title != "Today" && title != "Completed" {
				fmt.Fprintf(w, " · %s", t.Date)
			}
		}
		fmt.Fprintln(w)
	}
}

func printLog(w io.Writer, log *model.DailyLog) {
	if log == nil {
		return
	}
	fmt.Fprintf(w, "%s score %d (%d/%d tasks)\n", log.Date, log.Score, log.TasksCompleted, log.TotalTasks)
}

package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"momentum-tracker/internal/model"
	"momentum-tracker/internal/service"
)

func newJournalCommand(get func() *app) *cobra.Command {
	var (
		date    string
		all     bool
		screen  float64
		sleep   float64
		water   int
		mood    int
		energy  int
		metrics []string
	)

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Record or show the habits of a day",
		Long: `Record or show the habits of a day. Without value flags the entry is printed.

Examples:
  momentum journal --sleep 7.5 --water 8 --mood 7
  momentum journal --metric reading=30m --metric steps=9000
  momentum journal --date 2024-06-10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			w := cmd.OutOrStdout()
			if all {
				entries, err := a.journal.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(w, "No journal entries yet.")
				}
				for _, e := range entries {
					printEntry(w, e)
				}
				return nil
			}

			day := a.today()
			if date != "" {
				var err error
				if day, err = model.ParseDate(date); err != nil {
					return err
				}
			}

			input := service.JournalInput{Date: day}
			flags := cmd.Flags()
			if flags.Changed("screen") {
				input.ScreenTime = &screen
			}
			if flags.Changed("sleep") {
				input.SleepHours = &sleep
			}
			if flags.Changed("water") {
				input.WaterGlasses = &water
			}
			if flags.Changed("mood") {
				input.Mood = &mood
			}
			if flags.Changed("energy") {
				input.Energy = &energy
			}
			for _, raw := range metrics {
				name, value, ok := strings.Cut(raw, "=")
				if !ok || strings.TrimSpace(name) == "" {
					return fmt.Errorf("invalid metric %q, expected name=value", raw)
				}
				input.Metrics = append(input.Metrics, model.JournalMetric{Name: name, Value: value})
			}

			changed := input.ScreenTime != nil || input.SleepHours != nil || input.WaterGlasses != nil ||
				input.Mood != nil || input.Energy != nil || len(input.Metrics) > 0
			if !changed {
				entry, err := a.journal.Get(cmd.Context(), day)
				if errors.Is(err, service.ErrEntryNotFound) {
					fmt.Fprintf(w, "No journal entry for %s\n", day)
					return nil
				}
				if err != nil {
					return err
				}
				printEntry(w, entry)
				return nil
			}

			entry, err := a.journal.Save(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprint(w, "Saved ")
			printEntry(w, entry)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date as YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&all, "all", false, "List every entry")
	cmd.Flags().Float64Var(&screen, "screen", 0, "Screen time in hours")
	cmd.Flags().Float64Var(&sleep, "sleep", 0, "Sleep in hours")
	cmd.Flags().IntVar(&water, "water", 0, "Glasses of water")
	cmd.Flags().IntVar(&mood, "mood", 0, "Mood from 1 to 10")
	cmd.Flags().IntVar(&energy, "energy", 0, "Energy from 1 to 10")
	cmd.Flags().StringArrayVar(&metrics, "metric", nil, "Custom metric as name=value, an empty value removes it")
	return cmd
}

func newGoalCommand(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listGoals(cmd, get())
		},
	}
	cmd.AddCommand(
		newGoalAddCommand(get),
		&cobra.Command{
			Use:   "list",
			Short: "List goals with progress",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return listGoals(cmd, get())
			},
		},
		&cobra.Command{
			Use:   "progress <id> <value>",
			Short: "Set the current value of a goal",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := get()
				id, err := resolveGoalID(cmd, a, args[0])
				if err != nil {
					return err
				}
				value, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid value %q", args[1])
				}
				goal, err := a.goals.SetProgress(cmd.Context(), id, value)
				if err != nil {
					return err
				}
				printGoal(cmd.OutOrStdout(), goal)
				return nil
			},
		},
		&cobra.Command{
			Use:   "bump <id> [delta]",
			Short: "Advance a goal, by one unless a delta is given",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := get()
				id, err := resolveGoalID(cmd, a, args[0])
				if err != nil {
					return err
				}
				delta := 1
				if len(args) == 2 {
					if delta, err = strconv.Atoi(args[1]); err != nil {
						return fmt.Errorf("invalid delta %q", args[1])
					}
				}
				goal, err := a.goals.Advance(cmd.Context(), id, delta)
				if err != nil {
					return err
				}
				printGoal(cmd.OutOrStdout(), goal)
				return nil
			},
		},
		&cobra.Command{
			Use:     "rm <id>",
			Aliases: []string{"delete"},
			Short:   "Delete a goal",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := get()
				id, err := resolveGoalID(cmd, a, args[0])
				if err != nil {
					return err
				}
				if err := a.goals.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted goal %s\n", shortID(id))
				return nil
			},
		},
	)
	return cmd
}

func newGoalAddCommand(get func() *app) *cobra.Command {
	var (
		input      service.GoalInput
		start, end string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a goal",
		Long: `Add a goal. It runs for 30 days from today unless --start or --end are given.

Examples:
  momentum goal add "Read every day" --target 30
  momentum goal add "Ship side project" --target 5 --unit milestones --end 2024-09-01`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			input.Name = strings.Join(args, " ")
			var err error
			if start != "" {
				if input.StartDate, err = model.ParseDate(start); err != nil {
					return err
				}
			}
			if end != "" {
				if input.EndDate, err = model.ParseDate(end); err != nil {
					return err
				}
			}
			goal, err := a.goals.Create(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), "Added goal ")
			printGoal(cmd.OutOrStdout(), goal)
			return nil
		},
	}
	cmd.Flags().IntVar(&input.Target, "target", 0, "Target value")
	cmd.Flags().StringVar(&input.Unit, "unit", "", "Unit of the target (default days)")
	cmd.Flags().StringVar(&input.Category, "category", "", "Goal category (default tasks)")
	cmd.Flags().StringVar(&start, "start", "", "Start date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&end, "end", "", "End date as YYYY-MM-DD (default start + 30 days)")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func listGoals(cmd *cobra.Command, a *app) error {
	goals, err := a.goals.List(cmd.Context())
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if len(goals) == 0 {
		fmt.Fprintln(w, "No goals yet. Add one with `momentum goal add`.")
		return nil
	}
	for _, g := range goals {
		printGoal(w, g)
	}
	return nil
}

func resolveGoalID(cmd *cobra.Command, a *app, ref string) (string, error) {
	goals, err := a.goals.List(cmd.Context())
	if err != nil {
		return "", err
	}
	ids := make([]string, 0, len(goals))
	for _, g := range goals {
		ids = append(ids, g.ID)
	}
	return matchID(ids, ref, service.ErrGoalNotFound)
}

func printGoal(w io.Writer, g model.Goal) {
	fmt.Fprintf(w, "%s %s %d/%d %s  %d%% %s  (%s..%s)\n",
		shortID(g.ID), g.Name, g.CurrentValue, g.Target, g.Unit, g.Progress(), g.Status(), g.StartDate, g.EndDate)
}

func printEntry(w io.Writer, e model.JournalEntry) {
	fmt.Fprintf(w, "%s sleep %.1fh  screen %.1fh  water %d  mood %d  energy %d", e.Date,
		e.SleepHours, e.ScreenTime, e.WaterGlasses, e.Mood, e.Energy)
	for _, m := range e.CustomMetrics {
		fmt.Fprintf(w, "  %s=%s", m.Name, m.Value)
	}
	fmt.Fprintln(w)
}

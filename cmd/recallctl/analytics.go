package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jgirmay/gaia-recall/internal/recall/models"
)

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Summarise a learner's review items",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		return withEnv(func(e *env) error {
			st, err := e.svc.ReviewStats(context.Background(), userID)
			if err != nil {
				return err
			}
			return render(st, func(w *tabwriter.Writer) {
				o := st.Overview
				fmt.Fprintf(w, "items\t%d\t(due %d, overdue %d)\n", o.TotalItems, o.Due, o.Overdue)
				fmt.Fprintf(w, "stability\tmastered %d\tlearning %d\tnew %d\n", o.Mastered, o.Learning, o.New)
				fmt.Fprintf(w, "retention\t%.2f now\t%.2f in 30d\t%.2f in 90d\n",
					st.Retention.Average, st.Retention.Predicted30Day, st.Retention.Predicted90Day)
				fmt.Fprintf(w, "success rate\t%.1f%%\n", st.Retention.SuccessRate)
				fmt.Fprintf(w, "daily burden\t%.1f\t(optimal %.1f)\n", st.Efficiency.DailyReviewBurden, st.Efficiency.OptimalBurden)
				fmt.Fprintf(w, "difficulty\teasy %d\tmedium %d\thard %d\n", st.Difficulty.Easy, st.Difficulty.Medium, st.Difficulty.Hard)
				fmt.Fprintf(w, "reviews\t%d\t(lapses %d, today %d, streak %dd)\n",
					st.Progress.TotalReviews, st.Progress.TotalLapses, st.Progress.ReviewedToday, st.Progress.StreakDays)
				fmt.Fprintf(w, "forecast\ttomorrow %d\tweek %d\n", st.Forecast.DueTomorrow, st.Forecast.DueThisWeek)
			})
		})
	},
}

var velocityCmd = &cobra.Command{
	Use:   "velocity",
	Short: "Show how fast items reach long-term memory",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		return withEnv(func(e *env) error {
			v, err := e.svc.LearningVelocity(context.Background(), userID)
			if err != nil {
				return err
			}
			return render(v, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "items\t%d\n", v.ItemsTotal)
				fmt.Fprintf(w, "mastered\t%d\n", v.ItemsMastered)
				fmt.Fprintf(w, "in progress\t%d\n", v.ItemsInProgress)
				fmt.Fprintf(w, "struggling\t%d\n", v.ItemsStruggling)
				fmt.Fprintf(w, "reviews (7d)\t%d\t(%.2f/day)\n", v.ReviewsLast7Days, v.AverageReviewsPerDay)
				fmt.Fprintf(w, "avg stability\t%.2f days\n", v.AverageStability)
				fmt.Fprintf(w, "learning rate\t%.2f items/day\n", v.LearningRate)
			})
		})
	},
}

var itemsCmd = &cobra.Command{
	Use:   "items <overdue|due_today|struggling|new>",
	Short: "List review items matching a criteria",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		return withEnv(func(e *env) error {
			items, err := e.svc.ItemsByCriteria(context.Background(), userID, args[0])
			if err != nil {
				return err
			}
			return render(items, func(w *tabwriter.Writer) {
				if len(items) == 0 {
					fmt.Fprintln(w, "No matching items")
					return
				}
				fmt.Fprintf(w, "ITEM\tSTATE\tREVIEWS\tLAPSES\tDUE\n")
				for _, it := range items {
					fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", it.Ref(), it.State, it.ReviewCount, it.LapseCount, dueLabel(it))
				}
			})
		})
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <item-type> <item-key>",
	Short: "Show one item's retention and mastery level",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		return withEnv(func(e *env) error {
			st, err := e.svc.ItemStats(context.Background(), userID, models.ItemRef{Type: args[0], Key: args[1]})
			if err != nil {
				return err
			}
			return render(st, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "item\t%s\n", st.Ref)
				fmt.Fprintf(w, "level\t%s\n", st.Level)
				fmt.Fprintf(w, "retention\t%.2f\n", st.Retention)
				fmt.Fprintf(w, "stability\t%.2f\n", st.Stability)
				fmt.Fprintf(w, "difficulty\t%.2f\n", st.Difficulty)
				fmt.Fprintf(w, "reviews\t%d\t(lapses %d, success %.1f%%)\n", st.ReviewCount, st.LapseCount, st.SuccessRate)
				if st.Overdue {
					fmt.Fprintf(w, "due\toverdue\n")
				} else {
					fmt.Fprintf(w, "due in\t%.0f\n", st.UntilDue)
				}
			})
		})
	},
}

var planMinutes int

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Build today's study plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		return withEnv(func(e *env) error {
			plan, err := e.svc.DailyPlan(context.Background(), userID, planMinutes)
			if err != nil {
				return err
			}
			return render(plan, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "SECTION\tPRIORITY\tCOUNT\tITEMS\n")
				for _, s := range plan.Sections {
					refs := "-"
					for i, it := range s.Items {
						if i == 0 {
							refs = it.Ref().String()
							continue
						}
						refs += ", " + it.Ref().String()
					}
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.Kind, s.Priority, s.Count, refs)
				}
				fmt.Fprintf(w, "\n%d items, about %d minutes\n", plan.MaxItems, plan.EstimatedMinutes)
			})
		})
	},
}

func init() {
	rootCmd.AddCommand(overviewCmd, velocityCmd, itemsCmd, inspectCmd, planCmd)
	planCmd.Flags().IntVar(&planMinutes, "minutes", 30, "Minutes available for study")
}

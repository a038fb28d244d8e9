package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jgirmay/gaia-recall/internal/recall/models"
	"github.com/jgirmay/gaia-recall/internal/recall/services"
)

var (
	attemptContext  string
	attemptFailed   bool
	attemptChapters int
	statsCategory   string
	projectChapters int
	projectDays     int
)

var attemptCmd = &cobra.Command{
	Use:   "attempt <command>",
	Short: "Record an attempt at a command",
	Long: `Record a successful (or, with --failed, unsuccessful) use of a command.

The command may be a raw command line or a canonical key.

Examples:
  recallctl attempt "docker run -d nginx" --context lab -u 7
  recallctl attempt kubectl_get_pods --failed -u 7`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		ctxType, err := models.ParseContextType(attemptContext)
		if err != nil {
			return err
		}
		return withEnv(func(e *env) error {
			out, err := e.svc.RecordAttempt(context.Background(), services.AttemptEvent{
				UserID:  userID,
				Command: args[0],
				Success: !attemptFailed,
				Context: ctxType,
				Session: models.SessionContext{ChaptersCompleted: attemptChapters, AttemptNumber: 1},
			})
			if err != nil {
				return err
			}
			return render(out, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "COMMAND\tBEFORE\tAFTER\tMASTERED\n")
				fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%v\n", out.Mastery.CanonicalCommand,
					out.Outcome.PreviousScore, out.Outcome.Score, out.Mastery.Mastered())
				if out.Outcome.NewlyMastered {
					fmt.Fprintln(w, "\nnewly mastered")
				}
			})
		})
	},
}

var masteryCmd = &cobra.Command{
	Use:   "mastery <command>",
	Short: "Show a command mastery, applying decay",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		return withEnv(func(e *env) error {
			r, err := e.svc.Mastery(context.Background(), userID, args[0])
			if err != nil {
				return err
			}
			return render(r, func(w *tabwriter.Writer) {
				shield := string(r.Shield)
				if shield == "" {
					shield = "-"
				}
				fmt.Fprintf(w, "command\t%s\n", r.Label)
				fmt.Fprintf(w, "score\t%.2f\n", r.Mastery.ProficiencyScore)
				fmt.Fprintf(w, "attempts\t%d/%d\n", r.Mastery.SuccessfulAttempts, r.Mastery.TotalAttempts)
				fmt.Fprintf(w, "shield\t%s\n", shield)
				fmt.Fprintf(w, "needs review\t%v\n", r.NeedsReview)
			})
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise a learner's command masteries",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		return withEnv(func(e *env) error {
			st, err := e.svc.MasteryStats(context.Background(), userID, statsCategory)
			if err != nil {
				return err
			}
			return render(st, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "commands\t%d\n", st.TotalCommands)
				fmt.Fprintf(w, "mastered\t%d (%.2f%%)\n", st.Mastered, st.MasteryPercentage)
				fmt.Fprintf(w, "needs practice\t%d\n", st.NeedsPractice)
				fmt.Fprintln(w)
				fmt.Fprintf(w, "CATEGORY\tMASTERED\tTOTAL\n")
				for _, c := range st.Categories {
					fmt.Fprintf(w, "%s\t%d\t%d\n", c.Category, c.Mastered, c.Total)
				}
				shields := make(map[string]int, len(st.Shields))
				for level, n := range st.Shields {
					shields[string(level)] = n
				}
				fmt.Fprintln(w)
				fmt.Fprintf(w, "SHIELD\tCOUNT\n")
				for _, level := range sortedKeys(shields) {
					fmt.Fprintf(w, "%s\t%d\n", level, shields[level])
				}
			})
		})
	},
}

var gateCmd = &cobra.Command{
	Use:   "gate <command>...",
	Short: "Check that required commands are mastered",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		return withEnv(func(e *env) error {
			res, err := e.svc.CheckGate(context.Background(), userID, args)
			if err != nil {
				return err
			}
			return render(res, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "%s: %s\n", strings.ToUpper(res.Status), res.Message)
				if len(res.RemedialDrills) == 0 {
					return
				}
				fmt.Fprintf(w, "\nCOMMAND\tSCORE\tATTEMPTS NEEDED\n")
				for _, d := range res.RemedialDrills {
					fmt.Fprintf(w, "%s\t%.2f\t%d\n", d.Label, d.CurrentScore, d.AttemptsNeeded)
				}
			})
		})
	},
}

var projectCmd = &cobra.Command{
	Use:   "project <command>",
	Short: "Project hybrid decay for a command",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		return withEnv(func(e *env) error {
			p, err := e.svc.DecayProjection(context.Background(), userID, args[0], projectChapters, projectDays)
			if err != nil {
				return err
			}
			return render(p, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "%s now %.2f (%s), review %s in %d days\n\n",
					p.Command, p.CurrentScore, p.Risk, p.Suggestion.Urgency, p.Suggestion.Days)
				fmt.Fprintf(w, "DAY\tCHAPTERS\tSCORE\tRISK\n")
				for _, pt := range p.Points {
					fmt.Fprintf(w, "%d\t%d\t%.2f\t%s\n", pt.Day, pt.Chapters, pt.Score, pt.Risk)
				}
			})
		})
	},
}

func init() {
	rootCmd.AddCommand(attemptCmd, masteryCmd, statsCmd, gateCmd, projectCmd)

	attemptCmd.Flags().StringVar(&attemptContext, "context", string(models.ContextPractice), "Attempt context (practice, quiz, lab, real_project)")
	attemptCmd.Flags().BoolVar(&attemptFailed, "failed", false, "Record a failed attempt")
	attemptCmd.Flags().IntVar(&attemptChapters, "chapters", 0, "Chapters the learner has completed")

	statsCmd.Flags().StringVar(&statsCategory, "category", "", "Restrict totals to a category (docker, docker-compose, kubernetes)")

	projectCmd.Flags().IntVar(&projectChapters, "chapters", 0, "Chapters the learner has completed")
	projectCmd.Flags().IntVar(&projectDays, "days", 14, "Days to project ahead")
}

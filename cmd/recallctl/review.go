package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/jgirmay/gaia-recall/internal/common/errors"
	"github.com/jgirmay/gaia-recall/internal/recall/models"
	"github.com/jgirmay/gaia-recall/internal/recall/services"
)

var reviewCmd = &cobra.Command{
	Use:   "review <item-type> <item-key> <grade>",
	Short: "Grade a review item",
	Long: `Grade a review item and schedule its next review.

Grade is again, hard, good, easy or 1-4.

Examples:
  recallctl review quiz_question 1234 good -u 7
  recallctl review lab docker-basics 1 -u 7 -o json`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		grade, err := models.ParseGrade(args[2])
		if err != nil {
			return err
		}
		return withEnv(func(e *env) error {
			out, err := e.svc.RecordReview(context.Background(), services.ReviewEvent{
				UserID: userID,
				Item:   models.ItemRef{Type: args[0], Key: args[1]},
				Grade:  grade,
			})
			if err != nil {
				return err
			}
			return render(out, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "ITEM\tSTATE\tSTABILITY\tDIFFICULTY\tINTERVAL\tDUE\n")
				fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%.0f\t%s\n",
					out.Item.Ref(), out.Result.State, out.Result.Stability, out.Result.Difficulty,
					out.Result.Interval, dueLabel(out.Item))
				if out.Result.Fallback {
					fmt.Fprintf(w, "\nfallback: %v\n", out.Result.FallbackReason)
				}
			})
		})
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview <item-type> <item-key>",
	Short: "Show what each grade would schedule",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		return withEnv(func(e *env) error {
			preview, err := e.svc.PreviewReview(context.Background(), userID, models.ItemRef{Type: args[0], Key: args[1]})
			if err != nil {
				return err
			}
			byName := make(map[string]any, len(preview))
			for g, r := range preview {
				byName[g.String()] = r
			}
			return render(byName, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "GRADE\tSTATE\tSTABILITY\tINTERVAL\n")
				for _, g := range models.AllGrades {
					r := preview[g]
					fmt.Fprintf(w, "%s\t%s\t%.2f\t%.0f\n", g, r.State, r.Stability, r.Interval)
				}
			})
		})
	},
}

var dueNext bool

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "List due items, most urgent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		return withEnv(func(e *env) error {
			ctx := context.Background()
			var items []*models.ReviewItem
			if dueNext {
				item, ok, err := e.svc.NextDue(ctx, userID)
				if err != nil {
					return err
				}
				if ok {
					items = append(items, item)
				}
			} else {
				var err error
				if items, err = e.svc.DueItems(ctx, userID); err != nil {
					return err
				}
			}
			urgency, err := e.svc.Urgency(ctx, userID)
			if err != nil {
				return err
			}
			return render(items, func(w *tabwriter.Writer) {
				if len(items) == 0 {
					fmt.Fprintln(w, "Nothing due")
					return
				}
				fmt.Fprintf(w, "ITEM\tSTATE\tURGENCY\tDUE\n")
				for _, it := range items {
					fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", it.Ref(), it.State, urgency[it.Ref().String()], dueLabel(it))
				}
			})
		})
	},
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Show how many items are due or nearly due",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		return withEnv(func(e *env) error {
			l, err := e.svc.QueueLoad(context.Background(), userID)
			if err != nil {
				return err
			}
			return render(l, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "due now\t%d\n", l.DueNow)
				fmt.Fprintf(w, "within 80%%\t%d\n", l.WithinEightyPercent)
				fmt.Fprintf(w, "within 50%%\t%d\n", l.WithinFiftyPercent)
				fmt.Fprintf(w, "later\t%d\n", l.Later)
				fmt.Fprintf(w, "total\t%d\n", l.TotalItems)
				fmt.Fprintf(w, "minutes\t%d\n", l.RecommendedTimeMinutes)
			})
		})
	},
}

var pointsCmd = &cobra.Command{
	Use:   "points <n>",
	Short: "Credit learning points to a learner's items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return apperrors.BadRequest("points must be an integer: " + args[0])
		}
		return withEnv(func(e *env) error {
			updated, err := e.svc.AddProgressPoints(context.Background(), userID, n)
			if err != nil {
				return err
			}
			res := map[string]int64{"items_updated": updated}
			return render(res, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "credited %d points to %d items\n", n, updated)
			})
		})
	},
}

var resetStaleCmd = &cobra.Command{
	Use:   "reset-stale",
	Short: "Reset progress items left far past due",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		return withEnv(func(e *env) error {
			n, err := e.svc.ResetStaleItems(context.Background(), userID)
			if err != nil {
				return err
			}
			return render(map[string]int{"reset": n}, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "reset %d items\n", n)
			})
		})
	},
}

func dueLabel(it *models.ReviewItem) string {
	switch {
	case it.NextReviewAt != nil:
		return it.NextReviewAt.Format(time.RFC3339)
	case it.ReviewAfterPoints != nil:
		return fmt.Sprintf("%d/%d points", it.PointsSinceReview, *it.ReviewAfterPoints)
	}
	return "-"
}

// sortedKeys is used by table output of keyed results.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	rootCmd.AddCommand(reviewCmd, previewCmd, dueCmd, loadCmd, pointsCmd, resetStaleCmd)
	dueCmd.Flags().BoolVar(&dueNext, "next", false, "Only show the single most urgent item")
}

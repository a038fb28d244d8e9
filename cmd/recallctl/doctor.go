package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jgirmay/gaia-recall/internal/common/database"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the database connection and schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(func(e *env) error {
			h := database.Check(context.Background(), e.db)
			snap, err := metricSnapshot(e.reg)
			if err != nil {
				return err
			}
			report := map[string]any{
				"database":   h,
				"due_policy": e.cfg.Recall.DuePolicy,
				"scheduler":  e.svc.Scheduler().Config(),
				"metrics":    snap,
			}
			if err := render(report, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "database\t%s\t%s\n", h.Status, h.Message)
				fmt.Fprintf(w, "due policy\t%s\n", e.cfg.Recall.DuePolicy)
				fmt.Fprintf(w, "metrics\t%d series\n", len(snap))
			}); err != nil {
				return err
			}
			if h.Status == database.HealthStatusUnhealthy {
				return fmt.Errorf("database unhealthy")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/jgirmay/gaia-recall/internal/common/database"
	apperrors "github.com/jgirmay/gaia-recall/internal/common/errors"
	"github.com/jgirmay/gaia-recall/internal/recall/models"
	"github.com/jgirmay/gaia-recall/internal/recall/services"
	"github.com/jgirmay/gaia-recall/pkg/config"
	"github.com/jgirmay/gaia-recall/pkg/logger"
	"github.com/jgirmay/gaia-recall/pkg/metrics"
)

var (
	// Global flags
	output      string
	userID      uint
	policyArg   string
	showMetrics bool
)

var rootCmd = &cobra.Command{
	Use:   "recallctl",
	Short: "Operator CLI for the recall scheduling engine",
	Long: `recallctl inspects and drives the spaced-repetition and mastery engine.

Configuration comes from the environment (and a .env file):
  DB_TYPE, SQLITE_PATH, DB_HOST ...   database connection
  RECALL_DUE_POLICY                   time or progress
  RECALL_TUNING_FILE                  YAML scheduler/mastery overrides

Reviews:
  review       Grade a review item
  preview      Show what each grade would schedule
  due          List due items, most urgent first
  load         Show the review load buckets
  points       Credit learning points (progress policy)
  reset-stale  Reset items left far past due

Analytics:
  overview     Summarise retention, burden and forecast
  velocity     Show how fast items reach long-term memory
  items        List overdue, due_today, struggling or new items
  inspect      Show one item's retention and mastery level
  plan         Build today's study plan

Mastery:
  attempt      Record a command attempt
  mastery      Show a command mastery (applies decay)
  stats        Summarise a learner's masteries
  gate         Check required commands are mastered
  project      Project hybrid decay for a command`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (json, table, yaml)")
	rootCmd.PersistentFlags().UintVarP(&userID, "user", "u", 0, "Learner ID")
	rootCmd.PersistentFlags().StringVar(&policyArg, "policy", "", "Override RECALL_DUE_POLICY (time, progress)")
	rootCmd.PersistentFlags().BoolVar(&showMetrics, "metrics", false, "Print the engine counters to stderr when the command finishes")
}

// env is what a command needs to talk to the engine.
type env struct {
	cfg *config.Config
	db  *gorm.DB
	reg *prometheus.Registry
	svc *services.Service
}

func (e *env) Close() {
	_ = logger.Sync()
	_ = database.Close(e.db)
}

func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if policyArg != "" {
		p, err := models.ParseDuePolicy(policyArg)
		if err != nil {
			return nil, err
		}
		cfg.Recall.DuePolicy = p
	}

	log, err := logger.Init(cfg.Env, logger.LogLevel(cfg.Log.Level), cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.Database.Type, cfg.Database.DSN, database.Options{})
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	svc, err := services.NewFromConfig(db, cfg,
		services.WithLogger(log),
		services.WithMetrics(metrics.New(reg)),
		services.WithHooks(services.LogNewMasteries(log)))
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return &env{cfg: cfg, db: db, reg: reg, svc: svc}, nil
}

// withEnv opens the engine for the duration of run.
func withEnv(run func(e *env) error) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()
	if err := run(e); err != nil {
		return err
	}
	if showMetrics {
		snap, err := metricSnapshot(e.reg)
		if err != nil {
			return err
		}
		return renderTo(os.Stderr, output, snap, snapshotTable(snap))
	}
	return nil
}

func requireUser() error {
	if userID == 0 {
		return apperrors.BadRequest("--user is required")
	}
	return nil
}

// Package services is the orchestrator-facing API of the recall engine. Each
// event loads its record, runs the pure scheduling or mastery rules and
// saves the result inside one transaction.
package services

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/jgirmay/gaia-recall/internal/common/errors"
	"github.com/jgirmay/gaia-recall/internal/recall/canonical"
	"github.com/jgirmay/gaia-recall/internal/recall/fsrs"
	"github.com/jgirmay/gaia-recall/internal/recall/mastery"
	"github.com/jgirmay/gaia-recall/internal/recall/queue"
	"github.com/jgirmay/gaia-recall/internal/recall/repository"
	"github.com/jgirmay/gaia-recall/pkg/config"
	"github.com/jgirmay/gaia-recall/pkg/metrics"
)

type Service struct {
	repo      *repository.Registry
	scheduler *fsrs.Scheduler
	tracker   *mastery.Tracker
	queue     *queue.Manager
	log       *zap.Logger
	metrics   *metrics.Metrics
	hooks     []MasteryHook
	now       func() time.Time
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithHooks registers hooks run after every committed attempt, in order.
func WithHooks(hooks ...MasteryHook) Option {
	return func(s *Service) { s.hooks = append(s.hooks, hooks...) }
}

// WithClock replaces time.Now for events that carry no timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(repo *repository.Registry, scheduler *fsrs.Scheduler, tracker *mastery.Tracker, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		scheduler: scheduler,
		tracker:   tracker,
		queue:     queue.NewManager(queue.PolicyFor(scheduler.Policy())),
		log:       zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig wires a service over db from the loaded configuration.
func NewFromConfig(db *gorm.DB, cfg *config.Config, opts ...Option) (*Service, error) {
	scheduler, err := fsrs.NewScheduler(SchedulerConfig(cfg))
	if err != nil {
		return nil, err
	}
	tracker := mastery.NewTracker(TrackerConfig(cfg))
	return New(repository.NewRegistry(db), scheduler, tracker, opts...), nil
}

// SchedulerConfig maps the tuning file onto the policy defaults.
func SchedulerConfig(cfg *config.Config) fsrs.Config {
	t := cfg.Recall.Tuning.Scheduler
	return fsrs.Config{
		Policy:           cfg.Recall.DuePolicy,
		TargetRetention:  t.TargetRetention,
		InitialStability: t.InitialStability,
		SeedStability:    t.SeedStability,
		MinInterval:      t.MinInterval,
		MaxInterval:      t.MaxInterval,
		UnitsPerDay:      t.UnitsPerDay,
		StaleMultiplier:  t.StaleMultiplier,
	}.Merge()
}

func TrackerConfig(cfg *config.Config) mastery.Config {
	t := cfg.Recall.Tuning.Mastery
	return mastery.Config{
		DecayInterval:        t.DecayInterval,
		ReviewScoreThreshold: t.ReviewScoreThreshold,
		ReviewAfterDays:      t.ReviewAfterDays,
	}
}

func (s *Service) Scheduler() *fsrs.Scheduler { return s.scheduler }

func (s *Service) Tracker() *mastery.Tracker { return s.tracker }

func (s *Service) at(t time.Time) time.Time {
	if t.IsZero() {
		return s.now()
	}
	return t
}

// maxSkillKey matches the canonical_command column size.
const maxSkillKey = 128

// commandKey accepts a raw docker or kubectl command line, or a skill key.
// Keys that are not commands are opaque and land in the "other" category.
func commandKey(raw string) (string, error) {
	if key, ok := canonical.Canonicalize(raw); ok {
		return key, nil
	}
	key := strings.TrimSpace(raw)
	if lower := strings.ToLower(key); canonical.Category(lower) != canonical.CategoryOther {
		key = lower
	}
	switch {
	case key == "":
		return "", apperrors.Validation("skill key is required", "")
	case strings.IndexFunc(key, unicode.IsSpace) >= 0:
		return "", apperrors.Validation("unrecognized command", raw)
	case len(key) > maxSkillKey:
		return "", apperrors.Validation("skill key too long", fmt.Sprintf("%d > %d bytes", len(key), maxSkillKey))
	}
	return key, nil
}

// stamped reports whether a decay pass recorded a new calculation time.
func stamped(before, after *time.Time) bool {
	return after != nil && (before == nil || !before.Equal(*after))
}

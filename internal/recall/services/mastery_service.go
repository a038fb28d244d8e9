package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/jgirmay/gaia-recall/internal/common/errors"
	"github.com/jgirmay/gaia-recall/internal/recall/canonical"
	"github.com/jgirmay/gaia-recall/internal/recall/curve"
	"github.com/jgirmay/gaia-recall/internal/recall/mastery"
	"github.com/jgirmay/gaia-recall/internal/recall/models"
	"github.com/jgirmay/gaia-recall/internal/recall/repository"
)

// MasteryEvent is handed to hooks after an attempt has been committed.
type MasteryEvent struct {
	UserID  uint
	Mastery *models.CommandMastery
	Outcome mastery.Outcome
}

// MasteryHook reacts to a committed attempt. Hook errors are logged and do
// not undo the attempt.
type MasteryHook func(ctx context.Context, ev MasteryEvent) error

// LogNewMasteries is a hook that announces first masteries.
func LogNewMasteries(log *zap.Logger) MasteryHook {
	return func(_ context.Context, ev MasteryEvent) error {
		if ev.Outcome.NewlyMastered {
			log.Info("command mastered",
				zap.Uint("user_id", ev.UserID),
				zap.String("command", ev.Mastery.CanonicalCommand))
		}
		return nil
	}
}

// AttemptEvent is one observed use of a command. Command may be a raw
// command line or a canonical key. A zero At means now.
type AttemptEvent struct {
	UserID  uint
	Command string
	Success bool
	Context models.ContextType
	At      time.Time
	Session models.SessionContext
}

type AttemptOutcome struct {
	Mastery *models.CommandMastery `json:"mastery" yaml:"mastery"`
	Outcome mastery.Outcome        `json:"outcome" yaml:"outcome"`
	Created bool                   `json:"created" yaml:"created"`
}

// RecordAttempt folds an attempt into the learner's mastery of the command
// and returns the updated adaptive session.
func (s *Service) RecordAttempt(ctx context.Context, ev AttemptEvent) (*AttemptOutcome, error) {
	key, err := commandKey(ev.Command)
	if err != nil {
		return nil, err
	}
	if _, ok := mastery.ContextWeights[ev.Context]; !ok {
		return nil, apperrors.InvalidContext(string(ev.Context))
	}
	now := s.at(ev.At)

	var out AttemptOutcome
	err = s.repo.Transaction(ctx, func(tx *repository.Registry) error {
		m, err := tx.Masteries.Get(ctx, ev.UserID, key)
		if err != nil {
			return err
		}
		if m == nil {
			m = models.NewCommandMastery(ev.UserID, key, canonical.Category(key), now)
			out.Created = true
		}

		outcome, err := s.tracker.RecordAttempt(m, mastery.Attempt{
			Success: ev.Success,
			Context: ev.Context,
			At:      now,
			Session: ev.Session,
		})
		if err != nil {
			return err
		}
		if out.Created {
			err = tx.Masteries.Create(ctx, m)
		} else {
			err = tx.Masteries.Save(ctx, m)
		}
		if err != nil {
			return err
		}
		out.Mastery, out.Outcome = m, outcome
		return nil
	})
	if err != nil {
		s.log.Error("failed to record attempt", zap.Uint("user_id", ev.UserID), zap.String("command", key), zap.Error(err))
		return nil, err
	}

	s.metrics.ObserveAttempt(string(ev.Context), ev.Success, out.Outcome.NewlyMastered)
	s.runHooks(ctx, MasteryEvent{UserID: ev.UserID, Mastery: out.Mastery, Outcome: out.Outcome})
	return &out, nil
}

func (s *Service) runHooks(ctx context.Context, ev MasteryEvent) {
	for i, hook := range s.hooks {
		if err := hook(ctx, ev); err != nil {
			s.log.Warn("mastery hook failed",
				zap.Int("hook", i),
				zap.Uint("user_id", ev.UserID),
				zap.String("command", ev.Mastery.CanonicalCommand),
				zap.Error(err))
		}
	}
}

// MasteryReport is a mastery read with its derived flags.
type MasteryReport struct {
	Mastery     *models.CommandMastery `json:"mastery" yaml:"mastery"`
	Label       string                 `json:"label" yaml:"label"`
	Shield      models.ShieldLevel     `json:"shield" yaml:"shield"`
	NeedsReview bool                   `json:"needs_review" yaml:"needs_review"`
	SuccessRate float64                `json:"success_rate" yaml:"success_rate"`
}

// Mastery reads a learner's mastery of a command, applying lazy decay and
// saving it when a decay pass ran.
func (s *Service) Mastery(ctx context.Context, userID uint, command string) (*MasteryReport, error) {
	key, err := commandKey(command)
	if err != nil {
		return nil, err
	}
	now := s.now()

	var m *models.CommandMastery
	decayed := false
	err = s.repo.Transaction(ctx, func(tx *repository.Registry) error {
		m, err = tx.Masteries.Get(ctx, userID, key)
		if err != nil {
			return err
		}
		if m == nil {
			return apperrors.NotFound("mastery for " + key)
		}
		before := m.LastDecayCalculationAt
		decayed = s.tracker.ApplyDecay(m, now)
		if stamped(before, m.LastDecayCalculationAt) {
			return tx.Masteries.Save(ctx, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if decayed {
		s.metrics.ObserveDecay()
	}

	return &MasteryReport{
		Mastery:     m,
		Label:       canonical.Label(key),
		Shield:      mastery.Shield(m, now),
		NeedsReview: s.tracker.NeedsReview(m, now),
		SuccessRate: mastery.SuccessRate(m),
	}, nil
}

// decayAndSave applies lazy decay to each mastery and saves those a decay
// pass touched.
func (s *Service) decayAndSave(ctx context.Context, tx *repository.Registry, masteries []*models.CommandMastery, now time.Time) error {
	for _, m := range masteries {
		before := m.LastDecayCalculationAt
		if s.tracker.ApplyDecay(m, now) {
			s.metrics.ObserveDecay()
		}
		if stamped(before, m.LastDecayCalculationAt) {
			if err := tx.Masteries.Save(ctx, m); err != nil {
				return err
			}
		}
	}
	return nil
}

// MasteryStats summarises a learner's masteries after lazy decay. A
// non-empty category restricts the totals but not the category breakdown.
func (s *Service) MasteryStats(ctx context.Context, userID uint, category string) (mastery.Stats, error) {
	now := s.now()
	var st mastery.Stats
	err := s.repo.Transaction(ctx, func(tx *repository.Registry) error {
		all, err := tx.Masteries.ListByUser(ctx, userID, "")
		if err != nil {
			return err
		}
		if err := s.decayAndSave(ctx, tx, all, now); err != nil {
			return err
		}
		st = s.tracker.Stats(all, category, now)
		return nil
	})
	return st, err
}

// CheckGate reports whether the learner has mastered every required command.
func (s *Service) CheckGate(ctx context.Context, userID uint, required []string) (mastery.GateResult, error) {
	keys := make([]string, 0, len(required))
	for _, raw := range required {
		key, err := commandKey(raw)
		if err != nil {
			return mastery.GateResult{}, err
		}
		keys = append(keys, key)
	}
	now := s.now()

	var res mastery.GateResult
	err := s.repo.Transaction(ctx, func(tx *repository.Registry) error {
		byCmd, err := tx.Masteries.ListByCommands(ctx, userID, keys)
		if err != nil {
			return err
		}
		before := make(map[string]*time.Time, len(byCmd))
		for k, m := range byCmd {
			before[k] = m.LastDecayCalculationAt
		}
		res = s.tracker.CheckGate(keys, byCmd, now)
		for k, m := range byCmd {
			if stamped(before[k], m.LastDecayCalculationAt) {
				if err := tx.Masteries.Save(ctx, m); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return res, err
}

// Projection is the forecast of a mastered command's hybrid decay.
type Projection struct {
	Command      string                  `json:"command" yaml:"command"`
	CurrentScore float64                 `json:"current_score" yaml:"current_score"`
	Risk         curve.RiskLevel         `json:"risk" yaml:"risk"`
	Points       []curve.ProjectionPoint `json:"points" yaml:"points"`
	Suggestion   curve.ReviewSuggestion  `json:"suggestion" yaml:"suggestion"`
	// BreachInDays is when the score is expected to fall below 70, if within
	// the search horizon.
	BreachInDays *int `json:"breach_in_days,omitempty" yaml:"breach_in_days,omitempty"`
}

// DecayProjection forecasts a command's score over the next daysAhead days
// for a learner at the given learning-path position.
func (s *Service) DecayProjection(ctx context.Context, userID uint, command string, chaptersCompleted, daysAhead int) (*Projection, error) {
	key, err := commandKey(command)
	if err != nil {
		return nil, err
	}
	m, err := s.repo.Masteries.Get(ctx, userID, key)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperrors.NotFound("mastery for " + key)
	}

	in := mastery.HybridInput(m, s.now(), chaptersCompleted)
	score := curve.HybridScore(in)
	p := &Projection{
		Command:      key,
		CurrentScore: score,
		Risk:         curve.RiskFor(score),
		Points:       curve.Project(in, daysAhead),
		Suggestion:   curve.SuggestReviewTiming(in),
	}
	if d, ok := curve.PredictThresholdBreach(in, 70); ok {
		p.BreachInDays = &d
	}
	return p, nil
}

// Package fsrs computes the next review schedule for an item from its current
// memory state and a recall grade. The stability and difficulty laws are
// FSRS-6; retention uses the exponential forgetting curve from package curve.
package fsrs

import (
	"fmt"
	"math"
	"time"

	apperrors "github.com/jgirmay/gaia-recall/internal/common/errors"
	"github.com/jgirmay/gaia-recall/internal/recall/curve"
	"github.com/jgirmay/gaia-recall/internal/recall/models"
)

// graduateAfterReps is the number of reviews after which a learning item is
// considered in long-term review.
const graduateAfterReps = 5

// Input is the memory state the scheduler reads.
type Input struct {
	Difficulty  float64
	Stability   float64 // policy units
	ReviewCount int
	LapseCount  int
	State       models.State
	Elapsed     float64 // policy units since the last review
}

// Result is the schedule computed for one review.
type Result struct {
	Difficulty        float64      `json:"difficulty" yaml:"difficulty"`
	Stability         float64      `json:"stability" yaml:"stability"`
	Interval          float64      `json:"interval" yaml:"interval"`
	NextReviewAt      *time.Time   `json:"next_review_at,omitempty" yaml:"next_review_at,omitempty"`
	ReviewAfterPoints *int         `json:"review_after_points,omitempty" yaml:"review_after_points,omitempty"`
	Reps              int          `json:"reps" yaml:"reps"`
	Lapses            int          `json:"lapses" yaml:"lapses"`
	State             models.State `json:"state" yaml:"state"`
	Retrievability    float64      `json:"retrievability" yaml:"retrievability"`
	Fallback          bool         `json:"fallback" yaml:"fallback"`
	FallbackReason    error        `json:"-" yaml:"-"`
}

// Scheduler is safe for concurrent use; it holds only configuration.
type Scheduler struct {
	cfg Config
}

// NewScheduler merges cfg with its policy defaults and validates it.
func NewScheduler(cfg Config) (*Scheduler, error) {
	cfg = cfg.Merge()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{cfg: cfg}, nil
}

// Config returns the effective configuration.
func (s *Scheduler) Config() Config { return s.cfg }

// Policy returns the due policy the scheduler writes.
func (s *Scheduler) Policy() models.DuePolicy { return s.cfg.Policy }

// Schedule computes the next state for grade. An invalid grade is an error;
// a malformed input state is not, it yields a flagged fallback result with
// the minimum interval.
func (s *Scheduler) Schedule(in Input, grade models.Grade, now time.Time) (Result, error) {
	if err := grade.Validate(); err != nil {
		return Result{}, err
	}
	if err := checkInput(in); err != nil {
		return s.fallback(in, grade, now, err), nil
	}

	reps := in.ReviewCount + 1
	lapses := in.LapseCount
	if grade == models.GradeAgain {
		lapses++
	}

	state := in.State
	if state == "" {
		state = DeriveState(in.ReviewCount, in.LapseCount)
	}

	scale := s.cfg.UnitsPerDay
	var (
		stability  float64
		difficulty float64
		r          = 1.0
	)
	if state == models.StateNew || in.ReviewCount == 0 {
		// First graded review seeds from the per-grade table.
		stability = s.cfg.InitialStability[grade-1]
		difficulty = nextDifficulty(models.DefaultDifficulty, grade)
	} else {
		// The laws are fitted in days.
		current := in.Stability / scale
		r = curve.Retention(in.Elapsed/scale, current)
		if grade == models.GradeAgain {
			stability = forgetStability(in.Difficulty, current, r) * scale
		} else {
			stability = recallStability(in.Difficulty, current, r, grade) * scale
		}
		difficulty = nextDifficulty(in.Difficulty, grade)
	}

	res := Result{
		Difficulty:     difficulty,
		Stability:      stability,
		Reps:           reps,
		Lapses:         lapses,
		State:          nextState(state, grade, reps),
		Retrievability: r,
	}
	s.setDue(&res, curve.IntervalFor(res.Stability, s.cfg.TargetRetention), now)
	return res, nil
}

// Preview schedules every grade for the same input.
func (s *Scheduler) Preview(in Input, now time.Time) map[models.Grade]Result {
	out := make(map[models.Grade]Result, len(models.AllGrades))
	for _, g := range models.AllGrades {
		res, _ := s.Schedule(in, g, now)
		out[g] = res
	}
	return out
}

// InputFor reads the scheduler input from a stored item. Elapsed is measured
// in the scheduler's policy units.
func (s *Scheduler) InputFor(item *models.ReviewItem, now time.Time) Input {
	in := Input{
		Difficulty:  item.Difficulty,
		Stability:   item.Stability,
		ReviewCount: item.ReviewCount,
		LapseCount:  item.LapseCount,
		State:       item.State,
	}
	switch s.cfg.Policy {
	case models.DuePolicyProgress:
		in.Elapsed = float64(item.PointsSinceReview)
	default:
		if item.LastReviewedAt != nil {
			in.Elapsed = now.Sub(*item.LastReviewedAt).Hours() / 24
		}
	}
	return in
}

// Review schedules a stored item and writes the result back onto it.
func (s *Scheduler) Review(item *models.ReviewItem, grade models.Grade, now time.Time) (Result, error) {
	res, err := s.Schedule(s.InputFor(item, now), grade, now)
	if err != nil {
		return Result{}, err
	}
	Apply(item, res, grade, now)
	return res, nil
}

// Apply copies a result onto item. Only the due fields of the result's
// policy are set; the other policy's fields are cleared.
func Apply(item *models.ReviewItem, res Result, grade models.Grade, now time.Time) {
	item.Difficulty = res.Difficulty
	item.Stability = res.Stability
	item.State = res.State
	item.ReviewCount = res.Reps
	item.LapseCount = res.Lapses
	item.LastReviewGrade = grade
	item.IntervalUnits = res.Interval
	item.NextReviewAt = res.NextReviewAt
	item.ReviewAfterPoints = res.ReviewAfterPoints
	if res.ReviewAfterPoints != nil {
		item.LastReviewPoints = item.PointsSinceReview
		item.PointsSinceReview = 0
	}
	t := now
	item.LastReviewedAt = &t
	item.UpdatedAt = now
}

// ResetStale puts a progress-scheduled item that has gone StaleMultiplier
// times past its threshold back into relearning with the minimum interval,
// due immediately. It reports whether the item was changed.
func (s *Scheduler) ResetStale(item *models.ReviewItem, now time.Time) bool {
	if s.cfg.Policy != models.DuePolicyProgress || item.Retired || item.ReviewAfterPoints == nil {
		return false
	}
	limit := float64(*item.ReviewAfterPoints) * s.cfg.StaleMultiplier
	if float64(item.PointsSinceReview) < limit {
		return false
	}
	minPoints := int(s.cfg.MinInterval)
	item.State = models.StateRelearning
	item.ReviewAfterPoints = &minPoints
	item.IntervalUnits = s.cfg.MinInterval
	item.Stability = s.cfg.InitialStability[models.GradeGood-1]
	item.PointsSinceReview = minPoints
	item.UpdatedAt = now
	return true
}

func (s *Scheduler) setDue(res *Result, rawInterval float64, now time.Time) {
	interval := math.Round(rawInterval)
	interval = math.Min(math.Max(interval, s.cfg.MinInterval), s.cfg.MaxInterval)
	res.Interval = interval

	switch s.cfg.Policy {
	case models.DuePolicyProgress:
		points := int(interval)
		res.ReviewAfterPoints = &points
	default:
		due := now.Add(time.Duration(interval * 24 * float64(time.Hour)))
		res.NextReviewAt = &due
	}
}

func (s *Scheduler) fallback(in Input, grade models.Grade, now time.Time, reason error) Result {
	reps := max(in.ReviewCount, 0) + 1
	lapses := max(in.LapseCount, 0)
	if grade == models.GradeAgain {
		lapses++
	}
	res := Result{
		Difficulty:     models.DefaultDifficulty,
		Stability:      s.cfg.InitialStability[grade-1],
		Reps:           reps,
		Lapses:         lapses,
		State:          models.StateLearning,
		Fallback:       true,
		FallbackReason: reason,
	}
	s.setDue(&res, s.cfg.MinInterval, now)
	return res
}

func checkInput(in Input) error {
	switch {
	case math.IsNaN(in.Difficulty) || math.IsInf(in.Difficulty, 0):
		return apperrors.MalformedState("difficulty is not a finite number")
	case in.Difficulty < models.MinDifficulty || in.Difficulty > models.MaxDifficulty:
		return apperrors.MalformedState(fmt.Sprintf("difficulty %v outside [1, 10]", in.Difficulty))
	case math.IsNaN(in.Stability) || math.IsInf(in.Stability, 0) || in.Stability <= 0:
		return apperrors.MalformedState(fmt.Sprintf("stability %v must be a positive number", in.Stability))
	case in.ReviewCount < 0 || in.LapseCount < 0:
		return apperrors.MalformedState(fmt.Sprintf("negative counts reps=%d lapses=%d", in.ReviewCount, in.LapseCount))
	case in.State != "" && !in.State.IsValid():
		return apperrors.MalformedState(fmt.Sprintf("unknown state %q", in.State))
	case math.IsNaN(in.Elapsed) || in.Elapsed < 0:
		return apperrors.MalformedState(fmt.Sprintf("elapsed %v must not be negative", in.Elapsed))
	}
	return nil
}

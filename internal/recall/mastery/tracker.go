// Package mastery maintains per-skill proficiency: the weighted blend of
// per-context success rates, lazy time decay, shields and review checks.
// Functions mutate the record passed in and never touch storage.
package mastery

import (
	"maps"
	"math"
	"slices"
	"time"

	apperrors "github.com/jgirmay/gaia-recall/internal/common/errors"
	"github.com/jgirmay/gaia-recall/internal/recall/curve"
	"github.com/jgirmay/gaia-recall/internal/recall/models"
)

// ContextWeights is how much each context contributes to proficiency. Adding
// a context only needs a new entry here.
var ContextWeights = map[models.ContextType]float64{
	models.ContextPractice:    0.2,
	models.ContextQuiz:        0.3,
	models.ContextLab:         0.4,
	models.ContextRealProject: 0.1,
}

// Config tunes the tracker.
type Config struct {
	DecayInterval        time.Duration
	ReviewScoreThreshold float64
	ReviewAfterDays      float64
}

// DefaultConfig recomputes decay at most daily and flags skills under 50 or
// idle for a week.
func DefaultConfig() Config {
	return Config{
		DecayInterval:        24 * time.Hour,
		ReviewScoreThreshold: 50,
		ReviewAfterDays:      7,
	}
}

// Tracker applies mastery rules. The zero value is not usable; use NewTracker.
type Tracker struct {
	cfg Config
}

func NewTracker(cfg Config) *Tracker {
	d := DefaultConfig()
	if cfg.DecayInterval <= 0 {
		cfg.DecayInterval = d.DecayInterval
	}
	if cfg.ReviewScoreThreshold <= 0 {
		cfg.ReviewScoreThreshold = d.ReviewScoreThreshold
	}
	if cfg.ReviewAfterDays <= 0 {
		cfg.ReviewAfterDays = d.ReviewAfterDays
	}
	return &Tracker{cfg: cfg}
}

func (t *Tracker) Config() Config { return t.cfg }

// Attempt is one observed use of a skill.
type Attempt struct {
	Success bool
	Context models.ContextType
	At      time.Time
	Session models.SessionContext
}

// Outcome reports what an attempt changed.
type Outcome struct {
	PreviousScore float64               `json:"previous_score" yaml:"previous_score"`
	Score         float64               `json:"score" yaml:"score"`
	NewlyMastered bool                  `json:"newly_mastered" yaml:"newly_mastered"`
	Session       models.SessionContext `json:"session" yaml:"session"`
}

// RecordAttempt folds one attempt into m and returns the updated session.
func (t *Tracker) RecordAttempt(m *models.CommandMastery, a Attempt) (Outcome, error) {
	if _, ok := ContextWeights[a.Context]; !ok {
		return Outcome{}, apperrors.InvalidContext(string(a.Context))
	}

	out := Outcome{PreviousScore: m.ProficiencyScore}

	m.TotalAttempts++
	cp := m.Contexts()
	stats := cp[a.Context]
	stats.Attempts++
	if a.Success {
		m.SuccessfulAttempts++
		stats.Successes++
		m.ConsecutiveSuccesses++
		m.ConsecutiveFailures = 0
	} else {
		m.ConsecutiveFailures++
		m.ConsecutiveSuccesses = 0
	}
	cp[a.Context] = stats
	m.SetContexts(cp)

	m.ProficiencyScore = BaseScore(m)

	if a.Success && m.Mastered() && m.FirstMasteredAt == nil {
		at := a.At
		chapters := a.Session.ChaptersCompleted
		m.FirstMasteredAt = &at
		m.ChaptersAtMastery = &chapters
		out.NewlyMastered = true
	}

	used := a.At
	m.LastUsedAt = &used
	m.UpdatedAt = a.At

	out.Score = m.ProficiencyScore
	out.Session = nextSession(a.Session, a.Success, m.ConsecutiveFailures)
	return out, nil
}

func nextSession(s models.SessionContext, success bool, consecutiveFailures int) models.SessionContext {
	if success {
		s.SessionScore = ApplySuccess(s.SessionScore, s)
		return s.NextExercise()
	}
	s.SessionScore = ApplyFailure(s.SessionScore, consecutiveFailures)
	s.PreviousFailures++
	s.AttemptNumber++
	return s
}

// WeightedProficiency blends per-context success rates with ContextWeights,
// renormalized over the contexts that have attempts. ok is false when no
// context has data. Contexts are summed in name order so the float result
// does not depend on map iteration.
func WeightedProficiency(cp models.ContextPerformance) (score float64, ok bool) {
	var weighted, total float64
	for _, ctx := range slices.Sorted(maps.Keys(ContextWeights)) {
		stats, seen := cp[ctx]
		if !seen || stats.Attempts <= 0 {
			continue
		}
		w := ContextWeights[ctx]
		weighted += stats.SuccessRate() * w
		total += w
	}
	if total == 0 {
		return 0, false
	}
	return curve.Round2(weighted / total * 100), true
}

// BaseScore is the undecayed proficiency implied by the counters: the
// weighted blend, else the raw success percentage, else the stored score.
func BaseScore(m *models.CommandMastery) float64 {
	if score, ok := WeightedProficiency(m.ContextPerformance.Data()); ok {
		return score
	}
	if m.TotalAttempts > 0 {
		return curve.Round2(float64(m.SuccessfulAttempts) / float64(m.TotalAttempts) * 100)
	}
	return m.ProficiencyScore
}

// ApplyDecay lowers the score for time since last use. It does nothing when
// the skill was never used or decay was computed within the decay interval,
// and it never raises the score. It reports whether the score changed.
func (t *Tracker) ApplyDecay(m *models.CommandMastery, now time.Time) bool {
	if m.LastUsedAt == nil {
		return false
	}
	if m.LastDecayCalculationAt != nil && now.Sub(*m.LastDecayCalculationAt) < t.cfg.DecayInterval {
		return false
	}

	decayed := curve.DecayedScore(BaseScore(m), daysBetween(*m.LastUsedAt, now))
	stamp := now
	m.LastDecayCalculationAt = &stamp

	if decayed >= m.ProficiencyScore {
		return false
	}
	m.ProficiencyScore = decayed
	m.UpdatedAt = now
	return true
}

// Shield thresholds in days since first mastery.
var shieldDays = []struct {
	level models.ShieldLevel
	days  float64
}{
	{models.ShieldPlatinum, 30},
	{models.ShieldGold, 14},
	{models.ShieldSilver, 7},
	{models.ShieldBronze, 3},
}

// Shield returns the level earned for holding mastery since FirstMasteredAt.
func Shield(m *models.CommandMastery, now time.Time) models.ShieldLevel {
	if m.FirstMasteredAt == nil {
		return models.ShieldNone
	}
	held := daysBetween(*m.FirstMasteredAt, now)
	for _, s := range shieldDays {
		if held >= s.days {
			return s.level
		}
	}
	return models.ShieldNone
}

// NeedsReview reports a score under the threshold or a skill idle for longer
// than the configured days. Unused skills need review.
func (t *Tracker) NeedsReview(m *models.CommandMastery, now time.Time) bool {
	return NeedsReviewWith(m, now, t.cfg.ReviewScoreThreshold, t.cfg.ReviewAfterDays)
}

func NeedsReviewWith(m *models.CommandMastery, now time.Time, scoreThreshold, days float64) bool {
	if m.ProficiencyScore < scoreThreshold {
		return true
	}
	if m.LastUsedAt == nil {
		return true
	}
	return daysBetween(*m.LastUsedAt, now) > days
}

// SuccessRate is successful/total over all contexts.
func SuccessRate(m *models.CommandMastery) float64 {
	if m.TotalAttempts <= 0 {
		return 0
	}
	return float64(m.SuccessfulAttempts) / float64(m.TotalAttempts)
}

// ContextSuccessRate is the success rate within one context.
func ContextSuccessRate(m *models.CommandMastery, ctx models.ContextType) float64 {
	return m.ContextPerformance.Data()[ctx].SuccessRate()
}

// ChaptersSinceMastery counts chapters completed after first mastery.
func ChaptersSinceMastery(m *models.CommandMastery, chaptersCompleted int) int {
	if m.ChaptersAtMastery == nil {
		return 0
	}
	return max(chaptersCompleted-*m.ChaptersAtMastery, 0)
}

// HybridInput builds the hybrid decay input for m at the learner's current
// path position.
func HybridInput(m *models.CommandMastery, now time.Time, chaptersCompleted int) curve.HybridInput {
	in := curve.HybridInput{
		BaseScore:            BaseScore(m),
		Stability:            m.Stability,
		ChaptersSinceMastery: ChaptersSinceMastery(m, chaptersCompleted),
	}
	if m.LastUsedAt != nil {
		in.DaysSinceUse = daysBetween(*m.LastUsedAt, now)
	}
	return in
}

// EstimateAttemptsNeeded guesses the successes needed to reach mastery.
func EstimateAttemptsNeeded(score float64) int {
	switch {
	case score >= 90:
		return 1
	case score >= 70:
		return 2
	case score >= 50:
		return 3
	default:
		return 4
	}
}

func daysBetween(from, to time.Time) float64 {
	return math.Max(to.Sub(from).Hours()/24, 0)
}

package mastery

import (
	"math"

	"github.com/jgirmay/gaia-recall/internal/recall/curve"
	"github.com/jgirmay/gaia-recall/internal/recall/models"
)

// Adaptive practice scoring. A success earns a boost toward a ceiling that
// depends on how much help the learner needed; a failure costs a share of the
// score that grows with consecutive failures.
const (
	sawAnswerBoost   = 15.0
	sawAnswerCeiling = 40.0
)

var retryCeilings = [...]float64{1: 100, 2: 75, 3: 65}

const lateRetryCeiling = 55.0

var failurePenalties = [...]float64{1: 0.10, 2: 0.20, 3: 0.35, 4: 0.50}

const maxFailurePenalty = 0.60

// SuccessCeiling is the highest score a success can reach in this session
// state.
func SuccessCeiling(s models.SessionContext) float64 {
	if s.SawAnswer {
		return sawAnswerCeiling
	}
	attempt := max(s.AttemptNumber, 1)
	if attempt < len(retryCeilings) {
		return retryCeilings[attempt]
	}
	return lateRetryCeiling
}

// Boost is the raw number of points a success adds to current.
func Boost(current float64, s models.SessionContext) float64 {
	if s.SawAnswer {
		return sawAnswerBoost
	}
	return math.Max(SuccessCeiling(s)-current, 0)
}

// ApplySuccess adds the boost, capped at the ceiling. It never lowers the
// score.
func ApplySuccess(current float64, s models.SessionContext) float64 {
	next := math.Min(current+Boost(current, s), SuccessCeiling(s))
	return curve.Round2(math.Max(current, next))
}

// Penalty is the share of the score lost on the nth consecutive failure.
func Penalty(consecutiveFailures int) float64 {
	if consecutiveFailures < 1 {
		return 0
	}
	if consecutiveFailures < len(failurePenalties) {
		return failurePenalties[consecutiveFailures]
	}
	return maxFailurePenalty
}

// ApplyFailure removes the penalty share from current.
func ApplyFailure(current float64, consecutiveFailures int) float64 {
	return curve.Round2(math.Max(current*(1-Penalty(consecutiveFailures)), 0))
}

package fsrs

import (
	"math"

	"github.com/jgirmay/gaia-recall/internal/recall/models"
)

// FSRS-6 default weights used by the stability and difficulty laws. Only the
// entries those laws read are kept; indices follow the published parameter
// vector.
const (
	w4  = 6.4133
	w5  = 0.8334
	w6  = 3.0194
	w7  = 0.001
	w8  = 1.8722
	w9  = 0.1666
	w10 = 0.796
	w11 = 1.4835
	w12 = 0.0614
	w13 = 0.2629
	w14 = 1.6483
	w15 = 0.6014 // hard penalty
	w16 = 1.8729 // easy bonus
	w17 = 0.5425
	w18 = 0.0912
)

// minStabilityDays keeps stability strictly positive after repeated lapses.
const minStabilityDays = 0.01

// minGrowth is the smallest stability multiplier a successful review
// applies, so that easy > good > hard > 1 holds even when recall was certain.
var minGrowth = [...]float64{
	models.GradeHard: 1.05,
	models.GradeGood: 1.2,
	models.GradeEasy: 1.5,
}

// recallStability is S' after a hard, good or easy review:
// S * (1 + e^w8 * (11-D) * S^-w9 * (e^((1-R)*w10) - 1) * hardPenalty * easyBonus).
func recallStability(d, s, r float64, g models.Grade) float64 {
	hardPenalty := 1.0
	if g == models.GradeHard {
		hardPenalty = w15
	}
	easyBonus := 1.0
	if g == models.GradeEasy {
		easyBonus = w16
	}
	next := s * (1 + math.Exp(w8)*
		(11-d)*
		math.Pow(s, -w9)*
		(math.Exp((1-r)*w10)-1)*
		hardPenalty*easyBonus)
	return math.Max(next, s*minGrowth[g])
}

// forgetStability is S' after a lapse: min(long-term, short-term), where the
// short-term term guarantees the result is below S.
func forgetStability(d, s, r float64) float64 {
	long := w11 *
		math.Pow(d, -w12) *
		(math.Pow(s+1, w13) - 1) *
		math.Exp((1-r)*w14)
	short := s / math.Exp(w17*w18)
	return math.Max(math.Min(long, short), minStabilityDays)
}

// nextDifficulty moves D against performance with linear damping toward the
// bounds, then a small mean reversion, clamped to [1, 10].
func nextDifficulty(d float64, g models.Grade) float64 {
	delta := -w6 * (float64(g) - 3)
	damped := d + (10-d)*delta/9
	easyAnchor := w4 - math.Exp(w5*3) + 1
	return clampDifficulty(w7*easyAnchor + (1-w7)*damped)
}

func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, models.MinDifficulty), models.MaxDifficulty)
}

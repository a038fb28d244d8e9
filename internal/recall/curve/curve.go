// Package curve holds the forgetting-curve model: retention probability for
// an item and time decay of a proficiency score. Everything here is pure and
// deterministic.
package curve

import "math"

// MemoryFloor is the "muscle memory" score a once-learned skill never decays
// below.
const MemoryFloor = 40.0

const (
	shortDecayBase    = 0.85 // retained after a full week
	shortDecayDays    = 7.0
	longDecayBase     = 0.5 // half-life
	longDecayDays     = 30.0
	noDecayWithinDays = 1.0
)

// Retention is the probability of recall after pointsSinceReview units with
// the given stability: exp(-points/stability). Zero elapsed units is full
// retention; a non-positive stability is treated as fully decayed.
func Retention(pointsSinceReview, stability float64) float64 {
	if pointsSinceReview <= 0 {
		return 1.0
	}
	if stability <= 0 {
		return 0.0
	}
	return math.Exp(-pointsSinceReview / stability)
}

// IntervalFor returns the elapsed units after which retention falls to target,
// solving Retention(t, stability) = target for t.
func IntervalFor(stability, target float64) float64 {
	if stability <= 0 || target <= 0 || target >= 1 {
		return 0
	}
	return -stability * math.Log(target)
}

// DecayedScore applies tiered decay to a 0-100 score after daysSinceUse days
// without practice. The result never exceeds base, and never drops below
// MemoryFloor. A base already under the floor is left as is.
func DecayedScore(base, daysSinceUse float64) float64 {
	if daysSinceUse <= noDecayWithinDays || base <= 0 {
		return Round2(base)
	}

	var decayed float64
	if daysSinceUse <= shortDecayDays {
		decayed = base * math.Pow(shortDecayBase, daysSinceUse/shortDecayDays)
	} else {
		// The long tier starts marginally above the short tier's 7-day value;
		// cap it there so the curve stays non-increasing across the join.
		decayed = math.Min(
			base*math.Pow(longDecayBase, daysSinceUse/longDecayDays),
			base*shortDecayBase,
		)
	}
	floor := math.Min(base, MemoryFloor)
	return Round2(math.Max(decayed, floor))
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

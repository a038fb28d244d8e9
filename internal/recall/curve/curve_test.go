package curve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetention(t *testing.T) {
	tests := []struct {
		name      string
		points    float64
		stability float64
		want      float64
	}{
		{"no elapsed units", 0, 10, 1.0},
		{"negative elapsed treated as none", -5, 10, 1.0},
		{"zero stability", 5, 0, 0.0},
		{"negative stability", 5, -1, 0.0},
		{"zero points wins over zero stability", 0, 0, 1.0},
		{"one stability worth of units", 10, 10, math.Exp(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Retention(tt.points, tt.stability), 1e-12)
		})
	}
}

func TestRetentionMonotonic(t *testing.T) {
	for s := 1.0; s <= 100; s *= 3 {
		prev := Retention(0, s)
		for p := 1.0; p <= 500; p += 7 {
			r := Retention(p, s)
			assert.Less(t, r, prev, "retention must fall as points grow (s=%v p=%v)", s, p)
			prev = r
		}
	}

	for p := 1.0; p <= 200; p *= 2 {
		prev := Retention(p, 0.5)
		for s := 1.0; s <= 400; s += 13 {
			r := Retention(p, s)
			assert.Greater(t, r, prev, "retention must rise with stability (p=%v s=%v)", p, s)
			prev = r
		}
	}
}

func TestIntervalFor(t *testing.T) {
	assert.InDelta(t, 0.2529, IntervalFor(2.4, 0.9), 1e-4)
	assert.InDelta(t, 0.9, Retention(IntervalFor(50, 0.9), 50), 1e-12)

	assert.Zero(t, IntervalFor(0, 0.9))
	assert.Zero(t, IntervalFor(10, 1))
	assert.Zero(t, IntervalFor(10, 0))
}

func TestDecayedScore(t *testing.T) {
	tests := []struct {
		name string
		base float64
		days float64
		want float64
	}{
		{"within a day", 90, 0.5, 90},
		{"exactly one day", 90, 1, 90},
		{"one week", 100, 7, 85},
		{"three days", 100, 3, 93.27},
		{"ten days", 90, 10, 71.43},
		{"sixty days", 100, 60, 40},
		{"floor", 100, 365, MemoryFloor},
		{"below floor never raised", 30, 90, 30},
		{"short tier floored", 45, 7, MemoryFloor},
		{"zero base", 0, 30, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DecayedScore(tt.base, tt.days), 0.005)
		})
	}
}

func TestDecayedScoreNonIncreasing(t *testing.T) {
	for _, base := range []float64{35, 55, 80, 100} {
		prev := DecayedScore(base, 0)
		for d := 0.0; d <= 200; d += 0.01 {
			got := DecayedScore(base, d)
			assert.LessOrEqual(t, got, prev, "base=%v day=%v", base, d)
			assert.LessOrEqual(t, got, base)
			if base > MemoryFloor {
				assert.GreaterOrEqual(t, got, MemoryFloor)
			}
			prev = got
		}
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 71.43, Round2(71.4284))
	assert.Equal(t, 2.5, Round2(2.499))
}

package fsrs

import (
	"github.com/jgirmay/gaia-recall/internal/common/validation"
	"github.com/jgirmay/gaia-recall/internal/recall/models"
)

// Config holds the deployment's scheduling constants. All stabilities and
// intervals are in policy units: days for the time policy, learning points
// for the progress policy.
type Config struct {
	Policy           models.DuePolicy `validate:"oneof=time progress"`
	TargetRetention  float64          `validate:"gt=0,lt=1"`
	InitialStability [4]float64       `validate:"increasing"` // again, hard, good, easy
	SeedStability    float64          `validate:"gt=0"`
	MinInterval      float64          `validate:"gt=0"`
	MaxInterval      float64          `validate:"gtefield=MinInterval"`
	UnitsPerDay      float64          `validate:"gt=0"`
	StaleMultiplier  float64          `validate:"gte=1"` // progress policy only
}

// TimeConfig is the day-based configuration.
func TimeConfig() Config {
	return Config{
		Policy:           models.DuePolicyTime,
		TargetRetention:  0.9,
		InitialStability: [4]float64{0.4, 0.6, 2.4, 5.8},
		SeedStability:    0.5,
		MinInterval:      1,
		MaxInterval:      365,
		UnitsPerDay:      1,
		StaleMultiplier:  3,
	}
}

// ProgressConfig is the learning-points configuration. A typical learner
// earns about 20 points a day.
func ProgressConfig() Config {
	return Config{
		Policy:           models.DuePolicyProgress,
		TargetRetention:  0.9,
		InitialStability: [4]float64{8, 12, 48, 116},
		SeedStability:    10,
		MinInterval:      20,
		MaxInterval:      7300,
		UnitsPerDay:      20,
		StaleMultiplier:  3,
	}
}

// DefaultConfig returns the defaults for a policy.
func DefaultConfig(policy models.DuePolicy) Config {
	if policy == models.DuePolicyProgress {
		return ProgressConfig()
	}
	return TimeConfig()
}

// Merge fills zero fields of c from the policy defaults.
func (c Config) Merge() Config {
	if c.Policy == "" {
		c.Policy = models.DuePolicyTime
	}
	d := DefaultConfig(c.Policy)
	if c.TargetRetention == 0 {
		c.TargetRetention = d.TargetRetention
	}
	if c.InitialStability == [4]float64{} {
		c.InitialStability = d.InitialStability
	}
	if c.SeedStability == 0 {
		c.SeedStability = d.SeedStability
	}
	if c.MinInterval == 0 {
		c.MinInterval = d.MinInterval
	}
	if c.MaxInterval == 0 {
		c.MaxInterval = d.MaxInterval
	}
	if c.UnitsPerDay == 0 {
		c.UnitsPerDay = d.UnitsPerDay
	}
	if c.StaleMultiplier == 0 {
		c.StaleMultiplier = d.StaleMultiplier
	}
	return c
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	return validation.Check("scheduler config", c)
}

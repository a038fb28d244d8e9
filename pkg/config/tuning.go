package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jgirmay/gaia-recall/internal/common/validation"
)

// Tuning overrides scheduler and mastery constants. Zero fields keep the
// policy defaults.
type Tuning struct {
	Scheduler SchedulerTuning `yaml:"scheduler"`
	Mastery   MasteryTuning   `yaml:"mastery"`
}

type SchedulerTuning struct {
	TargetRetention  float64    `yaml:"target_retention" validate:"omitempty,gt=0,lt=1"`
	InitialStability [4]float64 `yaml:"initial_stability" validate:"omitempty,increasing"`
	SeedStability    float64    `yaml:"seed_stability" validate:"omitempty,gt=0"`
	MinInterval      float64    `yaml:"min_interval" validate:"omitempty,gt=0"`
	MaxInterval      float64    `yaml:"max_interval" validate:"omitempty,gtefield=MinInterval"`
	UnitsPerDay      float64    `yaml:"units_per_day" validate:"omitempty,gt=0"`
	StaleMultiplier  float64    `yaml:"stale_multiplier" validate:"omitempty,gte=1"`
}

type MasteryTuning struct {
	DecayInterval        time.Duration `yaml:"decay_interval" validate:"omitempty,gt=0"`
	ReviewScoreThreshold float64       `yaml:"review_score_threshold" validate:"omitempty,gt=0,lte=100"`
	ReviewAfterDays      float64       `yaml:"review_after_days" validate:"omitempty,gt=0"`
}

// LoadTuning reads a YAML tuning file. Unknown keys and out-of-range values
// are rejected so a typo does not silently fall back to a default.
func LoadTuning(path string) (*Tuning, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tuning file: %w", err)
	}
	defer f.Close()
	return DecodeTuning(f)
}

func DecodeTuning(r io.Reader) (*Tuning, error) {
	var t Tuning
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse tuning file: %w", err)
	}
	if err := validation.Check("tuning file", t); err != nil {
		return nil, err
	}
	return &t, nil
}

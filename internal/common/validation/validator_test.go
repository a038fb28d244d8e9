package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jgirmay/gaia-recall/internal/common/errors"
)

type bounds struct {
	Low    float64    `yaml:"low" validate:"gt=0"`
	High   float64    `yaml:"high" validate:"gtefield=Low"`
	Steps  [3]float64 `yaml:"steps" validate:"increasing"`
	Name   string     `validate:"required"`
	Policy string     `yaml:"policy" validate:"omitempty,oneof=time progress"`
}

func TestValidate(t *testing.T) {
	ok := bounds{Low: 1, High: 2, Steps: [3]float64{1, 2, 3}, Name: "x"}
	assert.Empty(t, Validate(ok))
	assert.NoError(t, Check("bounds", ok))

	tests := []struct {
		name  string
		edit  func(b *bounds)
		field string
	}{
		{"zero low", func(b *bounds) { b.Low = 0 }, "bounds.low"},
		{"high below low", func(b *bounds) { b.High = 0.5 }, "bounds.high"},
		{"flat steps", func(b *bounds) { b.Steps = [3]float64{1, 1, 2} }, "bounds.steps"},
		{"negative step", func(b *bounds) { b.Steps = [3]float64{-1, 1, 2} }, "bounds.steps"},
		{"missing name", func(b *bounds) { b.Name = "" }, "bounds.Name"},
		{"unknown policy", func(b *bounds) { b.Policy = "weekly" }, "bounds.policy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ok
			tt.edit(&b)
			errs := Validate(b)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)

			err := Check("bounds", b)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrValidation))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidateNonStruct(t *testing.T) {
	errs := Validate(42)
	require.Len(t, errs, 1)
	assert.Empty(t, errs[0].Field)
}

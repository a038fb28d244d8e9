package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MasteredScore is the proficiency at which a skill counts as mastered.
const MasteredScore = 100.0

// ContextStats counts attempts and successes inside one context.
type ContextStats struct {
	Attempts  int `json:"attempts"`
	Successes int `json:"successes"`
}

// SuccessRate is successes/attempts, 0 when nothing was attempted.
func (s ContextStats) SuccessRate() float64 {
	if s.Attempts <= 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Attempts)
}

// ContextPerformance maps each context to its counters.
type ContextPerformance map[ContextType]ContextStats

// Clone returns an independent copy; a nil receiver clones to an empty map.
func (cp ContextPerformance) Clone() ContextPerformance {
	out := make(ContextPerformance, len(cp))
	for k, v := range cp {
		out[k] = v
	}
	return out
}

// CommandMastery is one aggregate per (user, canonical command or skill).
type CommandMastery struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;uniqueIndex:idx_mastery_user_command,priority:1" json:"user_id"`
	CanonicalCommand string    `gorm:"not null;size:128;uniqueIndex:idx_mastery_user_command,priority:2" json:"canonical_command"`
	Category         string    `gorm:"size:32;index" json:"category"`

	ProficiencyScore   float64                                `gorm:"not null;default:0" json:"proficiency_score"` // 0-100
	TotalAttempts      int                                    `gorm:"not null;default:0" json:"total_attempts"`
	SuccessfulAttempts int                                    `gorm:"not null;default:0" json:"successful_attempts"`
	ContextPerformance datatypes.JSONType[ContextPerformance] `gorm:"not null" json:"context_performance"`

	ConsecutiveSuccesses int `gorm:"not null;default:0" json:"consecutive_successes"`
	ConsecutiveFailures  int `gorm:"not null;default:0" json:"consecutive_failures"`

	// Stability in days, used by the hybrid decay projection. Zero means default.
	Stability float64 `gorm:"not null;default:0" json:"stability"`

	LastUsedAt             *time.Time `gorm:"index" json:"last_used_at,omitempty"`
	FirstMasteredAt        *time.Time `json:"first_mastered_at,omitempty"`
	ChaptersAtMastery      *int       `json:"chapters_at_mastery,omitempty"`
	LastDecayCalculationAt *time.Time `json:"last_decay_calculation_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CommandMastery) TableName() string { return "command_masteries" }

// NewCommandMastery returns the record created on the first attempt at a skill.
func NewCommandMastery(userID uint, command, category string, now time.Time) *CommandMastery {
	return &CommandMastery{
		ID:                 uuid.New(),
		UserID:             userID,
		CanonicalCommand:   command,
		Category:           category,
		ContextPerformance: datatypes.NewJSONType(ContextPerformance{}),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Contexts returns a private copy of the per-context counters.
func (m *CommandMastery) Contexts() ContextPerformance {
	return m.ContextPerformance.Data().Clone()
}

// SetContexts replaces the per-context counters.
func (m *CommandMastery) SetContexts(cp ContextPerformance) {
	m.ContextPerformance = datatypes.NewJSONType(cp.Clone())
}

// Mastered reports whether the score is at the mastery threshold.
func (m *CommandMastery) Mastered() bool {
	return m.ProficiencyScore >= MasteredScore
}

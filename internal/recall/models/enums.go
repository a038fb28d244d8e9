package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/jgirmay/gaia-recall/internal/common/errors"
)

// Grade is the learner's self-assessed recall quality for one review.
type Grade int

const (
	GradeAgain Grade = iota + 1 // forgot
	GradeHard                   // recalled with significant difficulty
	GradeGood                   // recalled with some effort
	GradeEasy                   // recalled effortlessly
)

var gradeNames = [...]string{GradeAgain: "again", GradeHard: "hard", GradeGood: "good", GradeEasy: "easy"}

// AllGrades lists the valid grades in ascending order.
var AllGrades = []Grade{GradeAgain, GradeHard, GradeGood, GradeEasy}

// IsValid reports whether g is one of again, hard, good or easy.
func (g Grade) IsValid() bool {
	return g >= GradeAgain && g <= GradeEasy
}

func (g Grade) String() string {
	if g.IsValid() {
		return gradeNames[g]
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

// Validate returns an INVALID_GRADE error for anything outside 1..4.
func (g Grade) Validate() error {
	if !g.IsValid() {
		return apperrors.InvalidGrade(int(g))
	}
	return nil
}

// ParseGrade accepts either the grade name or its number.
func ParseGrade(s string) (Grade, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for g := GradeAgain; g <= GradeEasy; g++ {
		if gradeNames[g] == s {
			return g, nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperrors.InvalidGrade(0)
	}
	g := Grade(n)
	return g, g.Validate()
}

// MarshalText implements encoding.TextMarshaler. The zero grade encodes as
// empty text.
func (g Grade) MarshalText() ([]byte, error) {
	if g == 0 {
		return []byte{}, nil
	}
	if !g.IsValid() {
		return nil, apperrors.InvalidGrade(int(g))
	}
	return []byte(gradeNames[g]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Grade) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*g = 0
		return nil
	}
	v, err := ParseGrade(string(text))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// MarshalJSON writes the grade as its name; the zero grade (never reviewed)
// is written as null.
func (g Grade) MarshalJSON() ([]byte, error) {
	if g == 0 {
		return []byte("null"), nil
	}
	text, err := g.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON accepts a grade name, a number, or null.
func (g *Grade) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*g = 0
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return apperrors.InvalidGrade(0)
		}
		v := Grade(n)
		if err := v.Validate(); err != nil {
			return err
		}
		*g = v
		return nil
	}
	return g.UnmarshalText([]byte(s))
}

// State is the learning stage of a review item.
type State string

const (
	StateNew        State = "new"
	StateLearning   State = "learning"
	StateReview     State = "review"
	StateRelearning State = "relearning"
)

// IsValid reports whether s is a known state.
func (s State) IsValid() bool {
	switch s {
	case StateNew, StateLearning, StateReview, StateRelearning:
		return true
	}
	return false
}

// ContextType is the activity in which a mastery attempt happened.
type ContextType string

const (
	ContextPractice    ContextType = "practice"
	ContextQuiz        ContextType = "quiz"
	ContextLab         ContextType = "lab"
	ContextRealProject ContextType = "real_project"
)

// ParseContextType validates a context name.
func ParseContextType(s string) (ContextType, error) {
	c := ContextType(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case ContextPractice, ContextQuiz, ContextLab, ContextRealProject:
		return c, nil
	}
	return "", apperrors.InvalidContext(s)
}

// ShieldLevel is the gamification tier earned by staying mastered.
type ShieldLevel string

const (
	ShieldNone     ShieldLevel = ""
	ShieldBronze   ShieldLevel = "bronze"
	ShieldSilver   ShieldLevel = "silver"
	ShieldGold     ShieldLevel = "gold"
	ShieldPlatinum ShieldLevel = "platinum"
)

// DuePolicy selects how review due-ness is measured for a deployment.
type DuePolicy string

const (
	DuePolicyTime     DuePolicy = "time"
	DuePolicyProgress DuePolicy = "progress"
)

// ParseDuePolicy validates a due policy name.
func ParseDuePolicy(s string) (DuePolicy, error) {
	switch p := DuePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case DuePolicyTime, DuePolicyProgress:
		return p, nil
	}
	return "", apperrors.Validation("unknown due policy", s)
}

func (p DuePolicy) IsValid() bool {
	return p == DuePolicyTime || p == DuePolicyProgress
}

package models

// SessionContext is the orchestrator-owned state of an in-progress adaptive
// practice session. It is passed into the core and returned updated; the core
// keeps no session state of its own.
type SessionContext struct {
	// Position in the learner's path, used for mastery snapshots and
	// interference decay.
	ChaptersCompleted int `json:"chapters_completed" yaml:"chapters_completed"`

	// Per-exercise adaptive state.
	AttemptNumber    int     `json:"attempt_number" yaml:"attempt_number"`
	PreviousFailures int     `json:"previous_failures" yaml:"previous_failures"`
	HintsUsed        int     `json:"hints_used" yaml:"hints_used"`
	SawAnswer        bool    `json:"saw_answer" yaml:"saw_answer"`
	SessionScore     float64 `json:"session_score" yaml:"session_score"`
}

// NextExercise resets the per-exercise fields, keeping path position and score.
func (s SessionContext) NextExercise() SessionContext {
	return SessionContext{
		ChaptersCompleted: s.ChaptersCompleted,
		SessionScore:      s.SessionScore,
	}
}

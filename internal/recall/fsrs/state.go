package fsrs

import "github.com/jgirmay/gaia-recall/internal/recall/models"

// DeriveState infers a state from the review counters alone. It is used when
// a stored item carries no state.
func DeriveState(reps, lapses int) models.State {
	switch {
	case reps <= 0:
		return models.StateNew
	case lapses > 0 && reps < graduateAfterReps:
		return models.StateRelearning
	case reps < graduateAfterReps:
		return models.StateLearning
	default:
		return models.StateReview
	}
}

// nextState applies the allowed transitions: new -> learning -> review,
// review -> relearning on a lapse, relearning -> review on recovery.
func nextState(current models.State, grade models.Grade, reps int) models.State {
	if grade == models.GradeAgain {
		if current == models.StateReview || current == models.StateRelearning {
			return models.StateRelearning
		}
		return models.StateLearning
	}
	switch current {
	case models.StateReview, models.StateRelearning:
		return models.StateReview
	}
	if reps < graduateAfterReps {
		return models.StateLearning
	}
	return models.StateReview
}

// GradeFromScore maps a 0-100 performance percentage to a grade.
func GradeFromScore(score float64) models.Grade {
	switch {
	case score < 40:
		return models.GradeAgain
	case score < 70:
		return models.GradeHard
	case score < 90:
		return models.GradeGood
	default:
		return models.GradeEasy
	}
}

package curve

import "math"

// Hybrid decay combines time-based forgetting with interference from new
// material learned since the skill was mastered.
const (
	DefaultStability          = 7.0  // days
	InterferencePerChapter    = 0.02 // score share lost per chapter
	ProtectedRecentChapters   = 2
	MaxInterferenceChapters   = 20
	ChapterEveryDays          = 3.0 // projection assumption
	justMasteredWithinDays    = 1.0 / 24
	breachSearchHorizonInDays = 30
)

// RiskLevel buckets a decayed score for review urgency.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "safe"
	RiskWatch    RiskLevel = "watch"
	RiskAtRisk   RiskLevel = "risk"
	RiskCritical RiskLevel = "critical"
)

// RiskFor classifies a score: safe >= 90, watch >= 70, risk >= 60, else critical.
func RiskFor(score float64) RiskLevel {
	switch {
	case score >= 90:
		return RiskSafe
	case score >= 70:
		return RiskWatch
	case score >= 60:
		return RiskAtRisk
	default:
		return RiskCritical
	}
}

// HybridInput is the state needed to project a skill's decayed score.
type HybridInput struct {
	BaseScore            float64
	DaysSinceUse         float64
	Stability            float64 // days; zero uses DefaultStability
	ChaptersSinceMastery int
}

func (in HybridInput) stability() float64 {
	if in.Stability > 0 {
		return in.Stability
	}
	return DefaultStability
}

// InterferenceFactor is 1.0 for the protected recent chapters and loses
// InterferencePerChapter for each further chapter, up to the cap.
func InterferenceFactor(chapters int) float64 {
	effective := chapters - ProtectedRecentChapters
	if effective <= 0 {
		return 1.0
	}
	if effective > MaxInterferenceChapters {
		effective = MaxInterferenceChapters
	}
	return 1.0 - float64(effective)*InterferencePerChapter
}

// HybridScore is base x time retention x interference, floored at
// MemoryFloor (or at base, if base was already below the floor). A skill used
// within the last hour does not decay.
func HybridScore(in HybridInput) float64 {
	if in.DaysSinceUse < justMasteredWithinDays {
		return Round2(in.BaseScore)
	}
	return in.scoreAt(in.DaysSinceUse, in.ChaptersSinceMastery)
}

func (in HybridInput) scoreAt(days float64, chapters int) float64 {
	combined := in.BaseScore * Retention(days, in.stability()) * InterferenceFactor(chapters)
	floor := math.Min(in.BaseScore, MemoryFloor)
	return Round2(math.Max(combined, floor))
}

// ProjectionPoint is one day of a decay projection.
type ProjectionPoint struct {
	Day                 int       `json:"day" yaml:"day"`
	Chapters            int       `json:"chapters" yaml:"chapters"`
	Score               float64   `json:"score" yaml:"score"`
	RetentionPercent    float64   `json:"retention_percent" yaml:"retention_percent"`
	InterferencePercent float64   `json:"interference_percent" yaml:"interference_percent"`
	Risk                RiskLevel `json:"risk" yaml:"risk"`
}

// Project simulates the score for each of the next daysAhead days, assuming
// one chapter completed every ChapterEveryDays days.
func Project(in HybridInput, daysAhead int) []ProjectionPoint {
	if daysAhead < 0 {
		daysAhead = 0
	}
	out := make([]ProjectionPoint, 0, daysAhead+1)
	for day := 0; day <= daysAhead; day++ {
		chaptersAhead := int(math.Floor(float64(day) / ChapterEveryDays))
		totalDays := in.DaysSinceUse + float64(day)
		totalChapters := in.ChaptersSinceMastery + chaptersAhead
		score := in.scoreAt(totalDays, totalChapters)
		out = append(out, ProjectionPoint{
			Day:                 day,
			Chapters:            totalChapters,
			Score:               score,
			RetentionPercent:    math.Round(Retention(totalDays, in.stability())*1000) / 10,
			InterferencePercent: math.Round(InterferenceFactor(totalChapters)*1000) / 10,
			Risk:                RiskFor(score),
		})
	}
	return out
}

// PredictThresholdBreach returns how many days from now the projected score
// first drops below threshold. Zero means it is already below; ok is false
// when no breach happens within the search horizon.
func PredictThresholdBreach(in HybridInput, threshold float64) (days int, ok bool) {
	if HybridScore(in) < threshold {
		return 0, true
	}
	for d := 1; d <= breachSearchHorizonInDays; d++ {
		chaptersAhead := int(math.Floor(float64(d) / ChapterEveryDays))
		if in.scoreAt(in.DaysSinceUse+float64(d), in.ChaptersSinceMastery+chaptersAhead) < threshold {
			return d, true
		}
	}
	return 0, false
}

// ReviewSuggestion tells the learner when to come back to a skill.
type ReviewSuggestion struct {
	Urgency string    `json:"urgency" yaml:"urgency"`
	Days    int       `json:"days" yaml:"days"`
	Risk    RiskLevel `json:"risk" yaml:"risk"`
	Reason  string    `json:"reason" yaml:"reason"`
}

// SuggestReviewTiming maps the current hybrid score to a review recommendation.
func SuggestReviewTiming(in HybridInput) ReviewSuggestion {
	risk := RiskFor(HybridScore(in))
	switch risk {
	case RiskCritical:
		return ReviewSuggestion{Urgency: "immediate", Days: 0, Risk: risk, Reason: "score below 60%, review now"}
	case RiskAtRisk:
		return ReviewSuggestion{Urgency: "high", Days: 1, Risk: risk, Reason: "score below 70%, review within 24 hours"}
	case RiskWatch:
		days := 3
		if d, ok := PredictThresholdBreach(in, 70); ok && d/2 < days {
			days = d / 2
		}
		return ReviewSuggestion{Urgency: "medium", Days: days, Risk: risk, Reason: "preventive review recommended"}
	default:
		days := 7
		if d, ok := PredictThresholdBreach(in, 80); ok {
			days = int(math.Round(math.Min(float64(d)*0.7, 7)))
		}
		return ReviewSuggestion{Urgency: "low", Days: days, Risk: risk, Reason: "maintenance review"}
	}
}

package mastery

import (
	"time"

	"github.com/jgirmay/gaia-recall/internal/recall/canonical"
	"github.com/jgirmay/gaia-recall/internal/recall/curve"
	"github.com/jgirmay/gaia-recall/internal/recall/models"
)

const recentWindow = 7 * 24 * time.Hour

type CategoryStats struct {
	Category   string  `json:"category" yaml:"category"`
	Total      int     `json:"total" yaml:"total"`
	Mastered   int     `json:"mastered" yaml:"mastered"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
}

type RecentProgress struct {
	CommandsPracticed int     `json:"commands_practiced" yaml:"commands_practiced"`
	NewMasteries      int     `json:"new_masteries" yaml:"new_masteries"`
	AverageScore      float64 `json:"average_score" yaml:"average_score"`
}

// Stats summarises a learner's masteries.
type Stats struct {
	TotalCommands     int                        `json:"total_commands" yaml:"total_commands"`
	Mastered          int                        `json:"mastered" yaml:"mastered"`
	NeedsPractice     int                        `json:"needs_practice" yaml:"needs_practice"`
	MasteryPercentage float64                    `json:"mastery_percentage" yaml:"mastery_percentage"`
	Categories        []CategoryStats            `json:"categories" yaml:"categories"`
	Recent            RecentProgress             `json:"recent_progress" yaml:"recent_progress"`
	Shields           map[models.ShieldLevel]int `json:"shields" yaml:"shields"`
}

// Stats aggregates masteries, optionally restricted to one category.
func (t *Tracker) Stats(masteries []*models.CommandMastery, category string, now time.Time) Stats {
	st := Stats{
		Shields: map[models.ShieldLevel]int{
			models.ShieldBronze:   0,
			models.ShieldSilver:   0,
			models.ShieldGold:     0,
			models.ShieldPlatinum: 0,
		},
	}

	byCategory := make(map[string]*CategoryStats)
	for _, c := range canonical.Categories() {
		byCategory[c] = &CategoryStats{Category: c}
	}

	var recentScoreSum float64
	for _, m := range masteries {
		cat := m.Category
		if cat == "" {
			cat = canonical.Category(m.CanonicalCommand)
		}
		if cs, ok := byCategory[cat]; ok {
			cs.Total++
			if m.Mastered() {
				cs.Mastered++
			}
		}
		if category != "" && cat != category {
			continue
		}

		st.TotalCommands++
		if m.Mastered() {
			st.Mastered++
			if level := Shield(m, now); level != models.ShieldNone {
				st.Shields[level]++
			}
		}
		if t.NeedsReview(m, now) {
			st.NeedsPractice++
		}
		if m.LastUsedAt != nil && now.Sub(*m.LastUsedAt) < recentWindow {
			st.Recent.CommandsPracticed++
			recentScoreSum += m.ProficiencyScore
			if m.FirstMasteredAt != nil && now.Sub(*m.FirstMasteredAt) < recentWindow {
				st.Recent.NewMasteries++
			}
		}
	}

	st.MasteryPercentage = percent(st.Mastered, st.TotalCommands)
	if st.Recent.CommandsPracticed > 0 {
		st.Recent.AverageScore = curve.Round2(recentScoreSum / float64(st.Recent.CommandsPracticed))
	}
	for _, c := range canonical.Categories() {
		cs := byCategory[c]
		cs.Percentage = percent(cs.Mastered, cs.Total)
		st.Categories = append(st.Categories, *cs)
	}
	return st
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return curve.Round2(float64(part) / float64(whole) * 100)
}

// Gate statuses.
const (
	GateOK      = "ok"
	GateBlocked = "blocked"
)

// RemedialDrill describes practice owed on one blocking command.
type RemedialDrill struct {
	Command        string   `json:"command" yaml:"command"`
	Label          string   `json:"label" yaml:"label"`
	CurrentScore   float64  `json:"current_score" yaml:"current_score"`
	AttemptsNeeded int      `json:"attempts_needed" yaml:"attempts_needed"`
	Examples       []string `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// GateResult says whether a learner may move on to applying a set of
// commands.
type GateResult struct {
	Status          string          `json:"status" yaml:"status"`
	Message         string          `json:"message" yaml:"message"`
	Commands        []string        `json:"commands,omitempty" yaml:"commands,omitempty"`
	BlockedCommands []string        `json:"blocked_commands,omitempty" yaml:"blocked_commands,omitempty"`
	RemedialDrills  []RemedialDrill `json:"remedial_drills,omitempty" yaml:"remedial_drills,omitempty"`
}

// CheckGate requires every command in required to be mastered after decay.
// masteries is keyed by canonical command; missing entries count as never
// practised. Decay is applied in place to the records passed in.
func (t *Tracker) CheckGate(required []string, masteries map[string]*models.CommandMastery, now time.Time) GateResult {
	if len(required) == 0 {
		return GateResult{Status: GateOK, Message: "No command requirements"}
	}

	var res GateResult
	seen := make(map[string]bool, len(required))
	for _, cmd := range required {
		if seen[cmd] {
			continue
		}
		seen[cmd] = true

		m := masteries[cmd]
		score := 0.0
		if m != nil {
			t.ApplyDecay(m, now)
			score = m.ProficiencyScore
			if m.Mastered() {
				res.Commands = append(res.Commands, canonical.Label(cmd))
				continue
			}
		}
		res.BlockedCommands = append(res.BlockedCommands, cmd)
		res.RemedialDrills = append(res.RemedialDrills, RemedialDrill{
			Command:        cmd,
			Label:          canonical.Label(cmd),
			CurrentScore:   score,
			AttemptsNeeded: EstimateAttemptsNeeded(score),
			Examples:       canonical.Examples(cmd),
		})
	}

	if len(res.BlockedCommands) == 0 {
		res.Status = GateOK
		res.Message = "All commands mastered"
		return res
	}
	res.Status = GateBlocked
	res.Message = "Master these commands first (100% required)"
	res.Commands = nil
	return res
}

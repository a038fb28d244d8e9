package queue

import (
	"bytes"
	"math"
	"sort"
	"strings"
	"time"

	apperrors "github.com/jgirmay/gaia-recall/internal/common/errors"
	"github.com/jgirmay/gaia-recall/internal/recall/curve"
	"github.com/jgirmay/gaia-recall/internal/recall/models"
)

// Stability thresholds, in days, used to bucket items.
const (
	masteredStabilityDays = 21.0
	learningStabilityDays = 2.0
	strugglingLapses      = 3
	easyDifficulty        = 4.0
	hardDifficulty        = 7.0
	streakCapDays         = 365
)

// ItemLevel is a coarse mastery label for one review item.
type ItemLevel string

const (
	LevelNew        ItemLevel = "new"
	LevelLearning   ItemLevel = "learning"
	LevelProficient ItemLevel = "proficient"
	LevelMastered   ItemLevel = "mastered"
	LevelStruggling ItemLevel = "struggling"
)

// ItemStats describes one item's memory state at a point in time. Interval
// and UntilDue are in policy units.
type ItemStats struct {
	Ref               models.ItemRef `json:"ref" yaml:"ref"`
	State             models.State   `json:"state" yaml:"state"`
	Difficulty        float64        `json:"difficulty" yaml:"difficulty"`
	Stability         float64        `json:"stability" yaml:"stability"`
	ReviewCount       int            `json:"review_count" yaml:"review_count"`
	LapseCount        int            `json:"lapse_count" yaml:"lapse_count"`
	SuccessRate       float64        `json:"success_rate" yaml:"success_rate"`
	Retention         float64        `json:"retention" yaml:"retention"`
	Level             ItemLevel      `json:"level" yaml:"level"`
	Interval          float64        `json:"interval" yaml:"interval"`
	NextReviewAt      *time.Time     `json:"next_review_at,omitempty" yaml:"next_review_at,omitempty"`
	ReviewAfterPoints *int           `json:"review_after_points,omitempty" yaml:"review_after_points,omitempty"`
	UntilDue          float64        `json:"until_due" yaml:"until_due"`
	Overdue           bool           `json:"overdue" yaml:"overdue"`
}

// ItemSuccessRate is the share of reviews that were not lapses, as a
// percentage.
func ItemSuccessRate(item *models.ReviewItem) float64 {
	if item.ReviewCount == 0 {
		return 0
	}
	return curve.Round2(float64(item.ReviewCount-item.LapseCount) / float64(item.ReviewCount) * 100)
}

// LevelFor labels an item from its stability in days and success rate.
func LevelFor(item *models.ReviewItem, unitsPerDay float64) ItemLevel {
	days := item.Stability / perDay(unitsPerDay)
	rate := ItemSuccessRate(item)
	switch {
	case days > 30 && rate > 90:
		return LevelMastered
	case days > 14 && rate > 80:
		return LevelProficient
	case days > 7 && rate > 70:
		return LevelLearning
	case item.ReviewCount > 3 && rate < 50:
		return LevelStruggling
	}
	return LevelNew
}

// CurrentRetention is the recall probability right now. An item never
// reviewed counts as fully retained.
func (m *Manager) CurrentRetention(item *models.ReviewItem, now time.Time) float64 {
	if item.LastReviewedAt == nil {
		return 1
	}
	return curve.Round2(curve.Retention(m.elapsed(item, now), item.Stability))
}

// ItemStats reports item's memory state as of now.
func (m *Manager) ItemStats(item *models.ReviewItem, now time.Time, unitsPerDay float64) ItemStats {
	st := ItemStats{
		Ref:               item.Ref(),
		State:             item.State,
		Difficulty:        item.Difficulty,
		Stability:         item.Stability,
		ReviewCount:       item.ReviewCount,
		LapseCount:        item.LapseCount,
		SuccessRate:       ItemSuccessRate(item),
		Retention:         m.CurrentRetention(item, now),
		Level:             LevelFor(item, unitsPerDay),
		Interval:          item.IntervalUnits,
		NextReviewAt:      item.NextReviewAt,
		ReviewAfterPoints: item.ReviewAfterPoints,
	}
	if m.scheduled(item) {
		over := m.policy.Overdue(item, now)
		st.Overdue = over > 0
		if over < 0 {
			st.UntilDue = math.Ceil(-over)
		}
	}
	return st
}

// Criteria selects a subset of a learner's items.
type Criteria string

const (
	CriteriaOverdue    Criteria = "overdue"
	CriteriaDueToday   Criteria = "due_today"
	CriteriaStruggling Criteria = "struggling"
	CriteriaNew        Criteria = "new"
)

// AllCriteria lists the supported criteria.
var AllCriteria = []Criteria{CriteriaOverdue, CriteriaDueToday, CriteriaStruggling, CriteriaNew}

func ParseCriteria(s string) (Criteria, error) {
	c := Criteria(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllCriteria {
		if c == known {
			return c, nil
		}
	}
	return "", apperrors.Validation("unknown item criteria", s)
}

// ItemsByCriteria filters userID's active items.
//
//   - overdue: more than a day's worth of units past due, most urgent first
//   - due_today: due within the rest of today but not overdue, most urgent first
//   - struggling: three or more lapses, most lapses first
//   - new: reviewed at most once, oldest first
func (m *Manager) ItemsByCriteria(userID uint, items []*models.ReviewItem, c Criteria, now time.Time, unitsPerDay float64) []*models.ReviewItem {
	upd := perDay(unitsPerDay)
	var out []*models.ReviewItem
	for _, it := range m.active(userID, items) {
		var keep bool
		switch c {
		case CriteriaOverdue:
			keep = m.scheduled(it) && m.policy.Overdue(it, now) > upd
		case CriteriaDueToday:
			over := m.policy.Overdue(it, now)
			keep = m.scheduled(it) && over <= upd && over >= -m.restOfToday(now, upd)
		case CriteriaStruggling:
			keep = it.LapseCount >= strugglingLapses
		case CriteriaNew:
			keep = it.ReviewCount <= 1
		}
		if keep {
			out = append(out, it)
		}
	}

	switch c {
	case CriteriaOverdue, CriteriaDueToday:
		m.sortByUrgency(out, now, upd)
	case CriteriaStruggling:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].LapseCount != out[j].LapseCount {
				return out[i].LapseCount > out[j].LapseCount
			}
			return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
		})
	case CriteriaNew:
		sort.SliceStable(out, func(i, j int) bool {
			if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].CreatedAt.Before(out[j].CreatedAt)
			}
			return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
		})
	}
	return out
}

type Overview struct {
	TotalItems int `json:"total_items" yaml:"total_items"`
	Due        int `json:"due" yaml:"due"`
	Overdue    int `json:"overdue" yaml:"overdue"`
	Mastered   int `json:"mastered" yaml:"mastered"`
	Learning   int `json:"learning" yaml:"learning"`
	New        int `json:"new" yaml:"new"`
}

type RetentionStats struct {
	Average        float64 `json:"average" yaml:"average"`
	Predicted30Day float64 `json:"predicted_30_day" yaml:"predicted_30_day"`
	Predicted90Day float64 `json:"predicted_90_day" yaml:"predicted_90_day"`
	SuccessRate    float64 `json:"success_rate" yaml:"success_rate"`
}

type EfficiencyStats struct {
	DailyReviewBurden float64 `json:"daily_review_burden" yaml:"daily_review_burden"`
	OptimalBurden     float64 `json:"optimal_burden" yaml:"optimal_burden"`
	EfficiencyRatio   float64 `json:"efficiency_ratio" yaml:"efficiency_ratio"`
	AverageInterval   float64 `json:"average_interval_days" yaml:"average_interval_days"`
}

type DifficultyStats struct {
	Average             float64 `json:"average" yaml:"average"`
	Easy                int     `json:"easy" yaml:"easy"`
	Medium              int     `json:"medium" yaml:"medium"`
	Hard                int     `json:"hard" yaml:"hard"`
	EasyRatio           float64 `json:"easy_ratio" yaml:"easy_ratio"`
	MediumRatio         float64 `json:"medium_ratio" yaml:"medium_ratio"`
	HighDifficultyRatio float64 `json:"high_difficulty_ratio" yaml:"high_difficulty_ratio"`
}

type ProgressStats struct {
	TotalReviews          int     `json:"total_reviews" yaml:"total_reviews"`
	TotalLapses           int     `json:"total_lapses" yaml:"total_lapses"`
	AverageReviewsPerItem float64 `json:"average_reviews_per_item" yaml:"average_reviews_per_item"`
	ReviewedToday         int     `json:"reviewed_today" yaml:"reviewed_today"`
	StreakDays            int     `json:"streak_days" yaml:"streak_days"`
}

// Forecast counts items that come due soon. Items already due are not
// included.
type Forecast struct {
	DueTomorrow     int `json:"due_tomorrow" yaml:"due_tomorrow"`
	DueThisWeek     int `json:"due_this_week" yaml:"due_this_week"`
	MinutesTomorrow int `json:"minutes_tomorrow" yaml:"minutes_tomorrow"`
	MinutesThisWeek int `json:"minutes_this_week" yaml:"minutes_this_week"`
}

// UserStats is the full analytics summary of a learner's review items.
type UserStats struct {
	Overview   Overview        `json:"overview" yaml:"overview"`
	Retention  RetentionStats  `json:"retention" yaml:"retention"`
	Efficiency EfficiencyStats `json:"efficiency" yaml:"efficiency"`
	Difficulty DifficultyStats `json:"difficulty" yaml:"difficulty"`
	Progress   ProgressStats   `json:"progress" yaml:"progress"`
	Forecast   Forecast        `json:"forecast" yaml:"forecast"`
}

// UserStats summarises userID's active items. Stabilities and intervals
// are converted to days with unitsPerDay.
func (m *Manager) UserStats(userID uint, items []*models.ReviewItem, now time.Time, unitsPerDay float64) UserStats {
	upd := perDay(unitsPerDay)
	active := m.active(userID, items)
	var st UserStats
	n := len(active)
	st.Overview.TotalItems = n
	if n == 0 {
		return st
	}

	var retention, r30, r90, burden, interval, difficulty float64
	reviewedDays := make(map[string]bool)
	today := dayKey(now)
	for _, it := range active {
		days := it.Stability / upd
		switch {
		case days > masteredStabilityDays:
			st.Overview.Mastered++
		case days >= learningStabilityDays:
			st.Overview.Learning++
		default:
			st.Overview.New++
		}
		if m.scheduled(it) {
			over := m.policy.Overdue(it, now)
			if m.policy.IsDue(it, now) {
				st.Overview.Due++
			}
			if over > upd {
				st.Overview.Overdue++
			}
			if !m.policy.IsDue(it, now) {
				if -over <= upd {
					st.Forecast.DueTomorrow++
				}
				if -over <= 7*upd {
					st.Forecast.DueThisWeek++
				}
			}
		}

		retention += m.CurrentRetention(it, now)
		r30 += curve.Retention(30*upd, it.Stability)
		r90 += curve.Retention(90*upd, it.Stability)

		intervalDays := it.IntervalUnits / upd
		if intervalDays <= 0 {
			intervalDays = 1
		}
		burden += 1 / intervalDays
		interval += intervalDays

		difficulty += it.Difficulty
		switch {
		case it.Difficulty < easyDifficulty:
			st.Difficulty.Easy++
		case it.Difficulty > hardDifficulty:
			st.Difficulty.Hard++
		default:
			st.Difficulty.Medium++
		}

		st.Progress.TotalReviews += it.ReviewCount
		st.Progress.TotalLapses += it.LapseCount
		if it.LastReviewedAt != nil {
			d := dayKey(it.LastReviewedAt.In(now.Location()))
			reviewedDays[d] = true
			if d == today {
				st.Progress.ReviewedToday++
			}
		}
	}

	fn := float64(n)
	st.Retention = RetentionStats{
		Average:        curve.Round2(retention / fn),
		Predicted30Day: curve.Round2(r30 / fn),
		Predicted90Day: curve.Round2(r90 / fn),
		SuccessRate:    successRate(st.Progress.TotalReviews, st.Progress.TotalLapses),
	}
	st.Efficiency = EfficiencyStats{
		DailyReviewBurden: round1(burden),
		OptimalBurden:     round1(fn * 0.1),
		EfficiencyRatio:   curve.Round2((retention / fn) / (burden / fn)),
		AverageInterval:   round1(interval / fn),
	}
	st.Difficulty.Average = curve.Round2(difficulty / fn)
	st.Difficulty.EasyRatio = curve.Round2(float64(st.Difficulty.Easy) / fn)
	st.Difficulty.MediumRatio = curve.Round2(float64(st.Difficulty.Medium) / fn)
	st.Difficulty.HighDifficultyRatio = curve.Round2(float64(st.Difficulty.Hard) / fn)
	st.Progress.AverageReviewsPerItem = round1(float64(st.Progress.TotalReviews) / fn)
	st.Progress.StreakDays = streak(reviewedDays, dayOf(now))
	st.Forecast.MinutesTomorrow = st.Forecast.DueTomorrow * minutesPerReview
	st.Forecast.MinutesThisWeek = st.Forecast.DueThisWeek * minutesPerReview
	return st
}

// Velocity measures how fast a learner is moving items to long-term memory.
type Velocity struct {
	ItemsTotal           int     `json:"items_total" yaml:"items_total"`
	ItemsMastered        int     `json:"items_mastered" yaml:"items_mastered"`
	ItemsInProgress      int     `json:"items_in_progress" yaml:"items_in_progress"`
	ItemsStruggling      int     `json:"items_struggling" yaml:"items_struggling"`
	ReviewsLast7Days     int     `json:"reviews_last_7_days" yaml:"reviews_last_7_days"`
	AverageReviewsPerDay float64 `json:"average_reviews_per_day" yaml:"average_reviews_per_day"`
	AverageStability     float64 `json:"average_stability_days" yaml:"average_stability_days"`
	AverageDifficulty    float64 `json:"average_difficulty" yaml:"average_difficulty"`
	LearningRate         float64 `json:"learning_rate" yaml:"learning_rate"` // items added per day over 30 days
	RetentionRate        float64 `json:"retention_rate" yaml:"retention_rate"`
}

// LearningVelocity summarises userID's active items. ReviewsLast7Days sums
// the review counts of items touched in the last week.
func (m *Manager) LearningVelocity(userID uint, items []*models.ReviewItem, now time.Time, unitsPerDay float64) Velocity {
	upd := perDay(unitsPerDay)
	active := m.active(userID, items)
	v := Velocity{ItemsTotal: len(active)}
	if len(active) == 0 {
		return v
	}

	weekAgo := now.Add(-7 * 24 * time.Hour)
	monthAgo := now.Add(-30 * 24 * time.Hour)
	var stability, difficulty, retention float64
	var recent int
	for _, it := range active {
		days := it.Stability / upd
		switch {
		case days > masteredStabilityDays:
			v.ItemsMastered++
		case days >= learningStabilityDays:
			v.ItemsInProgress++
		}
		if it.LapseCount >= strugglingLapses {
			v.ItemsStruggling++
		}
		if it.LastReviewedAt != nil && !it.LastReviewedAt.Before(weekAgo) {
			v.ReviewsLast7Days += it.ReviewCount
		}
		if !it.CreatedAt.Before(monthAgo) {
			recent++
		}
		stability += days
		difficulty += it.Difficulty
		retention += m.CurrentRetention(it, now)
	}

	n := float64(len(active))
	v.AverageReviewsPerDay = curve.Round2(float64(v.ReviewsLast7Days) / 7)
	v.AverageStability = curve.Round2(stability / n)
	v.AverageDifficulty = curve.Round2(difficulty / n)
	v.LearningRate = curve.Round2(float64(recent) / 30)
	v.RetentionRate = curve.Round2(retention / n)
	return v
}

// Plan section kinds and priorities.
const (
	SectionOverdue    = "overdue"
	SectionDueToday   = "due_today"
	SectionNewContent = "new_content"

	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
)

type PlanSection struct {
	Kind     string               `json:"kind" yaml:"kind"`
	Priority string               `json:"priority" yaml:"priority"`
	Count    int                  `json:"count" yaml:"count"`
	Items    []*models.ReviewItem `json:"items,omitempty" yaml:"items,omitempty"`
}

// StudyPlan fills a learner's available minutes: due items first, then
// items coming due later today, then open slots for new content that the
// caller picks.
type StudyPlan struct {
	MaxItems         int           `json:"max_items" yaml:"max_items"`
	EstimatedMinutes int           `json:"estimated_minutes" yaml:"estimated_minutes"`
	Sections         []PlanSection `json:"sections" yaml:"sections"`
}

// DailyPlan budgets minutesAvailable at two minutes per review.
func (m *Manager) DailyPlan(userID uint, items []*models.ReviewItem, now time.Time, minutesAvailable int, unitsPerDay float64) StudyPlan {
	maxItems := 0
	if minutesAvailable > 0 {
		maxItems = minutesAvailable / minutesPerReview
	}
	plan := StudyPlan{MaxItems: maxItems, EstimatedMinutes: maxItems * minutesPerReview}

	due := m.DueItems(userID, items, now)
	if len(due) > maxItems {
		due = due[:maxItems]
	}
	plan.Sections = append(plan.Sections, PlanSection{
		Kind: SectionOverdue, Priority: PriorityCritical, Count: len(due), Items: due,
	})
	remaining := maxItems - len(due)

	if remaining > 0 {
		var later []*models.ReviewItem
		for _, it := range m.ItemsByCriteria(userID, items, CriteriaDueToday, now, unitsPerDay) {
			if !m.policy.IsDue(it, now) {
				later = append(later, it)
			}
		}
		if len(later) > remaining {
			later = later[:remaining]
		}
		plan.Sections = append(plan.Sections, PlanSection{
			Kind: SectionDueToday, Priority: PriorityHigh, Count: len(later), Items: later,
		})
		remaining -= len(later)
	}

	if remaining > 0 {
		plan.Sections = append(plan.Sections, PlanSection{
			Kind: SectionNewContent, Priority: PriorityMedium, Count: remaining,
		})
	}
	return plan
}

func (m *Manager) active(userID uint, items []*models.ReviewItem) []*models.ReviewItem {
	var out []*models.ReviewItem
	for _, it := range items {
		if it != nil && it.UserID == userID && !it.Retired {
			out = append(out, it)
		}
	}
	return out
}

// elapsed is the policy units since the last review.
func (m *Manager) elapsed(item *models.ReviewItem, now time.Time) float64 {
	if m.policy.Name() == models.DuePolicyProgress {
		return float64(item.PointsSinceReview)
	}
	if item.LastReviewedAt == nil {
		return 0
	}
	return math.Max(now.Sub(*item.LastReviewedAt).Hours()/24, 0)
}

// restOfToday is what is left of the current calendar day, in policy units.
// Progress deployments have no calendar, so a full day's units are used.
func (m *Manager) restOfToday(now time.Time, upd float64) float64 {
	if m.policy.Name() == models.DuePolicyProgress {
		return upd
	}
	end := dayOf(now).AddDate(0, 0, 1)
	return end.Sub(now).Hours() / 24 * upd
}

func (m *Manager) sortByUrgency(items []*models.ReviewItem, now time.Time, upd float64) {
	urgency := make(map[*models.ReviewItem]float64, len(items))
	for _, it := range items {
		urgency[it] = m.Urgency(it, now, upd)
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if urgency[a] != urgency[b] {
			return urgency[a] > urgency[b]
		}
		return bytes.Compare(a.ID[:], b.ID[:]) < 0
	})
}

func dayOf(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// streak counts consecutive calendar days with a review, ending today.
func streak(days map[string]bool, today time.Time) int {
	n := 0
	for d := today; days[dayKey(d)] && n < streakCapDays; d = d.AddDate(0, 0, -1) {
		n++
	}
	return n
}

func successRate(reviews, lapses int) float64 {
	if reviews == 0 {
		return 0
	}
	return curve.Round2(float64(reviews-lapses) / float64(reviews) * 100)
}

func perDay(unitsPerDay float64) float64 {
	if unitsPerDay <= 0 {
		return 1
	}
	return unitsPerDay
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

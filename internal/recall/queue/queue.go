// Package queue selects and orders the review items that are due for a
// learner under the deployment's due policy. Everything here is pure.
package queue

import (
	"bytes"
	"math"
	"sort"
	"time"

	"github.com/jgirmay/gaia-recall/internal/recall/curve"
	"github.com/jgirmay/gaia-recall/internal/recall/models"
)

// Policy decides whether an item is due and by how much it is overdue, in
// the policy's own units.
type Policy interface {
	Name() models.DuePolicy
	IsDue(item *models.ReviewItem, now time.Time) bool
	// Overdue is how far past due the item is; negative when not yet due.
	Overdue(item *models.ReviewItem, now time.Time) float64
	// Progress is the share of the interval already elapsed (1.0 = due).
	Progress(item *models.ReviewItem, now time.Time) float64
}

// TimePolicy: due once the clock passes NextReviewAt. Units are days.
type TimePolicy struct{}

func (TimePolicy) Name() models.DuePolicy { return models.DuePolicyTime }

func (TimePolicy) IsDue(item *models.ReviewItem, now time.Time) bool {
	return item.NextReviewAt != nil && !now.Before(*item.NextReviewAt)
}

func (TimePolicy) Overdue(item *models.ReviewItem, now time.Time) float64 {
	if item.NextReviewAt == nil {
		return math.Inf(-1)
	}
	return now.Sub(*item.NextReviewAt).Hours() / 24
}

func (p TimePolicy) Progress(item *models.ReviewItem, now time.Time) float64 {
	if item.NextReviewAt == nil {
		return 0
	}
	if item.LastReviewedAt == nil {
		if p.IsDue(item, now) {
			return 1
		}
		return 0
	}
	span := item.NextReviewAt.Sub(*item.LastReviewedAt)
	if span <= 0 {
		return 1
	}
	return float64(now.Sub(*item.LastReviewedAt)) / float64(span)
}

// ProgressPolicy: due once PointsSinceReview reaches ReviewAfterPoints. Units
// are learning points.
type ProgressPolicy struct{}

func (ProgressPolicy) Name() models.DuePolicy { return models.DuePolicyProgress }

func (ProgressPolicy) IsDue(item *models.ReviewItem, _ time.Time) bool {
	return item.ReviewAfterPoints != nil && item.PointsSinceReview >= *item.ReviewAfterPoints
}

func (ProgressPolicy) Overdue(item *models.ReviewItem, _ time.Time) float64 {
	if item.ReviewAfterPoints == nil {
		return math.Inf(-1)
	}
	return float64(item.PointsSinceReview - *item.ReviewAfterPoints)
}

func (ProgressPolicy) Progress(item *models.ReviewItem, _ time.Time) float64 {
	if item.ReviewAfterPoints == nil {
		return 0
	}
	if *item.ReviewAfterPoints <= 0 {
		return 1
	}
	return float64(item.PointsSinceReview) / float64(*item.ReviewAfterPoints)
}

// PolicyFor returns the policy implementation for a name, defaulting to time.
func PolicyFor(name models.DuePolicy) Policy {
	if name == models.DuePolicyProgress {
		return ProgressPolicy{}
	}
	return TimePolicy{}
}

// Manager ranks review items under one policy.
type Manager struct {
	policy Policy
}

func NewManager(policy Policy) *Manager {
	if policy == nil {
		policy = TimePolicy{}
	}
	return &Manager{policy: policy}
}

func (m *Manager) Policy() Policy { return m.policy }

// DueItems returns userID's non-retired due items, most overdue first. Ties
// go to the item reviewed longest ago (never reviewed first), then the oldest
// item, then the lowest ID, so the order is total and deterministic.
func (m *Manager) DueItems(userID uint, items []*models.ReviewItem, now time.Time) []*models.ReviewItem {
	type ranked struct {
		item    *models.ReviewItem
		overdue float64
	}
	var due []ranked
	for _, it := range items {
		if it == nil || it.UserID != userID || it.Retired || !m.policy.IsDue(it, now) {
			continue
		}
		due = append(due, ranked{item: it, overdue: m.policy.Overdue(it, now)})
	}

	sort.SliceStable(due, func(i, j int) bool {
		a, b := due[i], due[j]
		if a.overdue != b.overdue {
			return a.overdue > b.overdue
		}
		if c := compareReviewed(a.item.LastReviewedAt, b.item.LastReviewedAt); c != 0 {
			return c < 0
		}
		if !a.item.CreatedAt.Equal(b.item.CreatedAt) {
			return a.item.CreatedAt.Before(b.item.CreatedAt)
		}
		return bytes.Compare(a.item.ID[:], b.item.ID[:]) < 0
	})

	out := make([]*models.ReviewItem, len(due))
	for i, r := range due {
		out[i] = r.item
	}
	return out
}

// NextDue returns the head of DueItems.
func (m *Manager) NextDue(userID uint, items []*models.ReviewItem, now time.Time) (*models.ReviewItem, bool) {
	due := m.DueItems(userID, items, now)
	if len(due) == 0 {
		return nil, false
	}
	return due[0], true
}

// nil sorts first: an item never reviewed has waited longest.
func compareReviewed(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case a.Before(*b):
		return -1
	case b.Before(*a):
		return 1
	}
	return 0
}

// Load buckets a learner's scheduled items by how close they are to due.
// The within-N fields are cumulative.
type Load struct {
	DueNow                 int `json:"due_now" yaml:"due_now"`
	WithinEightyPercent    int `json:"within_80_percent" yaml:"within_80_percent"`
	WithinFiftyPercent     int `json:"within_50_percent" yaml:"within_50_percent"`
	Later                  int `json:"later" yaml:"later"`
	TotalItems             int `json:"total_items" yaml:"total_items"`
	RecommendedTimeMinutes int `json:"recommended_time_minutes" yaml:"recommended_time_minutes"`
}

const minutesPerReview = 2

// Load counts userID's scheduled, non-retired items into due-ness buckets.
func (m *Manager) Load(userID uint, items []*models.ReviewItem, now time.Time) Load {
	var l Load
	var veryNear, near int
	for _, it := range items {
		if it == nil || it.UserID != userID || it.Retired || !m.scheduled(it) {
			continue
		}
		l.TotalItems++
		switch p := m.policy.Progress(it, now); {
		case m.policy.IsDue(it, now):
			l.DueNow++
		case p >= 0.8:
			veryNear++
		case p >= 0.5:
			near++
		default:
			l.Later++
		}
	}
	l.WithinEightyPercent = l.DueNow + veryNear
	l.WithinFiftyPercent = l.WithinEightyPercent + near
	l.RecommendedTimeMinutes = l.DueNow * minutesPerReview
	return l
}

func (m *Manager) scheduled(it *models.ReviewItem) bool {
	switch m.policy.Name() {
	case models.DuePolicyProgress:
		return it.ReviewAfterPoints != nil
	default:
		return it.NextReviewAt != nil
	}
}

// Urgency ranks how badly an item needs review: the forgetting share
// (1 - retention) as a percentage plus the overdue amount in days.
// Items that are not yet due score on forgetting alone.
func (m *Manager) Urgency(item *models.ReviewItem, now time.Time, unitsPerDay float64) float64 {
	if unitsPerDay <= 0 {
		unitsPerDay = 1
	}
	var elapsed float64
	switch m.policy.Name() {
	case models.DuePolicyProgress:
		elapsed = float64(item.PointsSinceReview)
	default:
		if item.LastReviewedAt != nil {
			elapsed = math.Max(now.Sub(*item.LastReviewedAt).Hours()/24, 0)
		}
	}
	urgency := (1 - curve.Retention(elapsed, item.Stability)) * 100
	if over := m.policy.Overdue(item, now); over > 0 {
		urgency += over / unitsPerDay
	}
	return curve.Round2(urgency)
}

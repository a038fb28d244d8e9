package queue

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgirmay/gaia-recall/internal/recall/models"
)

var now = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

func id(b byte) uuid.UUID {
	var u uuid.UUID
	u[15] = b
	return u
}

func pointsItem(b byte, user uint, points int, threshold *int) *models.ReviewItem {
	return &models.ReviewItem{
		ID:                id(b),
		UserID:            user,
		ItemType:          "command",
		ItemKey:           string(rune('a' + b)),
		Stability:         50,
		PointsSinceReview: points,
		ReviewAfterPoints: threshold,
		CreatedAt:         now.Add(-time.Duration(b) * time.Hour),
	}
}

func timeItem(b byte, user uint, dueIn time.Duration) *models.ReviewItem {
	due := now.Add(dueIn)
	return &models.ReviewItem{
		ID:           id(b),
		UserID:       user,
		Stability:    10,
		NextReviewAt: &due,
		CreatedAt:    now.Add(-48 * time.Hour),
	}
}

func intp(n int) *int { return &n }

func keys(items []*models.ReviewItem) []byte {
	out := make([]byte, len(items))
	for i, it := range items {
		out[i] = it.ID[15]
	}
	return out
}

func TestProgressDueOrdering(t *testing.T) {
	m := NewManager(ProgressPolicy{})
	slightly := pointsItem(1, 9, 105, intp(100))
	badly := pointsItem(2, 9, 120, intp(100))

	due := m.DueItems(9, []*models.ReviewItem{slightly, badly}, now)
	require.Len(t, due, 2)
	assert.Same(t, badly, due[0])
	assert.Same(t, slightly, due[1])

	head, ok := m.NextDue(9, []*models.ReviewItem{slightly, badly}, now)
	require.True(t, ok)
	assert.Same(t, badly, head)
}

func TestDueItemsFilters(t *testing.T) {
	m := NewManager(ProgressPolicy{})
	retired := pointsItem(1, 9, 500, intp(20))
	retired.Retired = true

	items := []*models.ReviewItem{
		retired,
		pointsItem(2, 8, 500, intp(20)), // other learner
		pointsItem(3, 9, 19, intp(20)),  // not yet due
		pointsItem(4, 9, 500, nil),      // unscheduled
		pointsItem(5, 9, 20, intp(20)),  // exactly due
		nil,
	}

	due := m.DueItems(9, items, now)
	assert.Equal(t, []byte{5}, keys(due))

	_, ok := m.NextDue(7, items, now)
	assert.False(t, ok)
}

func TestDueItemsTieBreaks(t *testing.T) {
	m := NewManager(ProgressPolicy{})
	early := now.Add(-72 * time.Hour)
	late := now.Add(-24 * time.Hour)

	reviewedLate := pointsItem(1, 9, 30, intp(20))
	reviewedLate.LastReviewedAt = &late
	reviewedEarly := pointsItem(2, 9, 30, intp(20))
	reviewedEarly.LastReviewedAt = &early
	neverA := pointsItem(3, 9, 30, intp(20))
	neverB := pointsItem(4, 9, 30, intp(20))
	neverB.CreatedAt = neverA.CreatedAt
	newer := pointsItem(0, 9, 30, intp(20))

	due := m.DueItems(9, []*models.ReviewItem{reviewedLate, reviewedEarly, neverA, neverB, newer}, now)
	// Never reviewed first, oldest created first, then ID; then earliest review.
	assert.Equal(t, []byte{3, 4, 0, 2, 1}, keys(due))
}

func TestDueItemsDeterministic(t *testing.T) {
	m := NewManager(ProgressPolicy{})
	var items []*models.ReviewItem
	for i := byte(0); i < 30; i++ {
		it := pointsItem(i, 9, 20+int(i%4)*5, intp(20))
		it.CreatedAt = now.Add(-time.Duration(i%3) * time.Hour)
		items = append(items, it)
	}
	want := keys(m.DueItems(9, items, now))
	require.Len(t, want, 30)

	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 20; round++ {
		shuffled := append([]*models.ReviewItem(nil), items...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, keys(m.DueItems(9, shuffled, now)))
	}
}

func TestTimePolicy(t *testing.T) {
	m := NewManager(nil)
	assert.Equal(t, models.DuePolicyTime, m.Policy().Name())

	future := timeItem(1, 9, time.Hour)
	dueNow := timeItem(2, 9, 0)
	overdue := timeItem(3, 9, -72*time.Hour)
	unscheduled := &models.ReviewItem{ID: id(4), UserID: 9}

	due := m.DueItems(9, []*models.ReviewItem{future, dueNow, overdue, unscheduled}, now)
	assert.Equal(t, []byte{3, 2}, keys(due))
	assert.InDelta(t, 3.0, m.Policy().Overdue(overdue, now), 1e-9)
	assert.False(t, m.Policy().IsDue(unscheduled, now))
}

func TestPolicyFor(t *testing.T) {
	assert.IsType(t, ProgressPolicy{}, PolicyFor(models.DuePolicyProgress))
	assert.IsType(t, TimePolicy{}, PolicyFor(models.DuePolicyTime))
	assert.IsType(t, TimePolicy{}, PolicyFor(""))
}

func TestLoad(t *testing.T) {
	m := NewManager(ProgressPolicy{})
	retired := pointsItem(6, 9, 500, intp(100))
	retired.Retired = true

	items := []*models.ReviewItem{
		pointsItem(1, 9, 120, intp(100)),
		pointsItem(2, 9, 85, intp(100)),
		pointsItem(3, 9, 60, intp(100)),
		pointsItem(4, 9, 10, intp(100)),
		pointsItem(5, 9, 10, nil),
		retired,
		pointsItem(7, 3, 500, intp(100)),
	}

	assert.Equal(t, Load{
		DueNow:                 1,
		WithinEightyPercent:    2,
		WithinFiftyPercent:     3,
		Later:                  1,
		TotalItems:             4,
		RecommendedTimeMinutes: 2,
	}, m.Load(9, items, now))
}

func TestTimeLoad(t *testing.T) {
	m := NewManager(TimePolicy{})
	reviewed := now.Add(-9 * 24 * time.Hour)
	nearly := timeItem(1, 9, 24*time.Hour)
	nearly.LastReviewedAt = &reviewed

	l := m.Load(9, []*models.ReviewItem{nearly, timeItem(2, 9, -time.Hour)}, now)
	assert.Equal(t, 1, l.DueNow)
	assert.Equal(t, 2, l.WithinEightyPercent)
	assert.Equal(t, 2, l.TotalItems)
}

func TestUrgency(t *testing.T) {
	progress := NewManager(ProgressPolicy{})
	assert.Equal(t, 76.34, progress.Urgency(pointsItem(1, 9, 70, intp(50)), now, 20))
	assert.Equal(t, 18.13, progress.Urgency(pointsItem(2, 9, 10, intp(50)), now, 20))

	timed := NewManager(TimePolicy{})
	reviewed := now.Add(-5 * 24 * time.Hour)
	it := timeItem(3, 9, -48*time.Hour)
	it.LastReviewedAt = &reviewed
	assert.Equal(t, 41.35, timed.Urgency(it, now, 1))

	fresh := timeItem(4, 9, 24*time.Hour)
	assert.Zero(t, timed.Urgency(fresh, now, 0))
}

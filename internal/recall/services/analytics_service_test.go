package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jgirmay/gaia-recall/internal/common/errors"
	"github.com/jgirmay/gaia-recall/internal/recall/models"
	"github.com/jgirmay/gaia-recall/internal/recall/queue"
)

func TestReviewAnalytics(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DuePolicyTime)
	labTwo := models.ItemRef{Type: "lab", Key: "2"}

	_, err := f.svc.RecordReview(ctx, ReviewEvent{UserID: 1, Item: quizOne, Grade: models.GradeGood})
	require.NoError(t, err)
	_, err = f.svc.RecordReview(ctx, ReviewEvent{UserID: 1, Item: labTwo, Grade: models.GradeAgain})
	require.NoError(t, err)
	f.advance(25 * time.Hour)

	today, err := f.svc.ItemsByCriteria(ctx, 1, "due_today")
	require.NoError(t, err)
	assert.Len(t, today, 2)
	overdue, err := f.svc.ItemsByCriteria(ctx, 1, "overdue")
	require.NoError(t, err)
	assert.Empty(t, overdue)
	fresh, err := f.svc.ItemsByCriteria(ctx, 1, "new")
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
	_, err = f.svc.ItemsByCriteria(ctx, 1, "bogus")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	st, err := f.svc.ItemStats(ctx, 1, quizOne)
	require.NoError(t, err)
	assert.Equal(t, 0.65, st.Retention)
	assert.True(t, st.Overdue)
	assert.Equal(t, queue.LevelNew, st.Level)
	assert.Equal(t, 1, st.ReviewCount)

	_, err = f.svc.ItemStats(ctx, 1, models.ItemRef{Type: "lab", Key: "404"})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	_, err = f.svc.ItemStats(ctx, 1, models.ItemRef{Type: "lab"})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	stats, err := f.svc.ReviewStats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Overview.TotalItems)
	assert.Equal(t, 2, stats.Overview.Due)
	assert.Equal(t, 2, stats.Progress.TotalReviews)
	assert.Zero(t, stats.Progress.ReviewedToday)
	assert.Zero(t, stats.Progress.StreakDays)

	v, err := f.svc.LearningVelocity(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, v.ItemsTotal)
	assert.Equal(t, 2, v.ReviewsLast7Days)

	plan, err := f.svc.DailyPlan(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, plan.MaxItems)
	require.Len(t, plan.Sections, 3)
	assert.Equal(t, 2, plan.Sections[0].Count)
	assert.Zero(t, plan.Sections[1].Count)
	assert.Equal(t, 3, plan.Sections[2].Count)

	_, err = f.svc.DailyPlan(ctx, 1, 0)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

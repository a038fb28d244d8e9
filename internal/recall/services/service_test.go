package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm/logger"

	"github.com/jgirmay/gaia-recall/internal/common/database"
	apperrors "github.com/jgirmay/gaia-recall/internal/common/errors"
	"github.com/jgirmay/gaia-recall/internal/recall/fsrs"
	"github.com/jgirmay/gaia-recall/internal/recall/mastery"
	"github.com/jgirmay/gaia-recall/internal/recall/models"
	"github.com/jgirmay/gaia-recall/internal/recall/repository"
	"github.com/jgirmay/gaia-recall/pkg/config"
	"github.com/jgirmay/gaia-recall/pkg/metrics"
)

var start = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc     *Service
	repo    *repository.Registry
	metrics *metrics.Metrics
	now     time.Time
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func newFixture(t *testing.T, policy models.DuePolicy, opts ...Option) *fixture {
	t.Helper()
	db, err := database.Open(database.TypeSQLite, "file::memory:", database.Options{LogLevel: logger.Silent})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { database.Close(db) })

	scheduler, err := fsrs.NewScheduler(fsrs.DefaultConfig(policy))
	require.NoError(t, err)

	f := &fixture{
		repo:    repository.NewRegistry(db),
		metrics: metrics.New(prometheus.NewRegistry()),
		now:     start,
	}
	base := []Option{
		WithLogger(zaptest.NewLogger(t)),
		WithMetrics(f.metrics),
		WithClock(func() time.Time { return f.now }),
	}
	f.svc = New(f.repo, scheduler, mastery.NewTracker(mastery.Config{}), append(base, opts...)...)
	return f
}

var quizOne = models.ItemRef{Type: "quiz_question", Key: "1"}

func TestRecordReviewTimePolicy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DuePolicyTime)

	out, err := f.svc.RecordReview(ctx, ReviewEvent{UserID: 1, Item: quizOne, Grade: models.GradeGood})
	require.NoError(t, err)
	assert.True(t, out.Created)
	assert.Equal(t, 2.4, out.Result.Stability)
	assert.Equal(t, models.StateLearning, out.Result.State)
	require.NotNil(t, out.Result.NextReviewAt)
	assert.True(t, start.Add(24*time.Hour).Equal(*out.Result.NextReviewAt))

	stored, err := f.repo.ReviewItems.Get(ctx, 1, quizOne)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 1, stored.ReviewCount)
	assert.Equal(t, models.GradeGood, stored.LastReviewGrade)
	assert.True(t, start.Add(24*time.Hour).Equal(*stored.NextReviewAt))
	assert.Nil(t, stored.ReviewAfterPoints)

	due, err := f.svc.DueItems(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, due)

	f.advance(25 * time.Hour)
	head, ok, err := f.svc.NextDue(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, stored.ID, head.ID)

	load, err := f.svc.QueueLoad(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, load.DueNow)
	assert.Equal(t, 2, load.RecommendedTimeMinutes)

	again, err := f.svc.RecordReview(ctx, ReviewEvent{UserID: 1, Item: quizOne, Grade: models.GradeAgain})
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, 2, again.Result.Reps)
	assert.Equal(t, 1, again.Result.Lapses)
	assert.Less(t, again.Result.Stability, 2.4)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Reviews.WithLabelValues("good")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Reviews.WithLabelValues("again")))
	assert.Zero(t, testutil.ToFloat64(f.metrics.Fallbacks))
}

func TestRecordReviewRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DuePolicyTime)

	_, err := f.svc.RecordReview(ctx, ReviewEvent{UserID: 1, Item: quizOne, Grade: 0})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidGrade))
	_, err = f.svc.RecordReview(ctx, ReviewEvent{UserID: 1, Item: quizOne, Grade: 5})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidGrade))

	_, err = f.svc.RecordReview(ctx, ReviewEvent{UserID: 1, Grade: models.GradeGood})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	_, err = f.svc.RecordReview(ctx, ReviewEvent{UserID: 1, Item: models.ItemRef{Type: "quiz_question"}, Grade: models.GradeGood})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	assert.ErrorContains(t, err, "ItemRef.key")
	_, err = f.svc.PreviewReview(ctx, 1, models.ItemRef{Key: "1"})
	assert.ErrorContains(t, err, "ItemRef.type")

	stored, err := f.repo.ReviewItems.Get(ctx, 1, quizOne)
	require.NoError(t, err)
	assert.Nil(t, stored, "nothing persisted for rejected events")

	retired := models.NewReviewItem(1, models.ItemRef{Type: "lab", Key: "9"}, 0.5, start)
	retired.Retired = true
	require.NoError(t, f.repo.ReviewItems.Create(ctx, retired))
	_, err = f.svc.RecordReview(ctx, ReviewEvent{UserID: 1, Item: retired.Ref(), Grade: models.GradeGood})
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}

func TestRecordReviewFallsBackOnMalformedState(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	f := newFixture(t, models.DuePolicyTime, WithLogger(zap.New(core)))

	reviewed := start.Add(-48 * time.Hour)
	broken := models.NewReviewItem(1, quizOne, 0.5, start.Add(-72*time.Hour))
	broken.Stability = -3
	broken.Difficulty = 7
	broken.State = models.StateReview
	broken.ReviewCount = 6
	broken.LastReviewedAt = &reviewed
	require.NoError(t, f.repo.ReviewItems.Create(ctx, broken))

	out, err := f.svc.RecordReview(ctx, ReviewEvent{UserID: 1, Item: quizOne, Grade: models.GradeGood})
	require.NoError(t, err)
	assert.True(t, out.Result.Fallback)
	assert.True(t, errors.Is(out.Result.FallbackReason, apperrors.ErrMalformedState))
	assert.Equal(t, 1.0, out.Result.Interval)

	stored, err := f.repo.ReviewItems.Get(ctx, 1, quizOne)
	require.NoError(t, err)
	assert.Equal(t, models.StateLearning, stored.State)
	assert.Equal(t, models.DefaultDifficulty, stored.Difficulty)
	assert.Equal(t, 2.4, stored.Stability)
	assert.Equal(t, 7, stored.ReviewCount)

	assert.Equal(t, 1, logs.FilterMessage("scheduler fell back to minimum interval").Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Fallbacks))
}

func TestProgressPolicyFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DuePolicyProgress)

	out, err := f.svc.RecordReview(ctx, ReviewEvent{UserID: 1, Item: quizOne, Grade: models.GradeGood})
	require.NoError(t, err)
	assert.Equal(t, 48.0, out.Result.Stability)
	require.NotNil(t, out.Result.ReviewAfterPoints)
	assert.Equal(t, 20, *out.Result.ReviewAfterPoints)
	assert.Nil(t, out.Item.NextReviewAt)

	due, err := f.svc.DueItems(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, due)

	n, err := f.svc.AddProgressPoints(ctx, 1, 25)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	due, err = f.svc.DueItems(ctx, 1)
	require.NoError(t, err)
	require.Len(t, due, 1)

	urgency, err := f.svc.Urgency(ctx, 1)
	require.NoError(t, err)
	assert.Greater(t, urgency[quizOne.String()], 0.0)

	_, err = f.svc.AddProgressPoints(ctx, 1, 0)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	reset, err := f.svc.ResetStaleItems(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, reset)

	_, err = f.svc.AddProgressPoints(ctx, 1, 40)
	require.NoError(t, err)
	reset, err = f.svc.ResetStaleItems(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, reset)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.StaleResets))

	stored, err := f.repo.ReviewItems.Get(ctx, 1, quizOne)
	require.NoError(t, err)
	assert.Equal(t, models.StateRelearning, stored.State)
	assert.Equal(t, 20, stored.PointsSinceReview)
	assert.Equal(t, 20, *stored.ReviewAfterPoints)

	next, err := f.svc.RecordReview(ctx, ReviewEvent{UserID: 1, Item: quizOne, Grade: models.GradeGood})
	require.NoError(t, err)
	assert.Equal(t, 2, next.Result.Reps)
	assert.Zero(t, next.Item.PointsSinceReview)
	assert.Equal(t, 20, next.Item.LastReviewPoints)
}

func TestAddProgressPointsNeedsProgressPolicy(t *testing.T) {
	f := newFixture(t, models.DuePolicyTime)
	_, err := f.svc.AddProgressPoints(context.Background(), 1, 10)
	assert.True(t, errors.Is(err, apperrors.ErrUnprocessable))
}

func TestPreviewReview(t *testing.T) {
	f := newFixture(t, models.DuePolicyTime)
	preview, err := f.svc.PreviewReview(context.Background(), 1, quizOne)
	require.NoError(t, err)
	require.Len(t, preview, 4)
	assert.Less(t, preview[models.GradeHard].Stability, preview[models.GradeEasy].Stability)

	stored, err := f.repo.ReviewItems.Get(context.Background(), 1, quizOne)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestNewFromConfig(t *testing.T) {
	cfg := &config.Config{Recall: config.RecallConfig{
		DuePolicy: models.DuePolicyProgress,
		Tuning: config.Tuning{
			Scheduler: config.SchedulerTuning{MaxInterval: 500},
			Mastery:   config.MasteryTuning{DecayInterval: 12 * time.Hour},
		},
	}}
	svc, err := NewFromConfig(nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, models.DuePolicyProgress, svc.Scheduler().Policy())
	assert.Equal(t, 500.0, svc.Scheduler().Config().MaxInterval)
	assert.Equal(t, 20.0, svc.Scheduler().Config().MinInterval)
	assert.Equal(t, 12*time.Hour, svc.Tracker().Config().DecayInterval)
	assert.Equal(t, 7.0, svc.Tracker().Config().ReviewAfterDays)

	cfg.Recall.Tuning.Scheduler.TargetRetention = 1.5
	_, err = NewFromConfig(nil, cfg)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

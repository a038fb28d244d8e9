package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/jgirmay/gaia-recall/internal/common/errors"
	"github.com/jgirmay/gaia-recall/internal/common/validation"
	"github.com/jgirmay/gaia-recall/internal/recall/fsrs"
	"github.com/jgirmay/gaia-recall/internal/recall/models"
	"github.com/jgirmay/gaia-recall/internal/recall/queue"
	"github.com/jgirmay/gaia-recall/internal/recall/repository"
)

// ReviewEvent is one graded review. A zero At means now.
type ReviewEvent struct {
	UserID uint
	Item   models.ReviewableItem
	Grade  models.Grade
	At     time.Time
}

type ReviewOutcome struct {
	Item    *models.ReviewItem `json:"item" yaml:"item"`
	Result  fsrs.Result        `json:"result" yaml:"result"`
	Created bool               `json:"created" yaml:"created"`
}

// RecordReview schedules the next review of an item, creating its record on
// the first grade.
func (s *Service) RecordReview(ctx context.Context, ev ReviewEvent) (*ReviewOutcome, error) {
	if err := ev.Grade.Validate(); err != nil {
		return nil, err
	}
	if ev.Item == nil {
		return nil, apperrors.Validation("item reference is required", "")
	}
	ref := models.RefOf(ev.Item)
	if err := validation.Check("item reference", ref); err != nil {
		return nil, err
	}
	now := s.at(ev.At)

	var out ReviewOutcome
	err := s.repo.Transaction(ctx, func(tx *repository.Registry) error {
		item, err := tx.ReviewItems.Get(ctx, ev.UserID, ref)
		if err != nil {
			return err
		}
		if item == nil {
			item = models.NewReviewItem(ev.UserID, ref, s.scheduler.Config().SeedStability, now)
			out.Created = true
		}
		if item.Retired {
			return apperrors.Conflict("review item is retired: " + ref.String())
		}

		res, err := s.scheduler.Review(item, ev.Grade, now)
		if err != nil {
			return err
		}
		if out.Created {
			err = tx.ReviewItems.Create(ctx, item)
		} else {
			err = tx.ReviewItems.Save(ctx, item)
		}
		if err != nil {
			return err
		}
		out.Item, out.Result = item, res
		return nil
	})
	if err != nil {
		s.log.Error("failed to record review", zap.Uint("user_id", ev.UserID), zap.String("item", ref.String()), zap.Error(err))
		return nil, err
	}

	if out.Result.Fallback {
		s.log.Warn("scheduler fell back to minimum interval",
			zap.Uint("user_id", ev.UserID),
			zap.String("item", ref.String()),
			zap.Error(out.Result.FallbackReason))
	}
	s.metrics.ObserveReview(ev.Grade.String(), string(s.scheduler.Policy()), out.Result.Interval, out.Result.Fallback)
	s.log.Debug("review recorded",
		zap.Uint("user_id", ev.UserID),
		zap.String("item", ref.String()),
		zap.Stringer("grade", ev.Grade),
		zap.Float64("interval", out.Result.Interval),
		zap.String("state", string(out.Result.State)))
	return &out, nil
}

// PreviewReview shows what each grade would schedule without saving.
func (s *Service) PreviewReview(ctx context.Context, userID uint, ref models.ItemRef) (map[models.Grade]fsrs.Result, error) {
	if err := validation.Check("item reference", ref); err != nil {
		return nil, err
	}
	item, err := s.repo.ReviewItems.Get(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if item == nil {
		item = models.NewReviewItem(userID, ref, s.scheduler.Config().SeedStability, now)
	}
	return s.scheduler.Preview(s.scheduler.InputFor(item, now), now), nil
}

// DueItems returns the learner's due items, most urgent first.
func (s *Service) DueItems(ctx context.Context, userID uint) ([]*models.ReviewItem, error) {
	items, err := s.repo.ReviewItems.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.queue.DueItems(userID, items, s.now()), nil
}

// NextDue returns the single most urgent item; ok is false when nothing is due.
func (s *Service) NextDue(ctx context.Context, userID uint) (*models.ReviewItem, bool, error) {
	items, err := s.repo.ReviewItems.ListByUser(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	item, ok := s.queue.NextDue(userID, items, s.now())
	return item, ok, nil
}

func (s *Service) QueueLoad(ctx context.Context, userID uint) (queue.Load, error) {
	items, err := s.repo.ReviewItems.ListByUser(ctx, userID)
	if err != nil {
		return queue.Load{}, err
	}
	return s.queue.Load(userID, items, s.now()), nil
}

// Urgency scores every scheduled item of a learner, keyed by item reference.
func (s *Service) Urgency(ctx context.Context, userID uint) (map[string]float64, error) {
	items, err := s.repo.ReviewItems.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	unitsPerDay := s.scheduler.Config().UnitsPerDay
	out := make(map[string]float64, len(items))
	for _, it := range items {
		if it.Retired {
			continue
		}
		out[it.Ref().String()] = s.queue.Urgency(it, now, unitsPerDay)
	}
	return out, nil
}

// AddProgressPoints credits learning points to all of a learner's active
// items. Only meaningful under the progress due policy.
func (s *Service) AddProgressPoints(ctx context.Context, userID uint, points int) (int64, error) {
	if s.scheduler.Policy() != models.DuePolicyProgress {
		return 0, apperrors.Unprocessable("progress points require the progress due policy", string(s.scheduler.Policy()))
	}
	if points <= 0 {
		return 0, apperrors.Validation("points must be positive", "")
	}
	n, err := s.repo.ReviewItems.AddPoints(ctx, userID, points)
	if err != nil {
		s.log.Error("failed to add progress points", zap.Uint("user_id", userID), zap.Error(err))
		return 0, err
	}
	return n, nil
}

// ResetStaleItems puts items left far past due back into relearning.
func (s *Service) ResetStaleItems(ctx context.Context, userID uint) (int, error) {
	now := s.now()
	reset := 0
	err := s.repo.Transaction(ctx, func(tx *repository.Registry) error {
		items, err := tx.ReviewItems.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, it := range items {
			if !s.scheduler.ResetStale(it, now) {
				continue
			}
			if err := tx.ReviewItems.Save(ctx, it); err != nil {
				return err
			}
			reset++
		}
		return nil
	})
	if err != nil {
		s.log.Error("failed to reset stale items", zap.Uint("user_id", userID), zap.Error(err))
		return 0, err
	}
	if reset > 0 {
		s.log.Info("reset stale review items", zap.Uint("user_id", userID), zap.Int("count", reset))
	}
	s.metrics.ObserveStaleResets(reset)
	return reset, nil
}

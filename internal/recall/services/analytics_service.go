package services

import (
	"context"

	apperrors "github.com/jgirmay/gaia-recall/internal/common/errors"
	"github.com/jgirmay/gaia-recall/internal/common/validation"
	"github.com/jgirmay/gaia-recall/internal/recall/models"
	"github.com/jgirmay/gaia-recall/internal/recall/queue"
)

// ReviewStats is the full analytics summary of a learner's review items.
func (s *Service) ReviewStats(ctx context.Context, userID uint) (queue.UserStats, error) {
	items, err := s.repo.ReviewItems.ListByUser(ctx, userID)
	if err != nil {
		return queue.UserStats{}, err
	}
	return s.queue.UserStats(userID, items, s.now(), s.unitsPerDay()), nil
}

func (s *Service) LearningVelocity(ctx context.Context, userID uint) (queue.Velocity, error) {
	items, err := s.repo.ReviewItems.ListByUser(ctx, userID)
	if err != nil {
		return queue.Velocity{}, err
	}
	return s.queue.LearningVelocity(userID, items, s.now(), s.unitsPerDay()), nil
}

// ItemsByCriteria lists a learner's items matching criteria (overdue,
// due_today, struggling, new).
func (s *Service) ItemsByCriteria(ctx context.Context, userID uint, criteria string) ([]*models.ReviewItem, error) {
	c, err := queue.ParseCriteria(criteria)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ReviewItems.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.queue.ItemsByCriteria(userID, items, c, s.now(), s.unitsPerDay()), nil
}

// ItemStats reports one item's current memory state.
func (s *Service) ItemStats(ctx context.Context, userID uint, ref models.ItemRef) (*queue.ItemStats, error) {
	if err := validation.Check("item reference", ref); err != nil {
		return nil, err
	}
	item, err := s.repo.ReviewItems.Get(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperrors.NotFound("review item " + ref.String())
	}
	st := s.queue.ItemStats(item, s.now(), s.unitsPerDay())
	return &st, nil
}

// DailyPlan fills minutesAvailable with the learner's most pressing reviews.
func (s *Service) DailyPlan(ctx context.Context, userID uint, minutesAvailable int) (queue.StudyPlan, error) {
	if minutesAvailable <= 0 {
		return queue.StudyPlan{}, apperrors.Validation("minutes available must be positive", "")
	}
	items, err := s.repo.ReviewItems.ListByUser(ctx, userID)
	if err != nil {
		return queue.StudyPlan{}, err
	}
	return s.queue.DailyPlan(userID, items, s.now(), minutesAvailable, s.unitsPerDay()), nil
}

func (s *Service) unitsPerDay() float64 {
	return s.scheduler.Config().UnitsPerDay
}

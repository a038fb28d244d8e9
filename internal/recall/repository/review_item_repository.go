package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/jgirmay/gaia-recall/internal/recall/models"
)

// ReviewItemRepositoryImpl implements ReviewItemRepository
type ReviewItemRepositoryImpl struct {
	db *gorm.DB
}

// NewReviewItemRepository creates a new review item repository
func NewReviewItemRepository(db *gorm.DB) ReviewItemRepository {
	return &ReviewItemRepositoryImpl{db: db}
}

func (r *ReviewItemRepositoryImpl) Get(ctx context.Context, userID uint, ref models.ItemRef) (*models.ReviewItem, error) {
	var item models.ReviewItem
	err := forUpdate(r.db.WithContext(ctx)).
		Where("user_id = ? AND item_type = ? AND item_key = ?", userID, ref.Type, ref.Key).
		First(&item).Error
	if err != nil {
		if err = notFoundIsNil(err); err != nil {
			return nil, internal("failed to load review item", err)
		}
		return nil, nil
	}
	return &item, nil
}

func (r *ReviewItemRepositoryImpl) Create(ctx context.Context, item *models.ReviewItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return internal("failed to create review item", err)
	}
	return nil
}

func (r *ReviewItemRepositoryImpl) Save(ctx context.Context, item *models.ReviewItem) error {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return internal("failed to save review item", err)
	}
	return nil
}

func (r *ReviewItemRepositoryImpl) ListByUser(ctx context.Context, userID uint) ([]*models.ReviewItem, error) {
	var items []*models.ReviewItem
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at, id").Find(&items).Error
	if err != nil {
		return nil, internal("failed to list review items", err)
	}
	return items, nil
}

func (r *ReviewItemRepositoryImpl) AddPoints(ctx context.Context, userID uint, points int) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.ReviewItem{}).
		Where("user_id = ? AND retired = ?", userID, false).
		Update("points_since_review", gorm.Expr("points_since_review + ?", points))
	if res.Error != nil {
		return 0, internal("failed to add progress points", res.Error)
	}
	return res.RowsAffected, nil
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/jgirmay/gaia-recall/internal/recall/models"
)

// MasteryRepositoryImpl implements MasteryRepository
type MasteryRepositoryImpl struct {
	db *gorm.DB
}

// NewMasteryRepository creates a new mastery repository
func NewMasteryRepository(db *gorm.DB) MasteryRepository {
	return &MasteryRepositoryImpl{db: db}
}

func (r *MasteryRepositoryImpl) Get(ctx context.Context, userID uint, command string) (*models.CommandMastery, error) {
	var m models.CommandMastery
	err := forUpdate(r.db.WithContext(ctx)).
		Where("user_id = ? AND canonical_command = ?", userID, command).
		First(&m).Error
	if err != nil {
		if err = notFoundIsNil(err); err != nil {
			return nil, internal("failed to load mastery", err)
		}
		return nil, nil
	}
	return &m, nil
}

func (r *MasteryRepositoryImpl) Create(ctx context.Context, m *models.CommandMastery) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return internal("failed to create mastery", err)
	}
	return nil
}

func (r *MasteryRepositoryImpl) Save(ctx context.Context, m *models.CommandMastery) error {
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return internal("failed to save mastery", err)
	}
	return nil
}

func (r *MasteryRepositoryImpl) ListByUser(ctx context.Context, userID uint, category string) ([]*models.CommandMastery, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var out []*models.CommandMastery
	if err := q.Order("canonical_command").Find(&out).Error; err != nil {
		return nil, internal("failed to list masteries", err)
	}
	return out, nil
}

func (r *MasteryRepositoryImpl) ListByCommands(ctx context.Context, userID uint, commands []string) (map[string]*models.CommandMastery, error) {
	out := make(map[string]*models.CommandMastery, len(commands))
	if len(commands) == 0 {
		return out, nil
	}
	var rows []*models.CommandMastery
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND canonical_command IN ?", userID, commands).
		Find(&rows).Error
	if err != nil {
		return nil, internal("failed to list masteries", err)
	}
	for _, m := range rows {
		out[m.CanonicalCommand] = m
	}
	return out, nil
}

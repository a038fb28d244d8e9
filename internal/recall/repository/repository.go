// Package repository stores review items and command masteries with gorm.
// Every service event runs inside Transaction; on postgres the loads inside
// it take row locks so one learner's concurrent events serialize.
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/jgirmay/gaia-recall/internal/common/errors"
	"github.com/jgirmay/gaia-recall/internal/recall/models"
)

// ReviewItemRepository defines operations for review items
type ReviewItemRepository interface {
	// Get loads the item for (user, ref); nil when it does not exist yet
	Get(ctx context.Context, userID uint, ref models.ItemRef) (*models.ReviewItem, error)

	Create(ctx context.Context, item *models.ReviewItem) error

	Save(ctx context.Context, item *models.ReviewItem) error

	// ListByUser returns all of a learner's items, retired included
	ListByUser(ctx context.Context, userID uint) ([]*models.ReviewItem, error)

	// AddPoints credits learning points to every active item of a learner
	AddPoints(ctx context.Context, userID uint, points int) (int64, error)
}

// MasteryRepository defines operations for command masteries
type MasteryRepository interface {
	// Get loads the mastery for (user, command); nil when it does not exist yet
	Get(ctx context.Context, userID uint, command string) (*models.CommandMastery, error)

	Create(ctx context.Context, m *models.CommandMastery) error

	Save(ctx context.Context, m *models.CommandMastery) error

	// ListByUser returns a learner's masteries, optionally for one category
	ListByUser(ctx context.Context, userID uint, category string) ([]*models.CommandMastery, error)

	// ListByCommands returns the existing masteries among commands, keyed by command
	ListByCommands(ctx context.Context, userID uint, commands []string) (map[string]*models.CommandMastery, error)
}

// Registry bundles the repositories over one connection or transaction.
type Registry struct {
	ReviewItems ReviewItemRepository
	Masteries   MasteryRepository

	db *gorm.DB
}

// NewRegistry creates the repositories for db
func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{
		ReviewItems: NewReviewItemRepository(db),
		Masteries:   NewMasteryRepository(db),
		db:          db,
	}
}

// Transaction runs fn with repositories bound to a single transaction. The
// transaction commits when fn returns nil.
func (r *Registry) Transaction(ctx context.Context, fn func(tx *Registry) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRegistry(tx))
	})
}

// forUpdate adds a row lock where the dialect supports it. SQLite serializes
// writers on its own.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector != nil && db.Dialector.Name() == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func notFoundIsNil(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

func internal(msg string, err error) error {
	return apperrors.Internal(msg, err.Error())
}

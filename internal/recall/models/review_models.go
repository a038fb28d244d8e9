package models

import (
	"time"

	"github.com/google/uuid"
)

// Default seed values for an item that has never been graded.
const (
	DefaultDifficulty = 5.0
	MinDifficulty     = 1.0
	MaxDifficulty     = 10.0
)

// ReviewableItem is anything the scheduler can track: a quiz question, a
// command, a lab resource. Only the identity is needed, never the payload.
type ReviewableItem interface {
	ReviewableType() string
	ReviewableKey() string
}

// ItemRef is the plain tagged identity of a reviewable item.
type ItemRef struct {
	Type string `json:"type" yaml:"type" validate:"required,max=64"`
	Key  string `json:"key" yaml:"key" validate:"required,max=255"`
}

func (r ItemRef) ReviewableType() string { return r.Type }
func (r ItemRef) ReviewableKey() string  { return r.Key }

func (r ItemRef) String() string { return r.Type + ":" + r.Key }

// RefOf copies any ReviewableItem into an ItemRef.
func RefOf(item ReviewableItem) ItemRef {
	return ItemRef{Type: item.ReviewableType(), Key: item.ReviewableKey()}
}

// ReviewItem is one scheduling record per (user, item).
type ReviewItem struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_review_user_item,priority:1" json:"user_id"`
	ItemType string    `gorm:"not null;size:64;uniqueIndex:idx_review_user_item,priority:2" json:"item_type"`
	ItemKey  string    `gorm:"not null;size:255;uniqueIndex:idx_review_user_item,priority:3" json:"item_key"`

	Difficulty      float64 `gorm:"not null" json:"difficulty"`
	Stability       float64 `gorm:"not null" json:"stability"`
	State           State   `gorm:"size:16;not null;index" json:"state"`
	ReviewCount     int     `gorm:"not null;default:0" json:"review_count"`
	LapseCount      int     `gorm:"not null;default:0" json:"lapse_count"`
	LastReviewGrade Grade   `gorm:"not null;default:0" json:"last_review_grade"`
	IntervalUnits   float64 `json:"interval_units"` // days or points, per due policy

	// Time-based due policy.
	NextReviewAt *time.Time `gorm:"index" json:"next_review_at,omitempty"`

	// Progress-based due policy.
	PointsSinceReview int  `gorm:"not null;default:0" json:"points_since_review"`
	ReviewAfterPoints *int `json:"review_after_points,omitempty"`
	LastReviewPoints  int  `gorm:"not null;default:0" json:"last_review_points"`

	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	Retired        bool       `gorm:"not null;default:false" json:"retired"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (ReviewItem) TableName() string { return "review_items" }

// NewReviewItem returns the lazily created record for a first scheduling
// event, seeded with the given stability.
func NewReviewItem(userID uint, item ReviewableItem, seedStability float64, now time.Time) *ReviewItem {
	return &ReviewItem{
		ID:         uuid.New(),
		UserID:     userID,
		ItemType:   item.ReviewableType(),
		ItemKey:    item.ReviewableKey(),
		Difficulty: DefaultDifficulty,
		Stability:  seedStability,
		State:      StateNew,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Ref returns the item identity.
func (r *ReviewItem) Ref() ItemRef {
	return ItemRef{Type: r.ItemType, Key: r.ItemKey}
}

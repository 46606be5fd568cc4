package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscription is a user-owned named set of underlying feeds. A subscription
// may aggregate several feeds (merged duplicates keep one subscription).
// Unsubscribing soft-deletes the row; per-user entry state survives.
type Subscription struct {
	ID        string         `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	UserID    string         `gorm:"index;not null" json:"user_id"`
	Title     string         `gorm:"not null" json:"title"`

	Feeds []Feed `gorm:"many2many:subscription_feeds;constraint:OnDelete:CASCADE;" json:"feeds,omitempty"`
	Tags  []Tag  `gorm:"many2many:subscription_tags;constraint:OnDelete:CASCADE;" json:"tags,omitempty"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// SubscriptionFeed is the join row behind Subscription.Feeds. Declared
// explicitly so the entry engine can query it without loading associations.
type SubscriptionFeed struct {
	SubscriptionID string `gorm:"primaryKey"`
	FeedID         string `gorm:"primaryKey"`
}

func (SubscriptionFeed) TableName() string { return "subscription_feeds" }

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tag is a user-owned label attached to zero or more subscriptions.
// A subscription with no tags is "uncategorized".
type Tag struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    string    `gorm:"index;not null;uniqueIndex:idx_user_tag_name" json:"user_id"`
	Name      string    `gorm:"not null;uniqueIndex:idx_user_tag_name" json:"name"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// SubscriptionTag is the join row behind Subscription.Tags.
type SubscriptionTag struct {
	SubscriptionID string `gorm:"primaryKey"`
	TagID          string `gorm:"primaryKey"`
}

func (SubscriptionTag) TableName() string { return "subscription_tags" }

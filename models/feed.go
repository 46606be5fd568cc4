package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Feed is an underlying source shared across users. Subscriptions reference
// feeds through SubscriptionFeed; users never query feeds directly.
type Feed struct {
	ID          string     `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	URL         string     `gorm:"uniqueIndex;not null" json:"url"`
	Title       string     `json:"title"`
	LastFetched *time.Time `json:"last_fetched,omitempty"`
}

func (f *Feed) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

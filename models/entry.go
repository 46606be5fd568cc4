package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EntryType distinguishes how an entry reached the system.
type EntryType string

const (
	EntryTypeWeb   EntryType = "web"
	EntryTypeEmail EntryType = "email"
	EntryTypeSaved EntryType = "saved"
)

// Entry is immutable content produced by ingestion. Web and email entries
// belong to exactly one feed and have no owner; saved entries belong to no
// feed and carry the saving user's id.
type Entry struct {
	ID          string     `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	Type        EntryType  `gorm:"index;not null" json:"type"`
	FeedID      *string    `gorm:"index" json:"feed_id,omitempty"`
	UserID      *string    `gorm:"index" json:"user_id,omitempty"`
	GUID        string     `gorm:"index" json:"guid"`
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	URL         string     `json:"url"`
	Content     string     `gorm:"type:text" json:"content"`
	PublishedAt *time.Time `gorm:"index" json:"published_at,omitempty"`
	FetchedAt   time.Time  `gorm:"index;not null" json:"fetched_at"`
	IsSpam      bool       `gorm:"not null;default:false" json:"is_spam"`
}

func (e *Entry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.FetchedAt.IsZero() {
		e.FetchedAt = time.Now().UTC()
	}
	return nil
}

// SortTime is the canonical ordering key: published time when the feed
// provided one, ingestion time otherwise.
func (e *Entry) SortTime() time.Time {
	if e.PublishedAt != nil {
		return *e.PublishedAt
	}
	return e.FetchedAt
}

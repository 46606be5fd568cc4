package models

import "time"

// UserEntry holds one user's read/starred state for one entry. Rows are
// created lazily on first mutation and never hard-deleted; an absent row
// means unread and unstarred.
type UserEntry struct {
	UserID    string    `gorm:"primaryKey" json:"user_id"`
	EntryID   string    `gorm:"primaryKey" json:"entry_id"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	Starred   bool      `gorm:"not null;default:false" json:"starred"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserEntry) TableName() string { return "user_entries" }

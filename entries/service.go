// Package entries implements entry retrieval, filtering, and unread-count
// aggregation over the per-user visible-entries view: listing, search,
// counting, keyset pagination, and the scoped count recomputation that
// follows read-state mutations.
package entries

import (
	"time"

	"gorm.io/gorm"

	"github.com/feedreel/feedreel/models"
)

const (
	defaultLimit = 50
	maxLimit     = 100

	// Upper bound for one bulk mark-read call.
	maxBulkMarkRead = 1000
)

type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
)

type SearchField string

const (
	SearchInTitle   SearchField = "title"
	SearchInContent SearchField = "content"
	SearchInBoth    SearchField = "both"
)

// Service executes entry queries and mutations for one backing store.
// It holds no mutable state; every call is an independent request.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Scope selects the feed set a query runs against. At most one field is set;
// all unset means the user's whole library.
type Scope struct {
	SubscriptionID *string
	TagID          *string
	Uncategorized  bool
}

// Filters are the AND-composed predicates shared by list, search, and count.
type Filters struct {
	Scope

	UnreadOnly    bool
	ReadOnly      bool
	StarredOnly   bool
	UnstarredOnly bool

	Type         *models.EntryType
	ExcludeTypes []models.EntryType

	// ShowSpam lifts the default is_spam = false predicate.
	ShowSpam bool
}

type ListParams struct {
	UserID string
	Filters
	SortOrder SortOrder
	Limit     int
	Cursor    *string
}

type SearchParams struct {
	UserID string
	Query  string
	// SearchIn selects which columns the query matches against;
	// empty means both.
	SearchIn SearchField
	Filters
	Limit  int
	Cursor *string
}

type CountParams struct {
	UserID string
	Filters
}

// EntryItem is one row of the visible-entries view: the entry plus the
// caller's read/starred state.
type EntryItem struct {
	ID          string           `json:"id"`
	Type        models.EntryType `json:"type"`
	FeedID      *string          `json:"feed_id,omitempty"`
	Title       string           `json:"title"`
	Author      string           `json:"author"`
	URL         string           `json:"url"`
	Content     string           `json:"content"`
	PublishedAt *time.Time       `json:"published_at,omitempty"`
	FetchedAt   time.Time        `json:"fetched_at"`
	IsSpam      bool             `json:"is_spam"`
	Read        bool             `json:"read"`
	Starred     bool             `json:"starred"`

	// Rank carries the relevance score on search results; zero elsewhere.
	Rank float64 `json:"-"`
}

func (e *EntryItem) sortTime() time.Time {
	if e.PublishedAt != nil {
		return *e.PublishedAt
	}
	return e.FetchedAt
}

type ListResult struct {
	Items      []EntryItem `json:"items"`
	NextCursor *string     `json:"nextCursor,omitempty"`
}

type CountResult struct {
	Total  int64 `json:"total"`
	Unread int64 `json:"unread"`
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

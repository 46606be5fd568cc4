package entries

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/feedreel/feedreel/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	// One writer at a time keeps the in-memory database on a single
	// connection; extra pool connections would each get their own store.
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Feed{},
		&models.Subscription{},
		&models.SubscriptionFeed{},
		&models.Tag{},
		&models.SubscriptionTag{},
		&models.Entry{},
		&models.UserEntry{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{Username: username, Password: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return user
}

func seedFeed(t *testing.T, db *gorm.DB, url string) models.Feed {
	t.Helper()
	feed := models.Feed{URL: url}
	if err := db.Create(&feed).Error; err != nil {
		t.Fatalf("seed feed %s: %v", url, err)
	}
	return feed
}

func seedSubscription(t *testing.T, db *gorm.DB, userID, title string, feedIDs ...string) models.Subscription {
	t.Helper()
	sub := models.Subscription{UserID: userID, Title: title}
	if err := db.Create(&sub).Error; err != nil {
		t.Fatalf("seed subscription %s: %v", title, err)
	}
	for _, feedID := range feedIDs {
		link := models.SubscriptionFeed{SubscriptionID: sub.ID, FeedID: feedID}
		if err := db.Create(&link).Error; err != nil {
			t.Fatalf("link feed %s: %v", feedID, err)
		}
	}
	return sub
}

func seedTag(t *testing.T, db *gorm.DB, userID, name string, subscriptionIDs ...string) models.Tag {
	t.Helper()
	tag := models.Tag{UserID: userID, Name: name}
	if err := db.Create(&tag).Error; err != nil {
		t.Fatalf("seed tag %s: %v", name, err)
	}
	for _, subID := range subscriptionIDs {
		link := models.SubscriptionTag{SubscriptionID: subID, TagID: tag.ID}
		if err := db.Create(&link).Error; err != nil {
			t.Fatalf("link tag to %s: %v", subID, err)
		}
	}
	return tag
}

// seedFeedEntry inserts a web entry with an explicit id so ordering and
// tie-break assertions stay readable.
func seedFeedEntry(t *testing.T, db *gorm.DB, id, feedID string, publishedAt *time.Time, fetchedAt time.Time) models.Entry {
	t.Helper()
	entry := models.Entry{
		ID:          id,
		Type:        models.EntryTypeWeb,
		FeedID:      &feedID,
		GUID:        id,
		Title:       "entry " + id,
		PublishedAt: publishedAt,
		FetchedAt:   fetchedAt,
	}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("seed entry %s: %v", id, err)
	}
	return entry
}

func seedSavedEntry(t *testing.T, db *gorm.DB, id, userID string, fetchedAt time.Time) models.Entry {
	t.Helper()
	entry := models.Entry{
		ID:        id,
		Type:      models.EntryTypeSaved,
		UserID:    &userID,
		GUID:      id,
		Title:     "saved " + id,
		FetchedAt: fetchedAt,
	}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("seed saved entry %s: %v", id, err)
	}
	return entry
}

func markRead(t *testing.T, db *gorm.DB, userID, entryID string) {
	t.Helper()
	state := models.UserEntry{UserID: userID, EntryID: entryID, Read: true}
	if err := db.Create(&state).Error; err != nil {
		t.Fatalf("mark %s read: %v", entryID, err)
	}
}

func itemIDs(items []EntryItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func at(sec int) time.Time {
	return time.Date(2026, 3, 1, 12, 0, sec, 0, time.UTC)
}

func atPtr(sec int) *time.Time {
	ts := at(sec)
	return &ts
}

package entries

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/feedreel/feedreel/models"
)

func TestMarkEntriesReadRecomputesOnlyAffectedScope(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user := seedUser(t, db, "alice")
	feedA := seedFeed(t, db, "https://example.com/a.xml")
	feedB := seedFeed(t, db, "https://example.com/b.xml")
	subA := seedSubscription(t, db, user.ID, "A", feedA.ID)
	subB := seedSubscription(t, db, user.ID, "B", feedB.ID)
	tagA := seedTag(t, db, user.ID, "tech", subA.ID)
	seedTag(t, db, user.ID, "news", subB.ID)

	// Subscription A holds 5 entries, 3 unread after the seed marks.
	for i := 0; i < 5; i++ {
		seedFeedEntry(t, db, fmt.Sprintf("a%d", i), feedA.ID, nil, at(i))
	}
	markRead(t, db, user.ID, "a3")
	markRead(t, db, user.ID, "a4")
	seedFeedEntry(t, db, "b0", feedB.ID, nil, at(9))

	result, err := svc.MarkEntriesRead(ctx, user.ID, []string{"a0", "a1"}, true)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}

	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 mutated entries, got %d", len(result.Entries))
	}
	for _, e := range result.Entries {
		if !e.Read {
			t.Fatalf("entry %s should be read", e.ID)
		}
	}

	if len(result.SubscriptionUnreadCounts) != 1 {
		t.Fatalf("expected exactly one subscription count, got %+v", result.SubscriptionUnreadCounts)
	}
	got := result.SubscriptionUnreadCounts[0]
	if got.ID != subA.ID || got.UnreadCount != 1 {
		t.Fatalf("expected {%s 1}, got %+v", subA.ID, got)
	}

	if len(result.TagUnreadCounts) != 1 {
		t.Fatalf("expected exactly one tag count, got %+v", result.TagUnreadCounts)
	}
	if result.TagUnreadCounts[0].ID != tagA.ID || result.TagUnreadCounts[0].UnreadCount != 1 {
		t.Fatalf("expected tag %s count 1, got %+v", tagA.ID, result.TagUnreadCounts[0])
	}

	// Subscription B never appears and its count is untouched.
	counts, err := svc.SubscriptionUnreadCounts(ctx, user.ID, []string{subB.ID})
	if err != nil {
		t.Fatalf("count B: %v", err)
	}
	if counts[0].UnreadCount != 1 {
		t.Fatalf("subscription B drifted: %+v", counts[0])
	}
}

func TestMarkEntriesReadIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user := seedUser(t, db, "alice")
	feed := seedFeed(t, db, "https://example.com/a.xml")
	seedSubscription(t, db, user.ID, "A", feed.ID)
	seedFeedEntry(t, db, "e1", feed.ID, nil, at(1))
	seedFeedEntry(t, db, "e2", feed.ID, nil, at(2))

	first, err := svc.MarkEntriesRead(ctx, user.ID, []string{"e1"}, true)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := svc.MarkEntriesRead(ctx, user.ID, []string{"e1"}, true)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if len(first.Entries) != 1 || len(second.Entries) != 1 {
		t.Fatalf("expected one entry in each response")
	}
	if first.Entries[0] != second.Entries[0] {
		t.Fatalf("states differ: %+v vs %+v", first.Entries[0], second.Entries[0])
	}
	if len(second.SubscriptionUnreadCounts) != 1 ||
		second.SubscriptionUnreadCounts[0].UnreadCount != first.SubscriptionUnreadCounts[0].UnreadCount {
		t.Fatalf("counts differ between calls: %+v vs %+v",
			first.SubscriptionUnreadCounts, second.SubscriptionUnreadCounts)
	}
}

func TestMarkEntriesReadBounds(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	user := seedUser(t, db, "alice")

	empty, err := svc.MarkEntriesRead(ctx, user.ID, nil, true)
	if err != nil {
		t.Fatalf("empty input should be a no-op, got %v", err)
	}
	if len(empty.Entries) != 0 || len(empty.SubscriptionUnreadCounts) != 0 || len(empty.TagUnreadCounts) != 0 {
		t.Fatalf("expected empty result, got %+v", empty)
	}

	tooMany := make([]string, 1001)
	for i := range tooMany {
		tooMany[i] = fmt.Sprintf("e%d", i)
	}
	_, err = svc.MarkEntriesRead(ctx, user.ID, tooMany, true)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError above 1000 ids, got %v", err)
	}
}

func TestMarkEntriesReadIgnoresForeignEntries(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	bobFeed := seedFeed(t, db, "https://example.com/b.xml")
	seedSubscription(t, db, bob.ID, "B", bobFeed.ID)
	seedFeedEntry(t, db, "theirs", bobFeed.ID, nil, at(1))

	result, err := svc.MarkEntriesRead(ctx, alice.ID, []string{"theirs", "missing"}, true)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if len(result.Entries) != 0 {
		t.Fatalf("foreign entries must not be mutated, got %+v", result.Entries)
	}

	var count int64
	if err := db.Model(&models.UserEntry{}).Where("user_id = ?", alice.ID).Count(&count).Error; err != nil {
		t.Fatalf("count state rows: %v", err)
	}
	if count != 0 {
		t.Fatalf("no state rows should exist for alice, found %d", count)
	}
}

func TestMarkEntriesReadUnread(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user := seedUser(t, db, "alice")
	feed := seedFeed(t, db, "https://example.com/a.xml")
	sub := seedSubscription(t, db, user.ID, "A", feed.ID)
	seedFeedEntry(t, db, "e1", feed.ID, nil, at(1))
	markRead(t, db, user.ID, "e1")

	result, err := svc.MarkEntriesRead(ctx, user.ID, []string{"e1"}, false)
	if err != nil {
		t.Fatalf("mark unread: %v", err)
	}
	if len(result.Entries) != 1 || result.Entries[0].Read {
		t.Fatalf("expected e1 unread, got %+v", result.Entries)
	}
	if result.SubscriptionUnreadCounts[0].ID != sub.ID || result.SubscriptionUnreadCounts[0].UnreadCount != 1 {
		t.Fatalf("expected {%s 1}, got %+v", sub.ID, result.SubscriptionUnreadCounts[0])
	}
}

func TestUpdateEntryStarredIsStrictAboutOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	aliceFeed := seedFeed(t, db, "https://example.com/a.xml")
	bobFeed := seedFeed(t, db, "https://example.com/b.xml")
	seedSubscription(t, db, alice.ID, "A", aliceFeed.ID)
	seedSubscription(t, db, bob.ID, "B", bobFeed.ID)
	seedFeedEntry(t, db, "mine", aliceFeed.ID, nil, at(1))
	seedFeedEntry(t, db, "foreign-entry-id", bobFeed.ID, nil, at(2))

	state, err := svc.UpdateEntryStarred(ctx, alice.ID, "mine", true)
	if err != nil {
		t.Fatalf("star own entry: %v", err)
	}
	if !state.Starred || state.Read {
		t.Fatalf("unexpected state %+v", state)
	}

	state, err = svc.UpdateEntryStarred(ctx, alice.ID, "mine", false)
	if err != nil {
		t.Fatalf("unstar: %v", err)
	}
	if state.Starred {
		t.Fatalf("expected unstarred, got %+v", state)
	}

	_, err = svc.UpdateEntryStarred(ctx, alice.ID, "foreign-entry-id", true)
	var notFoundErr *NotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("expected NotFoundError for foreign entry, got %v", err)
	}
}

func TestRelatedCountsForFeedEntryWithTags(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user := seedUser(t, db, "alice")
	feed := seedFeed(t, db, "https://example.com/a.xml")
	sub := seedSubscription(t, db, user.ID, "A", feed.ID)
	tag := seedTag(t, db, user.ID, "tech", sub.ID)

	seedFeedEntry(t, db, "e1", feed.ID, nil, at(1))
	seedFeedEntry(t, db, "e2", feed.ID, nil, at(2))
	markRead(t, db, user.ID, "e2")
	if err := db.Create(&models.UserEntry{UserID: user.ID, EntryID: "e1", Starred: true}).Error; err != nil {
		t.Fatalf("star e1: %v", err)
	}

	counts, err := svc.GetEntryRelatedCounts(ctx, user.ID, "e1")
	if err != nil {
		t.Fatalf("related counts: %v", err)
	}
	if counts.All != 1 {
		t.Fatalf("expected all=1, got %d", counts.All)
	}
	if counts.Starred != 1 {
		t.Fatalf("expected starred=1, got %d", counts.Starred)
	}
	if counts.Saved != nil {
		t.Fatal("feed entries carry no saved baseline")
	}
	if counts.Subscription == nil || counts.Subscription.ID != sub.ID || counts.Subscription.UnreadCount != 1 {
		t.Fatalf("unexpected subscription count %+v", counts.Subscription)
	}
	if len(counts.Tags) != 1 || counts.Tags[0].ID != tag.ID {
		t.Fatalf("unexpected tag counts %+v", counts.Tags)
	}
	if counts.Uncategorized != nil {
		t.Fatal("tagged subscription must not report uncategorized")
	}
}

func TestRelatedCountsForUncategorizedSubscription(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user := seedUser(t, db, "alice")
	feed := seedFeed(t, db, "https://example.com/a.xml")
	seedSubscription(t, db, user.ID, "A", feed.ID)
	seedFeedEntry(t, db, "e1", feed.ID, nil, at(1))

	counts, err := svc.GetEntryRelatedCounts(ctx, user.ID, "e1")
	if err != nil {
		t.Fatalf("related counts: %v", err)
	}
	if len(counts.Tags) != 0 {
		t.Fatalf("expected no tag counts, got %+v", counts.Tags)
	}
	if counts.Uncategorized == nil || *counts.Uncategorized != 1 {
		t.Fatalf("expected uncategorized=1, got %v", counts.Uncategorized)
	}
}

func TestRelatedCountsForSavedEntrySkipsSubscriptions(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user := seedUser(t, db, "alice")
	seedSavedEntry(t, db, "s1", user.ID, at(1))
	seedSavedEntry(t, db, "s2", user.ID, at(2))
	markRead(t, db, user.ID, "s2")

	counts, err := svc.GetEntryRelatedCounts(ctx, user.ID, "s1")
	if err != nil {
		t.Fatalf("related counts: %v", err)
	}
	if counts.Saved == nil || *counts.Saved != 1 {
		t.Fatalf("expected saved=1, got %v", counts.Saved)
	}
	if counts.Subscription != nil || counts.Tags != nil || counts.Uncategorized != nil {
		t.Fatalf("saved entries must skip subscription/tag scopes: %+v", counts)
	}
}

func TestRelatedCountsPickOldestSubscriptionForSharedFeed(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user := seedUser(t, db, "alice")
	feed := seedFeed(t, db, "https://example.com/shared.xml")
	older := seedSubscription(t, db, user.ID, "Older", feed.ID)
	newer := seedSubscription(t, db, user.ID, "Newer", feed.ID)
	if err := db.Model(&models.Subscription{}).Where("id = ?", older.ID).
		Update("created_at", at(0)).Error; err != nil {
		t.Fatalf("age older sub: %v", err)
	}
	if err := db.Model(&models.Subscription{}).Where("id = ?", newer.ID).
		Update("created_at", at(5)).Error; err != nil {
		t.Fatalf("age newer sub: %v", err)
	}
	seedFeedEntry(t, db, "e1", feed.ID, nil, at(1))

	for i := 0; i < 3; i++ {
		counts, err := svc.GetNewEntryRelatedCounts(ctx, user.ID, models.EntryTypeWeb, &feed.ID)
		if err != nil {
			t.Fatalf("related counts: %v", err)
		}
		if counts.Subscription == nil || counts.Subscription.ID != older.ID {
			t.Fatalf("expected subscription %s every time, got %+v", older.ID, counts.Subscription)
		}
	}
}

func TestBulkRelatedCountsSharesScopeComputation(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user := seedUser(t, db, "alice")
	feed := seedFeed(t, db, "https://example.com/a.xml")
	sub := seedSubscription(t, db, user.ID, "A", feed.ID)
	seedFeedEntry(t, db, "e1", feed.ID, nil, at(1))
	seedFeedEntry(t, db, "e2", feed.ID, nil, at(2))

	payloads, err := svc.GetBulkEntryRelatedCounts(ctx, user.ID, []string{"e1", "e2", "missing"})
	if err != nil {
		t.Fatalf("bulk related counts: %v", err)
	}
	if len(payloads) != 2 {
		t.Fatalf("expected payloads for the 2 visible entries, got %d", len(payloads))
	}
	for id, p := range payloads {
		if p.Subscription == nil || p.Subscription.ID != sub.ID || p.Subscription.UnreadCount != 2 {
			t.Fatalf("entry %s: unexpected subscription payload %+v", id, p.Subscription)
		}
	}
}

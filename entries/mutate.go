package entries

import (
	"context"

	"gorm.io/gorm"

	"github.com/feedreel/feedreel/models"
)

// EntryReadState is one entry's per-user state after a mutation.
type EntryReadState struct {
	ID      string `json:"id"`
	Read    bool   `json:"read"`
	Starred bool   `json:"starred"`
}

// ScopeCount is an authoritative unread count for one subscription or tag.
type ScopeCount struct {
	ID          string `json:"id"`
	UnreadCount int64  `json:"unreadCount"`
}

// MarkEntriesReadResult carries the mutated entry states plus recomputed
// unread counts for the subscriptions and tags the mutation touched. Scopes
// outside the mutation never appear.
type MarkEntriesReadResult struct {
	Entries                  []EntryReadState `json:"entries"`
	SubscriptionUnreadCounts []ScopeCount     `json:"subscriptionUnreadCounts"`
	TagUnreadCounts          []ScopeCount     `json:"tagUnreadCounts"`
}

// upsertReadStateSQL lazily creates state rows for entries the user can see
// and flips their read flag in one statement. Arguments: userID, read,
// entryIDs, userID (saved owner), userID (subscription owner).
const upsertReadStateSQL = `
	INSERT INTO user_entries (user_id, entry_id, read, starred, created_at, updated_at)
	SELECT ?, e.id, ?, FALSE, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
	FROM entries e
	WHERE e.id IN ?
	  AND ((e.type = 'saved' AND e.user_id = ?)
	       OR (e.type IN ('web', 'email') AND e.feed_id IN (` + ownedFeedIDsSQL + `)))
	ON CONFLICT (user_id, entry_id) DO UPDATE SET
		read = EXCLUDED.read,
		updated_at = EXCLUDED.updated_at
	RETURNING entry_id AS id, read, starred`

// MarkEntriesRead applies a bulk read-state change and recomputes unread
// counts for the minimum affected scope: the distinct feeds touched, the
// live owned subscriptions covering those feeds, and the tags attached to
// those subscriptions. The update and the follow-up counts share one
// transaction so the caller never sees counts older than its own write.
func (s *Service) MarkEntriesRead(ctx context.Context, userID string, entryIDs []string, read bool) (MarkEntriesReadResult, error) {
	result := MarkEntriesReadResult{
		Entries:                  []EntryReadState{},
		SubscriptionUnreadCounts: []ScopeCount{},
		TagUnreadCounts:          []ScopeCount{},
	}
	if len(entryIDs) == 0 {
		return result, nil
	}
	if len(entryIDs) > maxBulkMarkRead {
		return result, newValidationError("Cannot mark more than 1000 entries at once")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var states []EntryReadState
		err := tx.Raw(upsertReadStateSQL, userID, read, entryIDs, userID, userID).
			Scan(&states).Error
		if err != nil {
			return err
		}
		if len(states) == 0 {
			return nil
		}
		result.Entries = states

		affectedIDs := make([]string, 0, len(states))
		for _, st := range states {
			affectedIDs = append(affectedIDs, st.ID)
		}

		var feedIDs []string
		err = tx.Table("entries").
			Where("id IN ? AND feed_id IS NOT NULL", affectedIDs).
			Distinct().
			Pluck("feed_id", &feedIDs).Error
		if err != nil {
			return err
		}
		if len(feedIDs) == 0 {
			// Only saved entries were touched; no feed scope to recompute.
			return nil
		}

		var subIDs []string
		err = tx.Table("subscriptions AS s").
			Joins("JOIN subscription_feeds sf ON sf.subscription_id = s.id").
			Where("s.user_id = ? AND s.deleted_at IS NULL AND sf.feed_id IN ?", userID, feedIDs).
			Distinct().
			Pluck("s.id", &subIDs).Error
		if err != nil {
			return err
		}
		if len(subIDs) == 0 {
			return nil
		}

		var tagIDs []string
		err = tx.Table("subscription_tags AS st").
			Joins("JOIN tags t ON t.id = st.tag_id").
			Where("st.subscription_id IN ? AND t.user_id = ?", subIDs, userID).
			Distinct().
			Pluck("st.tag_id", &tagIDs).Error
		if err != nil {
			return err
		}

		result.SubscriptionUnreadCounts, err = s.unreadCountsBySubscription(tx, userID, subIDs)
		if err != nil {
			return err
		}
		if len(tagIDs) > 0 {
			result.TagUnreadCounts, err = s.unreadCountsByTag(tx, userID, tagIDs)
			if err != nil {
				return err
			}
		}
		return nil
	})
	return result, err
}

// upsertStarredSQL mirrors upsertReadStateSQL for the starred flag of one
// entry. Arguments: userID, starred, entryID, userID, userID.
const upsertStarredSQL = `
	INSERT INTO user_entries (user_id, entry_id, read, starred, created_at, updated_at)
	SELECT ?, e.id, FALSE, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
	FROM entries e
	WHERE e.id = ?
	  AND ((e.type = 'saved' AND e.user_id = ?)
	       OR (e.type IN ('web', 'email') AND e.feed_id IN (` + ownedFeedIDsSQL + `)))
	ON CONFLICT (user_id, entry_id) DO UPDATE SET
		starred = EXCLUDED.starred,
		updated_at = EXCLUDED.updated_at
	RETURNING entry_id AS id, read, starred`

// UpdateEntryStarred flips the starred flag of one visible entry. Unlike the
// tolerant bulk mark-read path, zero affected rows is a hard NotFoundError.
func (s *Service) UpdateEntryStarred(ctx context.Context, userID, entryID string, starred bool) (EntryReadState, error) {
	var states []EntryReadState
	err := s.db.WithContext(ctx).
		Raw(upsertStarredSQL, userID, starred, entryID, userID, userID).
		Scan(&states).Error
	if err != nil {
		return EntryReadState{}, err
	}
	if len(states) == 0 {
		return EntryReadState{}, newNotFoundError("entry", entryID)
	}
	return states[0], nil
}

// unreadCountExpr counts entries the user has not read, under the default
// spam visibility, deduplicated in case association rows overlap.
const unreadCountExpr = "COUNT(DISTINCT e.id) FILTER (WHERE NOT COALESCE(ue.read, FALSE) AND e.is_spam = FALSE)"

func (s *Service) unreadCountsBySubscription(db *gorm.DB, userID string, subIDs []string) ([]ScopeCount, error) {
	var counts []ScopeCount
	err := db.Table("subscriptions AS s").
		Select("s.id AS id, "+unreadCountExpr+" AS unread_count").
		Joins("LEFT JOIN subscription_feeds sf ON sf.subscription_id = s.id").
		Joins("LEFT JOIN entries e ON e.feed_id = sf.feed_id").
		Joins("LEFT JOIN user_entries ue ON ue.entry_id = e.id AND ue.user_id = ?", userID).
		Where("s.id IN ? AND s.user_id = ? AND s.deleted_at IS NULL", subIDs, userID).
		Group("s.id").
		Scan(&counts).Error
	if counts == nil {
		counts = []ScopeCount{}
	}
	return counts, err
}

func (s *Service) unreadCountsByTag(db *gorm.DB, userID string, tagIDs []string) ([]ScopeCount, error) {
	var counts []ScopeCount
	err := db.Table("tags AS t").
		Select("t.id AS id, "+unreadCountExpr+" AS unread_count").
		Joins("LEFT JOIN subscription_tags st ON st.tag_id = t.id").
		Joins("LEFT JOIN subscriptions s ON s.id = st.subscription_id AND s.deleted_at IS NULL").
		Joins("LEFT JOIN subscription_feeds sf ON sf.subscription_id = s.id").
		Joins("LEFT JOIN entries e ON e.feed_id = sf.feed_id").
		Joins("LEFT JOIN user_entries ue ON ue.entry_id = e.id AND ue.user_id = ?", userID).
		Where("t.id IN ? AND t.user_id = ?", tagIDs, userID).
		Group("t.id").
		Scan(&counts).Error
	if counts == nil {
		counts = []ScopeCount{}
	}
	return counts, err
}

// SubscriptionUnreadCounts recomputes unread counts for the given owned
// subscriptions from source data. Exposed for sidebar listings; the same
// aggregation backs the post-mutation scope recompute.
func (s *Service) SubscriptionUnreadCounts(ctx context.Context, userID string, subIDs []string) ([]ScopeCount, error) {
	if len(subIDs) == 0 {
		return []ScopeCount{}, nil
	}
	return s.unreadCountsBySubscription(s.db.WithContext(ctx), userID, subIDs)
}

// TagUnreadCounts recomputes unread counts for the given owned tags.
func (s *Service) TagUnreadCounts(ctx context.Context, userID string, tagIDs []string) ([]ScopeCount, error) {
	if len(tagIDs) == 0 {
		return []ScopeCount{}, nil
	}
	return s.unreadCountsByTag(s.db.WithContext(ctx), userID, tagIDs)
}

// RelatedCounts is the absolute count payload pushed to real-time
// subscribers after an event. Absolute values avoid the drift that
// accumulating relative deltas on the client would cause.
type RelatedCounts struct {
	All           int64        `json:"all"`
	Starred       int64        `json:"starred"`
	Saved         *int64       `json:"saved,omitempty"`
	Subscription  *ScopeCount  `json:"subscription,omitempty"`
	Tags          []ScopeCount `json:"tags,omitempty"`
	Uncategorized *int64       `json:"uncategorized,omitempty"`
}

// GetEntryRelatedCounts produces the count payload for one persisted entry.
func (s *Service) GetEntryRelatedCounts(ctx context.Context, userID, entryID string) (RelatedCounts, error) {
	item, err := s.GetEntry(ctx, userID, entryID)
	if err != nil {
		return RelatedCounts{}, err
	}
	return s.computeRelatedCounts(s.db.WithContext(ctx), userID, item.Type, item.FeedID)
}

// GetNewEntryRelatedCounts produces the payload for an entry that has not
// been persisted yet, given only its type and feed.
func (s *Service) GetNewEntryRelatedCounts(ctx context.Context, userID string, entryType models.EntryType, feedID *string) (RelatedCounts, error) {
	return s.computeRelatedCounts(s.db.WithContext(ctx), userID, entryType, feedID)
}

// GetBulkEntryRelatedCounts produces payloads for a batch of entries keyed by
// entry id. Entries sharing a feed share one computation; ids the user cannot
// see are silently skipped, mirroring the bulk mark-read path.
func (s *Service) GetBulkEntryRelatedCounts(ctx context.Context, userID string, entryIDs []string) (map[string]RelatedCounts, error) {
	if len(entryIDs) == 0 {
		return map[string]RelatedCounts{}, nil
	}
	db := s.db.WithContext(ctx)

	type entryRef struct {
		ID     string
		Type   models.EntryType
		FeedID *string
	}
	var refs []entryRef
	err := s.visibleEntries(db, userID).
		Where("e.id IN ?", entryIDs).
		Select("e.id, e.type, e.feed_id").
		Scan(&refs).Error
	if err != nil {
		return nil, err
	}

	type scopeKey struct {
		entryType models.EntryType
		feedID    string
	}
	memo := make(map[scopeKey]RelatedCounts)
	out := make(map[string]RelatedCounts, len(refs))
	for _, ref := range refs {
		key := scopeKey{entryType: ref.Type}
		if ref.FeedID != nil {
			key.feedID = *ref.FeedID
		}
		counts, ok := memo[key]
		if !ok {
			counts, err = s.computeRelatedCounts(db, userID, ref.Type, ref.FeedID)
			if err != nil {
				return nil, err
			}
			memo[key] = counts
		}
		out[ref.ID] = counts
	}
	return out, nil
}

func (s *Service) computeRelatedCounts(db *gorm.DB, userID string, entryType models.EntryType, feedID *string) (RelatedCounts, error) {
	var counts RelatedCounts

	var baseline struct {
		AllCount     int64
		StarredCount int64
	}
	err := s.visibleEntries(db, userID).
		Where("e.is_spam = FALSE").
		Select("COUNT(*) FILTER (WHERE " + unreadExpr + ") AS all_count, " +
			"COUNT(*) FILTER (WHERE COALESCE(ue.starred, FALSE)) AS starred_count").
		Scan(&baseline).Error
	if err != nil {
		return RelatedCounts{}, err
	}
	counts.All = baseline.AllCount
	counts.Starred = baseline.StarredCount

	// Saved entries touch no subscription or tag; their payload is the
	// cheaper saved-baseline shape.
	if entryType == models.EntryTypeSaved {
		var saved int64
		err := s.visibleEntries(db, userID).
			Where("e.type = ? AND e.is_spam = FALSE AND "+unreadExpr, models.EntryTypeSaved).
			Count(&saved).Error
		if err != nil {
			return RelatedCounts{}, err
		}
		counts.Saved = &saved
		return counts, nil
	}

	if feedID == nil {
		return counts, nil
	}

	// A web or email entry resolves exactly one live owned subscription.
	var subIDs []string
	err = db.Table("subscriptions AS s").
		Joins("JOIN subscription_feeds sf ON sf.subscription_id = s.id").
		Where("s.user_id = ? AND s.deleted_at IS NULL AND sf.feed_id = ?", userID, *feedID).
		Order("s.created_at, s.id").
		Limit(1).
		Pluck("s.id", &subIDs).Error
	if err != nil {
		return RelatedCounts{}, err
	}
	if len(subIDs) == 0 {
		return counts, nil
	}
	subID := subIDs[0]

	subCounts, err := s.unreadCountsBySubscription(db, userID, []string{subID})
	if err != nil {
		return RelatedCounts{}, err
	}
	if len(subCounts) == 1 {
		counts.Subscription = &subCounts[0]
	}

	var tagIDs []string
	err = db.Table("subscription_tags AS st").
		Joins("JOIN tags t ON t.id = st.tag_id").
		Where("st.subscription_id = ? AND t.user_id = ?", subID, userID).
		Pluck("st.tag_id", &tagIDs).Error
	if err != nil {
		return RelatedCounts{}, err
	}

	// The entry's subscription sits either under its tags or in the
	// uncategorized bucket, never both.
	if len(tagIDs) > 0 {
		counts.Tags, err = s.unreadCountsByTag(db, userID, tagIDs)
		if err != nil {
			return RelatedCounts{}, err
		}
		return counts, nil
	}

	fs, err := s.resolveFeedSet(db, userID, Scope{Uncategorized: true})
	if err != nil {
		return RelatedCounts{}, err
	}
	var uncategorized int64
	q := s.visibleEntries(db, userID).Where("e.is_spam = FALSE AND " + unreadExpr)
	if err := fs.apply(q).Count(&uncategorized).Error; err != nil {
		return RelatedCounts{}, err
	}
	counts.Uncategorized = &uncategorized
	return counts, nil
}

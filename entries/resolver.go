package entries

import (
	"gorm.io/gorm"
)

// feedSet is the resolved form of a Scope: unscoped, known-empty, a
// materialized id list, or a lazily-evaluated subquery. The query executor
// never branches on which case produced it.
type feedSet struct {
	scoped bool
	empty  bool
	ids    []string
	sub    *gorm.DB
}

// Empty reports the explicit empty-result signal: the scope does not exist,
// is not owned by the caller, or contains no feeds. Callers short-circuit to
// an empty page or zero count without issuing the entry query.
func (fs feedSet) Empty() bool {
	return fs.empty
}

func (fs feedSet) apply(q *gorm.DB) *gorm.DB {
	switch {
	case !fs.scoped:
		return q
	case fs.ids != nil:
		return q.Where("e.feed_id IN ?", fs.ids)
	default:
		return q.Where("e.feed_id IN (?)", fs.sub)
	}
}

// resolveFeedSet turns a Scope into a feedSet for one user. Ownership is
// validated inside the joins themselves: a foreign or unknown subscription or
// tag id yields zero rows, which surfaces as an empty result, never an error.
func (s *Service) resolveFeedSet(db *gorm.DB, userID string, sc Scope) (feedSet, error) {
	switch {
	case sc.SubscriptionID != nil:
		// Cheap enough to materialize, and doing so makes the missing or
		// foreign subscription case an explicit signal before any entry
		// query runs.
		var ids []string
		err := db.Table("subscription_feeds AS sf").
			Joins("JOIN subscriptions s ON s.id = sf.subscription_id").
			Where("s.id = ? AND s.user_id = ? AND s.deleted_at IS NULL", *sc.SubscriptionID, userID).
			Pluck("sf.feed_id", &ids).Error
		if err != nil {
			return feedSet{}, err
		}
		if len(ids) == 0 {
			return feedSet{scoped: true, empty: true}, nil
		}
		return feedSet{scoped: true, ids: ids}, nil

	case sc.TagID != nil:
		// Inner join through the association tables validates tag ownership
		// in the same statement that resolves the feed set.
		sub := db.Session(&gorm.Session{NewDB: true}).
			Table("subscription_feeds AS sf").
			Select("sf.feed_id").
			Joins("JOIN subscriptions s ON s.id = sf.subscription_id").
			Joins("JOIN subscription_tags st ON st.subscription_id = s.id").
			Joins("JOIN tags t ON t.id = st.tag_id").
			Where("t.id = ? AND t.user_id = ? AND s.deleted_at IS NULL", *sc.TagID, userID)
		return feedSet{scoped: true, sub: sub}, nil

	case sc.Uncategorized:
		// Anti-join: feeds of live subscriptions with no tag association.
		sub := db.Session(&gorm.Session{NewDB: true}).
			Table("subscription_feeds AS sf").
			Select("sf.feed_id").
			Joins("JOIN subscriptions s ON s.id = sf.subscription_id").
			Where("s.user_id = ? AND s.deleted_at IS NULL", userID).
			Where("NOT EXISTS (SELECT 1 FROM subscription_tags st WHERE st.subscription_id = s.id)")
		return feedSet{scoped: true, sub: sub}, nil

	default:
		return feedSet{}, nil
	}
}

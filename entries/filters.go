package entries

import (
	"gorm.io/gorm"

	"github.com/feedreel/feedreel/models"
)

// predicate is one independent, AND-composable condition over the
// visible-entries view.
type predicate struct {
	expr string
	args []any
}

// visibleEntries is the base relation every read and count runs against:
// entries joined with the caller's state rows, restricted to saved entries
// the caller owns or feed entries reachable through the caller's live
// subscriptions. Ownership is enforced by the join itself; an entry outside
// the caller's library simply produces no row.
func (s *Service) visibleEntries(db *gorm.DB, userID string) *gorm.DB {
	return db.Table("entries AS e").
		Joins("LEFT JOIN user_entries ue ON ue.entry_id = e.id AND ue.user_id = ?", userID).
		Where(`(e.type = ? AND e.user_id = ?) OR (e.type IN ? AND e.feed_id IN (`+ownedFeedIDsSQL+`))`,
			models.EntryTypeSaved, userID,
			[]models.EntryType{models.EntryTypeWeb, models.EntryTypeEmail}, userID)
}

// ownedFeedIDsSQL yields the feed ids of the user's non-deleted
// subscriptions. Takes one argument: the user id.
const ownedFeedIDsSQL = `
	SELECT sf.feed_id FROM subscription_feeds sf
	JOIN subscriptions s ON s.id = sf.subscription_id
	WHERE s.user_id = ? AND s.deleted_at IS NULL`

// unreadExpr treats a lazily-absent state row as unread.
const unreadExpr = "NOT COALESCE(ue.read, FALSE)"

// buildPredicates turns the caller's filters into conditions. The same list
// backs list, search, and count so the three can never disagree on what
// matches.
func buildPredicates(f Filters) []predicate {
	var preds []predicate

	switch {
	case f.UnreadOnly:
		preds = append(preds, predicate{expr: "COALESCE(ue.read, FALSE) = FALSE"})
	case f.ReadOnly:
		preds = append(preds, predicate{expr: "COALESCE(ue.read, FALSE) = TRUE"})
	}

	switch {
	case f.StarredOnly:
		preds = append(preds, predicate{expr: "COALESCE(ue.starred, FALSE) = TRUE"})
	case f.UnstarredOnly:
		preds = append(preds, predicate{expr: "COALESCE(ue.starred, FALSE) = FALSE"})
	}

	if f.Type != nil {
		preds = append(preds, predicate{expr: "e.type = ?", args: []any{*f.Type}})
	}
	if len(f.ExcludeTypes) > 0 {
		preds = append(preds, predicate{expr: "e.type NOT IN ?", args: []any{f.ExcludeTypes}})
	}

	if !f.ShowSpam {
		preds = append(preds, predicate{expr: "e.is_spam = FALSE"})
	}

	return preds
}

func applyPredicates(q *gorm.DB, preds []predicate) *gorm.DB {
	for _, p := range preds {
		q = q.Where(p.expr, p.args...)
	}
	return q
}

package entries

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

const entrySelectColumns = `
	e.id, e.type, e.feed_id, e.title, e.author, e.url, e.content,
	e.published_at, e.fetched_at, e.is_spam,
	COALESCE(ue.read, FALSE) AS read, COALESCE(ue.starred, FALSE) AS starred`

// sortTimeExpr is the canonical ordering key: published time when the feed
// provided one, ingestion time otherwise. The substitution affects ordering
// determinism, so it must match what the cursor encodes.
const sortTimeExpr = "COALESCE(e.published_at, e.fetched_at)"

// ListEntries returns one chronologically ordered page of the visible-entries
// view plus the cursor for the next page. Keyset pagination over the total
// order (sort time, id) keeps already-returned rows stable under concurrent
// writes.
func (s *Service) ListEntries(ctx context.Context, p ListParams) (ListResult, error) {
	db := s.db.WithContext(ctx)

	fs, err := s.resolveFeedSet(db, p.UserID, p.Scope)
	if err != nil {
		return ListResult{}, err
	}
	if fs.Empty() {
		return ListResult{Items: []EntryItem{}}, nil
	}

	limit := clampLimit(p.Limit)
	order := p.SortOrder
	if order == "" {
		order = SortNewest
	}

	q := s.visibleEntries(db, p.UserID)
	q = fs.apply(q)
	q = applyPredicates(q, buildPredicates(p.Filters))

	if p.Cursor != nil {
		sortTime, id, err := decodeTimeCursor(*p.Cursor)
		if err != nil {
			return ListResult{}, err
		}
		if order == SortOldest {
			q = q.Where("("+sortTimeExpr+" > ? OR ("+sortTimeExpr+" = ? AND e.id > ?))", sortTime, sortTime, id)
		} else {
			q = q.Where("("+sortTimeExpr+" < ? OR ("+sortTimeExpr+" = ? AND e.id < ?))", sortTime, sortTime, id)
		}
	}

	if order == SortOldest {
		q = q.Order(sortTimeExpr + " ASC, e.id ASC")
	} else {
		q = q.Order(sortTimeExpr + " DESC, e.id DESC")
	}

	var items []EntryItem
	// One extra row detects hasMore without a second count query.
	if err := q.Select(entrySelectColumns).Limit(limit + 1).Scan(&items).Error; err != nil {
		return ListResult{}, err
	}

	result := ListResult{Items: items}
	if len(items) > limit {
		result.Items = items[:limit]
		last := result.Items[limit-1]
		cursor := encodeTimeCursor(last.sortTime(), last.ID)
		result.NextCursor = &cursor
	}
	if result.Items == nil {
		result.Items = []EntryItem{}
	}
	return result, nil
}

// SearchEntries pages through full-text matches in relevance order. There is
// no "oldest" mode: ordering is always rank-descending with id-descending
// tie-break, and the cursor carries the rank instead of a timestamp.
func (s *Service) SearchEntries(ctx context.Context, p SearchParams) (ListResult, error) {
	if strings.TrimSpace(p.Query) == "" {
		return ListResult{}, newValidationError("Search query must not be empty")
	}
	vector, err := searchVectorExpr(p.SearchIn)
	if err != nil {
		return ListResult{}, err
	}

	db := s.db.WithContext(ctx)

	fs, err := s.resolveFeedSet(db, p.UserID, p.Scope)
	if err != nil {
		return ListResult{}, err
	}
	if fs.Empty() {
		return ListResult{Items: []EntryItem{}}, nil
	}

	limit := clampLimit(p.Limit)

	q := s.visibleEntries(db, p.UserID)
	q = fs.apply(q)
	q = applyPredicates(q, buildPredicates(p.Filters))
	q = q.Where(vector+" @@ plainto_tsquery('english', ?)", p.Query)

	rankExpr := "ts_rank(" + vector + ", plainto_tsquery('english', ?))"
	if p.Cursor != nil {
		rank, id, err := decodeRankCursor(*p.Cursor)
		if err != nil {
			return ListResult{}, err
		}
		q = q.Where("("+rankExpr+" < ? OR ("+rankExpr+" = ? AND e.id < ?))",
			p.Query, rank, p.Query, rank, id)
	}

	var items []EntryItem
	err = q.Select(entrySelectColumns+", "+rankExpr+" AS rank", p.Query).
		Order("rank DESC, e.id DESC").
		Limit(limit + 1).
		Scan(&items).Error
	if err != nil {
		return ListResult{}, err
	}

	result := ListResult{Items: items}
	if len(items) > limit {
		result.Items = items[:limit]
		last := result.Items[limit-1]
		cursor := encodeRankCursor(last.Rank, last.ID)
		result.NextCursor = &cursor
	}
	if result.Items == nil {
		result.Items = []EntryItem{}
	}
	return result, nil
}

func searchVectorExpr(field SearchField) (string, error) {
	switch field {
	case SearchInTitle:
		return "to_tsvector('english', COALESCE(e.title, ''))", nil
	case SearchInContent:
		return "to_tsvector('english', COALESCE(e.content, ''))", nil
	case SearchInBoth, "":
		return "to_tsvector('english', COALESCE(e.title, '') || ' ' || COALESCE(e.content, ''))", nil
	default:
		return "", newValidationError("Invalid searchIn value")
	}
}

// CountEntries reports total and unread matches under exactly the same
// resolution and predicates as ListEntries, so list and count can never
// disagree about a scope.
func (s *Service) CountEntries(ctx context.Context, p CountParams) (CountResult, error) {
	db := s.db.WithContext(ctx)

	fs, err := s.resolveFeedSet(db, p.UserID, p.Scope)
	if err != nil {
		return CountResult{}, err
	}
	if fs.Empty() {
		return CountResult{}, nil
	}

	q := s.visibleEntries(db, p.UserID)
	q = fs.apply(q)
	q = applyPredicates(q, buildPredicates(p.Filters))

	var result CountResult
	err = q.Select("COUNT(*) AS total, COUNT(*) FILTER (WHERE " + unreadExpr + ") AS unread").
		Scan(&result).Error
	return result, err
}

// GetEntry fetches one visible entry. Unlike the list-level scope filters, an
// absent or foreign id here is a hard NotFoundError.
func (s *Service) GetEntry(ctx context.Context, userID, entryID string) (EntryItem, error) {
	db := s.db.WithContext(ctx)

	var item EntryItem
	err := s.visibleEntries(db, userID).
		Where("e.id = ?", entryID).
		Select(entrySelectColumns).
		Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return EntryItem{}, newNotFoundError("entry", entryID)
	}
	if err != nil {
		return EntryItem{}, err
	}
	return item, nil
}

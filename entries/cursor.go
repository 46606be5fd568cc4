package entries

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// Cursors are opaque to callers: base64-encoded JSON of the last returned
// row's sort key and id. The id breaks ties so that keyset pagination walks
// a total order even when many entries share one timestamp.

const invalidCursorMessage = "Invalid cursor format"

type timeCursor struct {
	SortKey string `json:"sortKey"`
	ID      string `json:"id"`
}

type rankCursor struct {
	SortKey float64 `json:"sortKey"`
	ID      string  `json:"id"`
}

func encodeTimeCursor(sortTime time.Time, id string) string {
	raw, _ := json.Marshal(timeCursor{
		SortKey: sortTime.UTC().Format(time.RFC3339Nano),
		ID:      id,
	})
	return base64.StdEncoding.EncodeToString(raw)
}

func decodeTimeCursor(cursor string) (time.Time, string, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", newValidationError(invalidCursorMessage)
	}
	var c timeCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return time.Time{}, "", newValidationError(invalidCursorMessage)
	}
	if c.SortKey == "" || c.ID == "" {
		return time.Time{}, "", newValidationError(invalidCursorMessage)
	}
	sortTime, err := time.Parse(time.RFC3339Nano, c.SortKey)
	if err != nil {
		return time.Time{}, "", newValidationError(invalidCursorMessage)
	}
	return sortTime, c.ID, nil
}

func encodeRankCursor(rank float64, id string) string {
	raw, _ := json.Marshal(rankCursor{SortKey: rank, ID: id})
	return base64.StdEncoding.EncodeToString(raw)
}

func decodeRankCursor(cursor string) (float64, string, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0, "", newValidationError(invalidCursorMessage)
	}
	var c struct {
		SortKey *float64 `json:"sortKey"`
		ID      string   `json:"id"`
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return 0, "", newValidationError(invalidCursorMessage)
	}
	if c.SortKey == nil || c.ID == "" {
		return 0, "", newValidationError(invalidCursorMessage)
	}
	return *c.SortKey, c.ID, nil
}

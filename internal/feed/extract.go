// Package feed pulls pagination cursors and fan-out item ids out of
// feed-shaped API payloads. Payload shapes vary across endpoints, so
// everything here is tolerant: a malformed payload yields an absent result,
// never an error.
package feed

import (
	"encoding/json"
	"strconv"
)

// itemListKeys are the field names a feed payload may carry its items under,
// in lookup order.
var itemListKeys = []string{"items", "top_items"}

// Parse decodes a JSON body into the loosely-typed map the extractors work
// on. Returns false for non-object bodies.
func Parse(body []byte) (map[string]any, bool) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, false
	}
	return payload, true
}

func items(payload map[string]any) []any {
	for _, key := range itemListKeys {
		if list, ok := payload[key].([]any); ok {
			return list
		}
	}
	return nil
}

// itemTimestamp resolves the per-item cursor candidate: updatedAt preferred,
// createdAt as fallback, tolerating snake_case spellings.
func itemTimestamp(item map[string]any) (string, bool) {
	for _, key := range []string{"updatedAt", "updated_at", "createdAt", "created_at"} {
		if ts, ok := item[key].(string); ok && ts != "" {
			return ts, true
		}
	}
	return "", false
}

// ExtractCursor derives the pagination cursor from a feed page: the lexically
// greatest timestamp across all items. Comparison is plain string ordering,
// not date parsing, which holds only while the API emits fixed-width
// ISO-8601 UTC timestamps. Returns false when the page has no items or no
// timestamped items.
func ExtractCursor(payload map[string]any) (string, bool) {
	cursor := ""
	for _, raw := range items(payload) {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		ts, ok := itemTimestamp(item)
		if !ok {
			continue
		}
		if ts > cursor {
			cursor = ts
		}
	}
	return cursor, cursor != ""
}

// itemID coerces an item's identifier to a positive integer. JSON numbers
// arrive as float64; some endpoints send ids as strings.
func itemID(item map[string]any) (int64, bool) {
	for _, key := range []string{"id", "item_id"} {
		switch v := item[key].(type) {
		case float64:
			return int64(v), true
		case string:
			if id, err := strconv.ParseInt(v, 10, 64); err == nil {
				return id, true
			}
		}
	}
	return 0, false
}

// ExtractItemIDs collects up to maxCount distinct positive item ids from a
// feed page, in encounter order. Items with a missing, non-positive or
// already-seen id are skipped. The cap bounds secondary fan-out regardless
// of how large a page the API returns.
func ExtractItemIDs(payload map[string]any, maxCount int) []int64 {
	if maxCount <= 0 {
		return nil
	}

	ids := make([]int64, 0, maxCount)
	seen := make(map[int64]struct{}, maxCount)
	for _, raw := range items(payload) {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id, ok := itemID(item)
		if !ok || id <= 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
		if len(ids) == maxCount {
			break
		}
	}
	return ids
}

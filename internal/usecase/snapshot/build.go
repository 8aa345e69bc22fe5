// Package snapshot assembles the output document of a run.
package snapshot

import (
	"sort"
	"time"

	"mext-feed/internal/domain/entity"
)

// DefaultMaxItems caps the number of items in a snapshot.
const DefaultMaxItems = 600

// Build sorts items by Date descending, keeps the first maxItems, and stamps
// the snapshot with now in UTC (second precision). maxItems <= 0 selects
// DefaultMaxItems. The input slice is not modified.
//
// Dates are compared as plain strings, not parsed times. Feeds publish dates
// in different formats, so "09 Mar 2024" sorts below "2024-03-01" even though
// it is later. The order is stable: equal dates keep input order.
func Build(items []entity.NewsItem, maxItems int, now time.Time) entity.Snapshot {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	sorted := make([]entity.NewsItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date > sorted[j].Date
	})

	if len(sorted) > maxItems {
		sorted = sorted[:maxItems]
	}

	return entity.Snapshot{
		GeneratedAt: now.UTC().Truncate(time.Second),
		Items:       sorted,
	}
}

package entity

import (
	"crypto/sha1" // #nosec G505 -- fingerprint only, not a security boundary
	"encoding/hex"
	"time"
)

// FingerprintLength is the number of hex characters kept from the URL digest.
const FingerprintLength = 12

// NewsItem is a feed entry that survived filtering.
// ID is a pure function of URL, so the same link yields the same ID across
// runs and across feeds.
type NewsItem struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	Date          string   `json:"date"`
	Source        string   `json:"source"`
	Category      string   `json:"category"`
	ImportantHint bool     `json:"important_hint"`
	Tags          []string `json:"tags"`
}

// Fingerprint derives the stable item identifier from a URL.
func Fingerprint(url string) string {
	sum := sha1.Sum([]byte(url)) // #nosec G401
	return hex.EncodeToString(sum[:])[:FingerprintLength]
}

// Snapshot is the single output document produced per run.
// GeneratedAt is always stored in UTC so it serializes as an ISO-8601 "Z" timestamp.
type Snapshot struct {
	GeneratedAt time.Time  `json:"generated_at"`
	Items       []NewsItem `json:"items"`
}

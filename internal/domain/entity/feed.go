// Package entity defines the core domain entities of the feed poller:
// feed descriptors loaded from the registry, raw entries extracted by the
// parser, and the news items and snapshot written for downstream display.
package entity

import "errors"

// DefaultCategory is assigned to descriptors that do not declare a category.
const DefaultCategory = "MISC"

// FeedDescriptor identifies one polled feed.
// Descriptors are loaded once per run and never mutated afterwards.
type FeedDescriptor struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	URL      string `yaml:"url" json:"url"`
	Category string `yaml:"category" json:"category"`
}

// WithDefaults returns a copy with the default category applied.
func (d FeedDescriptor) WithDefaults() FeedDescriptor {
	if d.Category == "" {
		d.Category = DefaultCategory
	}
	return d
}

// Validate checks that the descriptor can be fetched.
// An invalid descriptor is not fatal for a run; the caller treats it like a
// fetch failure for that feed.
func (d FeedDescriptor) Validate() error {
	err := ValidateFeedURL(d.URL)
	var ve *ValidationError
	if errors.As(err, &ve) {
		ve.FeedID = d.ID
	}
	return err
}

// RawFeedItem is a single entry as extracted by the parser, before any
// filtering. Title and link may be empty.
type RawFeedItem struct {
	Title             string
	Link              string
	PublishedDateText string
}

// IsComplete reports whether the entry has both a title and a link.
// Incomplete entries are dropped before scoring.
func (r RawFeedItem) IsComplete() bool {
	return r.Title != "" && r.Link != ""
}

// ParsedFeed is the dialect-agnostic content of one feed document.
type ParsedFeed struct {
	// Dialect is one of "rdf", "rss" or "atom".
	Dialect string
	// Title is the feed's own title, if any.
	Title string
	// Items keeps document order. Title or Link may be empty.
	Items []RawFeedItem
}

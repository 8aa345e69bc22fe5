// Package fetch runs one poll of the feed registry: fetch, parse, filter, tag
// and collect the items that go into the snapshot.
package fetch

import "errors"

// Sentinel errors for fetch use case operations.
var (
	// ErrFeedFetchFailed indicates that fetching a feed from the source URL failed.
	// This can occur due to network issues, invalid URLs, timeouts or HTTP error statuses.
	// Recovered per feed.
	ErrFeedFetchFailed = errors.New("failed to fetch feed from source")

	// ErrInvalidFeedFormat indicates that the feed content could not be parsed.
	// Malformed XML and documents with neither a channel nor entries both map here.
	// Recovered per feed.
	ErrInvalidFeedFormat = errors.New("invalid feed format")

	// ErrSnapshotWrite indicates that the output snapshot could not be written.
	// Fatal for a run.
	ErrSnapshotWrite = errors.New("failed to write snapshot")

	// ErrInvalidURL indicates that a feed URL is malformed or uses a scheme other than http/https.
	ErrInvalidURL = errors.New("invalid feed URL")

	// ErrTimeout indicates that a feed request exceeded its timeout.
	ErrTimeout = errors.New("feed request timed out")

	// ErrTooManyRedirects indicates that a feed request followed more redirects than allowed.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge indicates that a feed response exceeded the configured size limit.
	ErrBodyTooLarge = errors.New("response body too large")
)

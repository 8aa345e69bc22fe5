// Package resilience holds fault-tolerance helpers for outbound calls.
//
// Only retry is provided: a feed that keeps failing is simply skipped for the
// run, so there is no breaker state shared across feeds.
//
//	err := retry.WithBackoff(ctx, retry.FeedFetchConfig(3), func() error {
//	    return fetchOnce()
//	})
package resilience

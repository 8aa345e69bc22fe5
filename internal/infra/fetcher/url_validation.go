package fetcher

import (
	"fmt"

	"mext-feed/internal/domain/entity"
	"mext-feed/internal/usecase/fetch"
)

// validateURL checks a feed URL (or redirect target) before a request is made.
// Only well-formed http/https URLs with a host are allowed.
//
// Feed URLs come from the operator's registry, so no DNS resolution or
// private-address check is done here.
func validateURL(urlStr string) error {
	if err := entity.ValidateFeedURL(urlStr); err != nil {
		return fmt.Errorf("%w: %v", fetch.ErrInvalidURL, err)
	}
	return nil
}

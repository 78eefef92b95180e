// Package httputil fetches remote hierarchy sources.
//
// [Client] performs GET requests with a timeout and retries transient
// failures (network errors, 5xx and 429 responses) with exponential
// backoff. Other statuses map to structured errors: 404 is FILE_NOT_FOUND,
// any other non-2xx is INVALID_INPUT.
//
//	c := httputil.NewClient()
//	data, err := c.Get(ctx, "https://example.org/budget-2025.json")
//
// Bodies larger than [MaxBodySize] are rejected.
package httputil

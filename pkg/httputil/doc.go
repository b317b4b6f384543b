// Package httputil provides HTTP utilities for outbound API clients.
//
// # Overview
//
// This package provides infrastructure shared by everything that talks
// to external services (GitHub identity lookups today):
//
//   - [Cache]: File-based JSON response caching
//   - [Retry]: Automatic retry with exponential backoff
//
// # Caching
//
// [Cache] stores JSON-marshalable responses in the filesystem
// (~/.cache/tackle/) with a configurable TTL. The CLI uses it to avoid
// re-fetching the signed-in identity on every invocation.
//
// Usage:
//
//	cache, err := httputil.NewCache("", 24*time.Hour)
//	var user Identity
//	if ok, _ := cache.Get("github:user:octocat", &user); !ok {
//	    user = fetchFromAPI()
//	    cache.Set("github:user:octocat", user)
//	}
//
// Cache keys should be namespaced by service to avoid collisions.
//
// # Retry
//
// [Retry] wraps outbound requests with automatic retry for transient
// failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// Wrap transient errors in [RetryableError] so Retry knows to try again:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return fetchUser()
//	})
//
// # Configuration
//
// Default settings are suitable for most use cases:
//
//   - Cache directory: ~/.cache/tackle/
//   - Default TTL: 24 hours
//   - Max retries: 3
//   - Base backoff: 1 second
//
// The cache can be cleared via `tackle cache clear` or by deleting the
// cache directory.
package httputil

// Package cache provides byte-level caching with pluggable backends.
//
// The [Cache] interface stores opaque byte slices under string keys with
// a per-entry TTL. Implementations:
//   - [FileCache]: hashed files under a directory, for the CLI
//   - [RedisCache]: shared cache for multi-instance deployments
//   - [NullCache]: disables caching without branching at call sites
//
// The [Keyer] interface builds the cache keys the dashboard and the
// relationship map use, so every caller derives keys the same way. Wrap
// a keyer with [NewScopedKeyer] to namespace keys per user.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is the interface for cache backends.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was found and fresh; a miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A TTL of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Cache TTLs per content type.
const (
	// TTLSummary bounds dashboard summary staleness for writes that
	// bypass explicit invalidation (imports, CLI seeding).
	TTLSummary = time.Minute

	// TTLRelmap covers rendered relationship map artifacts.
	TTLRelmap = 10 * time.Minute

	// TTLHTTP covers cached upstream HTTP responses.
	TTLHTTP = 24 * time.Hour
)

// SummaryKeyOpts are the options that change a dashboard summary's
// content. They are part of the cache key so different variants are
// cached separately.
type SummaryKeyOpts struct {
	ActivityLimit int `json:"activity_limit"`
	TopAccounts   int `json:"top_accounts"`
}

// RelmapKeyOpts are the options that change a rendered relationship map.
type RelmapKeyOpts struct {
	Format   string `json:"format"` // "svg", "png", "dot"
	MaxNodes int    `json:"max_nodes"`
	Detailed bool   `json:"detailed"`
}

// Keyer builds cache keys. A single implementation keeps key formats
// consistent between the API server and the CLI.
type Keyer interface {
	// HTTPKey generates a key for an upstream HTTP response.
	HTTPKey(namespace, key string) string

	// SummaryKey generates a key for a user's dashboard summary.
	SummaryKey(userID string, opts SummaryKeyOpts) string

	// RelmapKey generates a key for a rendered relationship map.
	RelmapKey(userID, accountID string, opts RelmapKeyOpts) string
}

// DefaultKeyer is the standard key builder.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key builder.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// HTTPKey generates a key for an upstream HTTP response.
func (k *DefaultKeyer) HTTPKey(namespace, key string) string {
	return fmt.Sprintf("http:%s:%s", namespace, key)
}

// SummaryKey generates a key for a user's dashboard summary.
// The options are hashed into the key so variants don't collide.
func (k *DefaultKeyer) SummaryKey(userID string, opts SummaryKeyOpts) string {
	return hashKey("summary:"+userID, opts)
}

// RelmapKey generates a key for a rendered relationship map.
func (k *DefaultKeyer) RelmapKey(userID, accountID string, opts RelmapKeyOpts) string {
	return hashKey(fmt.Sprintf("relmap:%s:%s", userID, accountID), opts)
}

var _ Keyer = (*DefaultKeyer)(nil)

package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// Each user's cached summaries and artifacts live in their own namespace
// so one user's invalidation can never evict another's entries.
//
// Example usage:
//
//	// Per-user keys for the dashboard
//	userKeyer := NewScopedKeyer(NewDefaultKeyer(), "user:github:42:")
//
//	// Shared keys for upstream responses
//	globalKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for an upstream HTTP response.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// SummaryKey generates a prefixed key for a dashboard summary.
func (k *ScopedKeyer) SummaryKey(userID string, opts SummaryKeyOpts) string {
	return k.prefix + k.inner.SummaryKey(userID, opts)
}

// RelmapKey generates a prefixed key for a rendered relationship map.
func (k *ScopedKeyer) RelmapKey(userID, accountID string, opts RelmapKeyOpts) string {
	return k.prefix + k.inner.RelmapKey(userID, accountID, opts)
}

var _ Keyer = (*ScopedKeyer)(nil)

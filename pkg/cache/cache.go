// Package cache provides pluggable caching for registry responses.
//
// Three backends are available: a file cache for normal CLI usage, a Redis
// cache for shared environments such as CI runners, and a null cache for
// disabling caching entirely. Keys are generated through a Keyer so that
// callers never build raw key strings.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys with optional expiry.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// Keyer generates cache keys for registry lookups.
type Keyer interface {
	// MetadataKey is the key for a package's metadata document.
	MetadataKey(endpoint, name string) string

	// VersionsKey is the key for a package's version list.
	VersionsKey(endpoint, name string) string

	// SearchKey is the key for a search result page.
	SearchKey(endpoint, query string, opts SearchKeyOpts) string
}

// SearchKeyOpts captures the search parameters that affect the result set.
type SearchKeyOpts struct {
	Limit  int
	Offset int
}

// DefaultKeyer generates keys scoped by registry endpoint so that multiple
// configured registries never share entries.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// MetadataKey generates a key for package metadata.
func (k *DefaultKeyer) MetadataKey(endpoint, name string) string {
	return hashKey("pkg", endpoint, name)
}

// VersionsKey generates a key for a package's version list.
func (k *DefaultKeyer) VersionsKey(endpoint, name string) string {
	return hashKey("versions", endpoint, name)
}

// SearchKey generates a key for a search result page.
func (k *DefaultKeyer) SearchKey(endpoint, query string, opts SearchKeyOpts) string {
	return hashKey("search", endpoint, query, opts)
}

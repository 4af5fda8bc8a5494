package cache

// ScopedKeyer wraps a Keyer with a prefix so that separate contexts (for
// example different config profiles pointed at the same Redis server) get
// isolated cache namespaces.
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

// MetadataKey generates a prefixed key for package metadata.
func (k *ScopedKeyer) MetadataKey(endpoint, name string) string {
	return k.prefix + k.inner.MetadataKey(endpoint, name)
}

// VersionsKey generates a prefixed key for a package's version list.
func (k *ScopedKeyer) VersionsKey(endpoint, name string) string {
	return k.prefix + k.inner.VersionsKey(endpoint, name)
}

// SearchKey generates a prefixed key for a search result page.
func (k *ScopedKeyer) SearchKey(endpoint, query string, opts SearchKeyOpts) string {
	return k.prefix + k.inner.SearchKey(endpoint, query, opts)
}

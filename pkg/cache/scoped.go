package cache

// ScopedKeyer wraps a Keyer with a prefix so separate datasets or API
// tenants get isolated cache namespaces.
//
// Example usage:
//
//	// Per-dataset keys when generating training data
//	dsKeyer := NewScopedKeyer(NewDefaultKeyer(), "dataset:train-v2:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to every key.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// CircuitKey generates a prefixed key for circuit caching.
func (k *ScopedKeyer) CircuitKey(opts CircuitKeyOpts) string {
	return k.prefix + k.inner.CircuitKey(opts)
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(circuitHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(circuitHash, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}

// Ensure ScopedKeyer implements Keyer.
var _ Keyer = (*ScopedKeyer)(nil)

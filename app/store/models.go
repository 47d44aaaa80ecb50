package store

// DiscoveredKey is a credential found in observed text and confirmed active
// against the validation probe. FoundAt is an epoch-millisecond timestamp.
type DiscoveredKey struct {
	Key       string
	FoundBy   string
	Location  string
	FoundAt   int64
	RateLimit string
}

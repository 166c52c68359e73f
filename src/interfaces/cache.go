package interfaces

import "context"

// Cache operation classes. Each class carries its own TTL: quotes must feel
// live, profiles barely move.
const (
	CacheClassQuote      = "quote"
	CacheClassHistorical = "historical"
	CacheClassProfile    = "profile"
)

// -----------------------------------------------------------------------------
// ICache is a time-boxed key/value store. An entry older than its class TTL
// is absent, whether or not it is still physically present.
// -----------------------------------------------------------------------------

type ICache interface {

	// Get returns the payload for key, or false when missing or expired.
	Get(ctx context.Context, key string) ([]byte, bool)

	// -----------------------------------------------------------------------------

	// Put stores the payload under key with the TTL of the given class.
	Put(ctx context.Context, key string, payload []byte, class string) error

	// -----------------------------------------------------------------------------

	// Clear drops every entry.
	Clear(ctx context.Context) error
}

package offlinecache

import (
	"net/http"
	"time"

	serializer "github.com/offline-cache/offline-cache/pkg/response-serializer"
)

// DefaultAPITTL is how long an api entry stays servable after storage.
const DefaultAPITTL = 5 * time.Minute

// stale reports whether a stored api entry has outlived the given TTL.
// An entry with a missing or unreadable freshness marker is treated as stale,
// since its age cannot be established. Staleness never applies to the static
// or dynamic partitions; callers only invoke this for api entries.
func stale(h http.Header, now time.Time, ttl time.Duration) bool {
	cachedAt, ok := serializer.CachedAt(h)
	if !ok {
		return true
	}
	return now.Sub(cachedAt) > ttl
}

package offlinecache

import (
	"net/http"
	"testing"
	"time"

	serializer "github.com/offline-cache/offline-cache/pkg/response-serializer"

	"github.com/stretchr/testify/assert"
)

func TestStale(t *testing.T) {
	// millisecond-aligned so the marker round-trips exactly
	now := time.Now().Truncate(time.Millisecond)
	ttl := 5 * time.Minute

	fresh := http.Header{}
	serializer.StampCachedAt(fresh, now.Add(-3*time.Minute))
	assert.False(t, stale(fresh, now, ttl))

	over := http.Header{}
	serializer.StampCachedAt(over, now.Add(-6*time.Minute))
	assert.True(t, stale(over, now, ttl))

	// exactly at the threshold is still servable
	edge := http.Header{}
	serializer.StampCachedAt(edge, now.Add(-ttl))
	assert.False(t, stale(edge, now, ttl))

	// no marker means the age cannot be established
	assert.True(t, stale(http.Header{}, now, ttl))

	garbled := http.Header{}
	garbled.Set(serializer.FreshnessHeader, "not-a-timestamp")
	assert.True(t, stale(garbled, now, ttl))
}

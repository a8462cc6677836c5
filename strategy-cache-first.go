package offlinecache

import (
	"net/http"

	serializer "github.com/offline-cache/offline-cache/pkg/response-serializer"
)

// cacheFirst serves the request from its partition if present, with no
// freshness check: static assets are immutable within a generation. On a miss
// it fetches, stores a copy of 200 responses, and returns the network
// response. On fetch failure HTML navigations degrade to the offline fallback;
// everything else propagates the failure.
func (w *Worker) cacheFirst(rw http.ResponseWriter, r *http.Request, logical string) {
	partition := w.partition(logical)
	key := cacheKey(r)
	var cs CacheStatus

	stored, ok, err := w.store.Get(partition, key)
	if err != nil {
		w.log.Error().Err(err).Str("key", key).Msg("Could not read from partition")
	}
	if ok {
		cs.Hit()
		w.sendStored(rw, r, stored, cs)
		return
	}

	cs.Forward(CacheStatusFwdMiss)
	res, err := w.fetch(r)
	if err != nil {
		w.log.Warn().Err(err).Str("key", key).Msg("Fetch failed on cache miss")
		if wantsHTML(r.Header.Get("Accept")) {
			w.sendOfflineFallback(rw, r, cs)
			return
		}
		w.sendFailure(rw, r, nil, cs)
		return
	}

	if res.StatusCode == http.StatusOK {
		// store a copy; the serializer puts the body back afterwards
		if bts, err := serializer.ResponseToBytes(res); err != nil {
			w.log.Error().Err(err).Str("key", key).Msg("Could not serialize response")
		} else if err := w.store.Put(partition, key, bts); err != nil {
			// write failures are non-fatal, the response is still returned
			w.log.Error().Err(err).Str("key", key).Msg("Could not write to partition")
		} else {
			w.log.Trace().Str("key", key).Str("partition", partition).Msg("Stored response")
		}
	}

	w.send(rw, r, res, cs)
}

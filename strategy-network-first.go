package offlinecache

import (
	"net/http"
	"time"

	"github.com/offline-cache/offline-cache/cache"
	serializer "github.com/offline-cache/offline-cache/pkg/response-serializer"
)

// networkFirst prefers the network and falls back to the partition. Fresh 200
// responses are stored (api entries get a freshness marker first) and the
// partition is trimmed to its entry limit after every write. A failed fetch
// falls back to the stored entry; api entries are checked for staleness and
// purged rather than served when over TTL.
func (w *Worker) networkFirst(rw http.ResponseWriter, r *http.Request, logical string) {
	partition := w.partition(logical)
	key := cacheKey(r)
	var cs CacheStatus

	res, err := w.fetch(r)
	if err == nil && res.StatusCode == http.StatusOK {
		w.storeFresh(res, logical, partition, key)
		cs.Forward(CacheStatusFwdRequest)
		w.send(rw, r, res, cs)
		return
	}
	// a non-200 counts as a network failure too; keep the response around so
	// it can be forwarded if the partition has nothing better
	if err != nil {
		w.log.Warn().Err(err).Str("key", key).Msg("Fetch failed, falling back to partition")
	} else {
		w.log.Debug().Int("status", res.StatusCode).Str("key", key).Msg("Origin returned non-200, falling back to partition")
	}

	stored, ok, gerr := w.store.Get(partition, key)
	if gerr != nil {
		w.log.Error().Err(gerr).Str("key", key).Msg("Could not read from partition")
	}

	if ok && logical == cache.PartitionAPI {
		storedRes, serr := serializer.BytesToResponse(stored, r)
		if serr != nil {
			w.log.Error().Err(serr).Str("key", key).Msg("Could not create response from stored bytes")
			ok = false
		} else if stale(storedRes.Header, time.Now(), w.apiTTL) {
			// never serve a stale body; purge and fail like the network did
			storedRes.Body.Close()
			if derr := w.store.Delete(partition, key); derr != nil {
				w.log.Error().Err(derr).Str("key", key).Msg("Could not purge stale entry")
			}
			w.log.Debug().Err(ErrStaleCache).Str("key", key).Msg("Stale api entry purged")
			cs.Forward(CacheStatusFwdStale)
			w.sendFailure(rw, r, res, cs)
			return
		} else {
			storedRes.Body.Close()
		}
	}

	if !ok {
		cs.Forward(CacheStatusFwdMiss)
		if wantsHTML(r.Header.Get("Accept")) {
			if res != nil {
				res.Body.Close()
			}
			w.sendOfflineFallback(rw, r, cs)
			return
		}
		w.sendFailure(rw, r, res, cs)
		return
	}

	if res != nil {
		res.Body.Close()
	}
	cs.Hit()
	w.sendStored(rw, r, stored, cs)
}

// storeFresh writes a fresh network response into the partition and trims the
// partition to its entry limit. Only 200 responses to GET requests ever get
// here. Write failures are logged and dropped; the live response is untouched
// apart from the freshness marker being stripped again.
func (w *Worker) storeFresh(res *http.Response, logical, partition, key string) {
	if logical == cache.PartitionAPI {
		serializer.StampCachedAt(res.Header, time.Now())
	}
	bts, err := serializer.ResponseToBytes(res)
	res.Header.Del(serializer.FreshnessHeader)
	if err != nil {
		w.log.Error().Err(err).Str("key", key).Msg("Could not serialize response")
		return
	}
	if err := w.store.Put(partition, key, bts); err != nil {
		w.log.Error().Err(err).Str("key", key).Msg("Could not write to partition")
		return
	}
	if err := w.trim(partition, w.maxEntries(logical)); err != nil {
		w.log.Error().Err(err).Str("partition", partition).Msg("Could not trim partition")
	}
}

// sendFailure propagates a network failure to the caller: the origin's own
// response if there was one, otherwise 502.
func (w *Worker) sendFailure(rw http.ResponseWriter, r *http.Request, res *http.Response, cs CacheStatus) {
	if res != nil {
		w.send(rw, r, res, cs)
		return
	}
	w.log.Warn().Err(ErrNetworkFailure).Str("url", r.URL.String()).Msg("No response to fall back on")
	rw.Header().Add("Cache-Status", cs.String())
	http.Error(rw, "Could not connect to origin", http.StatusBadGateway)
	w.logRequest(r, cs)
}

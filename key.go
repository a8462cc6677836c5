package offlinecache

import "net/http"

const methodSeparator = ":"

// cacheKey returns the canonical identity of a request: method plus absolute
// URL. Only GET requests are ever stored, so in practice the method part is
// constant, but keeping it in the key makes that invariant visible in storage.
func cacheKey(r *http.Request) string {
	return r.Method + methodSeparator + r.URL.String()
}

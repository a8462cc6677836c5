package offlinecache

import "errors"

// Failure taxonomy. Callers match with errors.Is.
var (
	// ErrNetworkFailure means the origin fetch failed or returned a non-200.
	ErrNetworkFailure = errors.New("network failure")
	// ErrStaleCache means a matched api entry exceeded its TTL.
	// The entry has been purged as a side effect; there is no fresher data,
	// so callers should not fall back further.
	ErrStaleCache = errors.New("stale cache entry")
	// ErrPrecacheFailure means a warm-list resource failed during install.
	// The whole install transition fails; the platform retries later.
	ErrPrecacheFailure = errors.New("precache failure")
	// ErrUnknownCommand means the control channel got a command it does not know.
	ErrUnknownCommand = errors.New("unknown command")
)

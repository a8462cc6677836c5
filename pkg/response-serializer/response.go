package serializer

import (
	"bufio"
	"bytes"
	"net/http"
	"strconv"
	"time"
)

// FreshnessHeader carries the storage time of an api entry as integer epoch
// milliseconds. It is only ever attached to api partition entries.
const FreshnessHeader = "Ocache-Cached-At"

// ResponseToBytes converts a response to a byte slice.
// It returns the HTTP/1.1 representation of the response.
// The response body is consumed and replaced with a replayable copy,
// so the caller can still send the response onwards.
func ResponseToBytes(res *http.Response) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := res.Write(buf); err != nil {
		return nil, err
	}
	bts := buf.Bytes()
	// set response body back
	clonedRes, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(bts)), res.Request)
	if err != nil {
		return nil, err
	}
	res.Body = clonedRes.Body
	return bts, nil
}

// BytesToResponse converts a stored byte slice back to a http.Response.
func BytesToResponse(b []byte, req *http.Request) (*http.Response, error) {
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(b)), req)
}

// StampCachedAt sets the freshness marker on the given headers.
func StampCachedAt(h http.Header, t time.Time) {
	h.Set(FreshnessHeader, strconv.FormatInt(t.UnixMilli(), 10))
}

// CachedAt reads the freshness marker from the given headers.
// The boolean is false if the marker is absent or malformed.
func CachedAt(h http.Header) (time.Time, bool) {
	v := h.Get(FreshnessHeader)
	if v == "" {
		return time.Time{}, false
	}
	millis, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(millis), true
}

package offlinecache

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrimDeletesOldestFirst(t *testing.T) {
	worker, store := newTestWorker(t, http.NotFoundHandler(), Config{})
	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Put("dynamic-gen1", fmt.Sprintf("GET:/page%d", i), []byte("x")))
	}

	require.NoError(t, worker.trim("dynamic-gen1", 3))

	keys, err := store.Keys("dynamic-gen1")
	require.NoError(t, err)
	assert.Equal(t, []string{"GET:/page3", "GET:/page4", "GET:/page5"}, keys)
}

func TestTrimUnboundedIsNoop(t *testing.T) {
	worker, store := newTestWorker(t, http.NotFoundHandler(), Config{})
	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Put("static-gen1", fmt.Sprintf("GET:/asset%d.js", i), []byte("x")))
	}

	require.NoError(t, worker.trim("static-gen1", 0))

	keys, err := store.Keys("static-gen1")
	require.NoError(t, err)
	assert.Len(t, keys, 5)
}

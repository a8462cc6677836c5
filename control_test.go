package offlinecache

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForceActivateNowMakesInterceptionLive(t *testing.T) {
	var handleCount int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleCount++
		w.Write([]byte("asset"))
	})
	worker, _ := newTestWorker(t, handler, Config{})

	require.NoError(t, worker.Dispatch(context.Background(), CommandForceActivate))
	assert.Equal(t, StateActivated, worker.State())

	worker.ServeHTTP(httptest.NewRecorder(), get("/app.js", ""))
	worker.ServeHTTP(httptest.NewRecorder(), get("/app.js", ""))
	assert.Equal(t, 1, handleCount)
}

func TestClearAllPartitionsIsIdempotent(t *testing.T) {
	worker, store := newTestWorker(t, http.NotFoundHandler(), Config{})

	require.NoError(t, store.Put("static-gen0", "GET:/app.js", []byte("a")))
	require.NoError(t, store.Put("static-gen1", "GET:/app.js", []byte("b")))
	require.NoError(t, store.Put("dynamic-gen1", "GET:/vehicles", []byte("c")))
	require.NoError(t, store.Put("api-gen1", "GET:/api/vehicles", []byte("d")))

	require.NoError(t, worker.Dispatch(context.Background(), CommandClearPartitions))
	partitions, err := store.Partitions()
	require.NoError(t, err)
	assert.Empty(t, partitions)

	// clearing an already-empty set is a no-op, not an error
	require.NoError(t, worker.Dispatch(context.Background(), CommandClearPartitions))
	partitions, err = store.Partitions()
	require.NoError(t, err)
	assert.Empty(t, partitions)
}

func TestUnknownCommandIsRejected(t *testing.T) {
	worker, _ := newTestWorker(t, http.NotFoundHandler(), Config{})
	err := worker.Dispatch(context.Background(), Command("self-destruct"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownCommand))
}

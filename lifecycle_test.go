package offlinecache

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shellHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/", "/index.html", "/offline.html":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html>" + r.URL.Path + "</html>"))
		default:
			http.NotFound(w, r)
		}
	})
}

func TestInstallWarmsStaticPartition(t *testing.T) {
	worker, store := newTestWorker(t, shellHandler(), Config{})
	assert.Equal(t, StateInstalling, worker.State())

	require.NoError(t, worker.Install(context.Background()))
	assert.Equal(t, StateInstalled, worker.State())

	keys, err := store.Keys("static-gen1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"GET:/", "GET:/index.html", "GET:/offline.html"}, keys)
}

func TestInstallIsAllOrNothing(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/offline.html" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("ok"))
	})
	worker, store := newTestWorker(t, handler, Config{})

	err := worker.Install(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPrecacheFailure))
	// nothing was written and the transition did not advance
	assert.Equal(t, StateInstalling, worker.State())
	keys, err := store.Keys("static-gen1")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestInstallWithSkipWaitingActivates(t *testing.T) {
	worker, _ := newTestWorker(t, shellHandler(), Config{SkipWaiting: true})
	require.NoError(t, worker.Install(context.Background()))
	assert.Equal(t, StateActivated, worker.State())
}

func TestActivatePurgesSupersededGenerations(t *testing.T) {
	worker, store := newTestWorker(t, shellHandler(), Config{Generation: "gen2"})

	// leftovers from a previous deployment, plus a current entry and a
	// foreign partition that must survive
	require.NoError(t, store.Put("static-gen1", "GET:/app.js", []byte("old")))
	require.NoError(t, store.Put("dynamic-gen1", "GET:/vehicles", []byte("old")))
	require.NoError(t, store.Put("api-gen1", "GET:/api/vehicles", []byte("old")))
	require.NoError(t, store.Put("api-gen2", "GET:/api/vehicles", []byte("new")))
	require.NoError(t, store.Put("someone-elses-data", "k", []byte("keep")))

	require.NoError(t, worker.Activate(context.Background()))
	assert.Equal(t, StateActivated, worker.State())

	partitions, err := store.Partitions()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"api-gen2", "someone-elses-data"}, partitions)

	// generation isolation: nothing from gen1 is readable
	_, ok, err := store.Get("api-gen1", "GET:/api/vehicles")
	require.NoError(t, err)
	assert.False(t, ok)
}

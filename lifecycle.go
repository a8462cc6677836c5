package offlinecache

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/offline-cache/offline-cache/cache"
	serializer "github.com/offline-cache/offline-cache/pkg/response-serializer"

	"golang.org/x/sync/errgroup"
)

// LifecycleState is a named state of the worker's one-way lifecycle:
// installing → installed → activating → activated.
type LifecycleState string

const (
	StateInstalling LifecycleState = "installing"
	StateInstalled  LifecycleState = "installed"
	StateActivating LifecycleState = "activating"
	StateActivated  LifecycleState = "activated"
)

// State returns the worker's current lifecycle state.
func (w *Worker) State() LifecycleState {
	w.stateMutex.Lock()
	defer w.stateMutex.Unlock()
	return w.state
}

func (w *Worker) setState(s LifecycleState) {
	w.stateMutex.Lock()
	defer w.stateMutex.Unlock()
	w.state = s
}

// Install runs the install transition: every warm-list path is fetched from
// the origin and written into the current generation's static partition.
// Warming is all-or-nothing: one failed resource fails the whole transition
// with ErrPrecacheFailure, nothing is written, and the state stays installing
// so the platform can retry the installation later.
//
// On success the state becomes installed, and if skip-waiting was requested
// the activate transition runs immediately.
func (w *Worker) Install(ctx context.Context) error {
	w.log.Info().Strs("paths", w.warmList).Msg("Installing: warming static partition")

	warmed := make([][]byte, len(w.warmList))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range w.warmList {
		i, path := i, path
		g.Go(func() error {
			res, err := w.fetchPath(gctx, path)
			if err != nil {
				return fmt.Errorf("warm %s: %w", path, err)
			}
			defer res.Body.Close()
			if res.StatusCode != http.StatusOK {
				// drain so the connection can be reused
				io.Copy(io.Discard, res.Body)
				return fmt.Errorf("warm %s: status %d", path, res.StatusCode)
			}
			bts, err := serializer.ResponseToBytes(res)
			if err != nil {
				return fmt.Errorf("warm %s: %w", path, err)
			}
			warmed[i] = bts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		w.log.Error().Err(err).Msg("Install failed")
		return fmt.Errorf("%w: %v", ErrPrecacheFailure, err)
	}

	partition := w.partition(cache.PartitionStatic)
	for i, path := range w.warmList {
		key := http.MethodGet + methodSeparator + path
		if err := w.store.Put(partition, key, warmed[i]); err != nil {
			w.log.Error().Err(err).Str("key", key).Msg("Install failed")
			return fmt.Errorf("%w: write %s: %v", ErrPrecacheFailure, path, err)
		}
	}

	w.setState(StateInstalled)
	w.log.Info().Msg("Installed")

	if w.skipWaiting.Load() {
		return w.Activate(ctx)
	}
	return nil
}

// Activate runs the activate transition: every partition belonging to a
// superseded generation is deleted, then the worker claims all open pages so
// that subsequent requests are intercepted. The purge is not synchronized
// against in-flight reads; a request racing the purge may see a miss on an
// entry that existed moments earlier, which callers must treat as any other
// miss.
func (w *Worker) Activate(ctx context.Context) error {
	w.setState(StateActivating)
	w.log.Info().Msg("Activating: purging superseded generations")

	partitions, err := w.store.Partitions()
	if err != nil {
		return err
	}
	current := make(map[string]bool, len(cache.LogicalPartitions))
	for _, logical := range cache.LogicalPartitions {
		current[w.partition(logical)] = true
	}
	for _, p := range partitions {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if cache.IsAnyPartition(p) && !current[p] {
			w.log.Debug().Str("partition", p).Msg("Dropping superseded partition")
			if err := w.store.Drop(p); err != nil {
				return err
			}
		}
	}

	// claim: requests from already-open pages are intercepted from now on
	w.controlling.Store(true)
	w.setState(StateActivated)
	w.log.Info().Msg("Activated")
	return nil
}

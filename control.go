package offlinecache

import (
	"context"
	"fmt"

	"github.com/offline-cache/offline-cache/cache"
)

// Command is a control channel message. Commands arrive asynchronously and
// are processed one at a time per Dispatch call; there is no acknowledgment
// payload, the sender only observes side effects on later requests.
type Command string

const (
	// CommandForceActivate advances the lifecycle to activating immediately
	// instead of waiting for open pages to close.
	CommandForceActivate Command = "force-activate-now"
	// CommandClearPartitions deletes every partition regardless of
	// generation. Diagnostic cache reset; idempotent.
	CommandClearPartitions Command = "clear-all-partitions"
)

// Dispatch executes a single control command.
func (w *Worker) Dispatch(ctx context.Context, cmd Command) error {
	w.log.Debug().Str("command", string(cmd)).Msg("Dispatching command")
	switch cmd {
	case CommandForceActivate:
		// remember the request so an install still in flight also proceeds
		w.skipWaiting.Store(true)
		return w.Activate(ctx)
	case CommandClearPartitions:
		return w.clearAllPartitions()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
}

// clearAllPartitions drops every partition with one of the worker's logical
// name prefixes, whatever its generation. Clearing an already-empty set of
// partitions is a no-op.
func (w *Worker) clearAllPartitions() error {
	partitions, err := w.store.Partitions()
	if err != nil {
		return err
	}
	for _, p := range partitions {
		if !cache.IsAnyPartition(p) {
			continue
		}
		w.log.Debug().Str("partition", p).Msg("Clearing partition")
		if err := w.store.Drop(p); err != nil {
			return err
		}
	}
	return nil
}

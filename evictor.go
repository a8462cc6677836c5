package offlinecache

// trim deletes the oldest-inserted entries from a partition until its entry
// count is at most max. Order is insertion order (FIFO), not last access.
// A max of zero or less means the partition is unbounded.
//
// The key list is re-read after every delete, so a trim interleaved with a
// concurrent write re-observes the partition on the next iteration. No global
// ordering across concurrent writers is promised.
func (w *Worker) trim(partition string, max int) error {
	if max <= 0 {
		return nil
	}
	for {
		keys, err := w.store.Keys(partition)
		if err != nil {
			return err
		}
		if len(keys) <= max {
			return nil
		}
		oldest := keys[0]
		w.log.Trace().Str("partition", partition).Str("key", oldest).Msg("Evicting oldest entry")
		if err := w.store.Delete(partition, oldest); err != nil {
			return err
		}
	}
}

package cache

// PartitionStore is an interface for partitioned cache storage.
// It stores and retrieves []byte values, which represent HTTP responses,
// grouped into named partitions. A partition is created lazily on first write.
// Ordered key enumeration is what makes FIFO eviction possible, so Keys must
// return keys oldest-inserted-first. A Put that replaces an existing key moves
// that key to the newest insertion slot.
//
// Implementations must be thread-safe!
type PartitionStore interface {
	// Get returns the stored value for the given key in the given partition,
	// and a boolean indicating whether the key was present.
	Get(partition, key string) ([]byte, bool, error)
	// Put stores the given value under the given key, replacing any prior entry.
	Put(partition, key string, value []byte) error
	// Delete removes the entry for the given key.
	// Deleting an absent key is a no-op, not an error.
	Delete(partition, key string) error
	// Keys returns all keys in the partition in insertion order, oldest first.
	Keys(partition string) ([]string, error)
	// Partitions returns the physical names of all partitions present in storage.
	Partitions() ([]string, error)
	// Drop removes a partition and all of its entries.
	Drop(partition string) error
}

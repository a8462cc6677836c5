package cache

import "sync"

// memPartition keeps entries in a map plus an insertion-order queue.
// The front of the queue (index 0) is the oldest key.
type memPartition struct {
	entries map[string][]byte
	order   []string
}

type MemStore struct {
	mutex      sync.RWMutex
	partitions map[string]*memPartition
}

// NewMemStore creates an in-memory store, mainly useful for testing.
func NewMemStore() *MemStore {
	return &MemStore{
		partitions: make(map[string]*memPartition),
	}
}

func (m *MemStore) Get(partition, key string) ([]byte, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	p, ok := m.partitions[partition]
	if !ok {
		return nil, false, nil
	}
	value, ok := p.entries[key]
	return value, ok, nil
}

func (m *MemStore) Put(partition, key string, value []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	p, ok := m.partitions[partition]
	if !ok {
		p = &memPartition{entries: make(map[string][]byte)}
		m.partitions[partition] = p
	}
	if _, exists := p.entries[key]; exists {
		p.removeFromOrder(key)
	}
	p.entries[key] = value
	p.order = append(p.order, key)
	return nil
}

func (m *MemStore) Delete(partition, key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	p, ok := m.partitions[partition]
	if !ok {
		return nil
	}
	if _, exists := p.entries[key]; !exists {
		return nil
	}
	delete(p.entries, key)
	p.removeFromOrder(key)
	return nil
}

func (m *MemStore) Keys(partition string) ([]string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	p, ok := m.partitions[partition]
	if !ok {
		return []string{}, nil
	}
	keys := make([]string, len(p.order))
	copy(keys, p.order)
	return keys, nil
}

func (m *MemStore) Partitions() ([]string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	names := make([]string, 0, len(m.partitions))
	for name := range m.partitions {
		names = append(names, name)
	}
	return names, nil
}

func (m *MemStore) Drop(partition string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.partitions, partition)
	return nil
}

func (p *memPartition) removeFromOrder(key string) {
	for i, k := range p.order {
		if k == key {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

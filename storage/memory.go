package storage

import (
	"bytes"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"
)

// Memory is an in-memory KV implementation used by tests and ephemeral
// deployments. The zero value is not usable; construct via NewMemory.
type Memory struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string][]byte)}
}

// KVGet implements the KV interface.
func (m *Memory) KVGet(key []byte, out interface{}) (bool, error) {
	m.mu.RLock()
	raw, ok := m.records[string(key)]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVPut implements the KV interface.
func (m *Memory) KVPut(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.records[string(key)] = encoded
	m.mu.Unlock()
	return nil
}

// KVDelete implements the KV interface.
func (m *Memory) KVDelete(key []byte) error {
	m.mu.Lock()
	delete(m.records, string(key))
	m.mu.Unlock()
	return nil
}

// KVIterate implements the KV interface.
func (m *Memory) KVIterate(prefix []byte, fn func(key, value []byte) error) error {
	m.mu.RLock()
	keys := make([]string, 0, len(m.records))
	for k := range m.records {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	m.mu.RUnlock()
	sort.Strings(keys)
	for _, k := range keys {
		m.mu.RLock()
		raw, ok := m.records[k]
		m.mu.RUnlock()
		if !ok {
			continue
		}
		if err := fn([]byte(k), raw); err != nil {
			return err
		}
	}
	return nil
}

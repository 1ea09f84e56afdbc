package settings

import (
	"fmt"
	"sync"
)

// MemoryStore keeps settings in memory only.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	callbacks
}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Register(name string, defaultValue any, onChange OnChange) error {
	raw, err := encode(name, defaultValue)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if _, ok := m.values[name]; !ok {
		m.values[name] = raw
	}
	m.mu.Unlock()

	m.add(name, onChange)
	return nil
}

func (m *MemoryStore) Get(name string, v any) error {
	m.mu.RLock()
	raw, ok := m.values[name]
	m.mu.RUnlock()

	if !ok || !m.registered(name) {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, name)
	}
	return decode(name, raw, v)
}

func (m *MemoryStore) Set(name string, v any) error {
	if !m.registered(name) {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, name)
	}
	raw, err := encode(name, v)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.values[name] = raw
	m.mu.Unlock()

	m.fire(name)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

package files

import (
	"context"
	"sync"

	"github.com/assetpipe/assetpipe/internal/storage"
)

// memAdapter is an in-memory storage.Adapter for tests.
type memAdapter struct {
	mu      sync.Mutex
	objects map[string][]byte
	// hasAll makes every key report as existing (collision exhaustion).
	hasAll bool
	// hasErr is returned by Has when set (storage fault injection).
	hasErr   error
	writeErr error
}

func newMemAdapter() *memAdapter {
	return &memAdapter{objects: make(map[string][]byte)}
}

func (m *memAdapter) put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
}

func (m *memAdapter) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

func (m *memAdapter) Has(_ context.Context, key string) (bool, error) {
	if m.hasErr != nil {
		return false, m.hasErr
	}
	if m.hasAll {
		return true, nil
	}
	return m.has(key), nil
}

func (m *memAdapter) Read(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (m *memAdapter) Write(_ context.Context, key string, data []byte) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.put(key, data)
	return nil
}

func (m *memAdapter) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memAdapter) Rename(_ context.Context, oldKey, newKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[oldKey]
	if !ok {
		return storage.ErrNotFound
	}
	delete(m.objects, oldKey)
	m.objects[newKey] = data
	return nil
}

func (m *memAdapter) RootPath() string { return "/mem" }

func (m *memAdapter) Name() string { return "memory" }

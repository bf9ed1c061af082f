package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// MemoryObjectStore keeps objects in-process. Used by tests.
type MemoryObjectStore struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string][]byte
	types   map[string]string
}

// NewMemoryObjectStore initializes an empty in-memory object store.
func NewMemoryObjectStore(bucket string) *MemoryObjectStore {
	return &MemoryObjectStore{
		bucket:  bucket,
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

// Put stores an object.
func (m *MemoryObjectStore) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read object: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

// PublicURL returns a stable fake URL for the object.
func (m *MemoryObjectStore) PublicURL(key string) string {
	return "https://objects.test/" + m.bucket + "/" + strings.TrimLeft(key, "/")
}

// Get returns a stored object; test helper.
func (m *MemoryObjectStore) Get(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	return data, m.types[key], ok
}

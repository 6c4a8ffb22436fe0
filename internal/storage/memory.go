package storage

import (
	"sync"
)

// MemoryStorage keeps items in process memory. A positive quota caps the total size of
// keys plus values in bytes.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]string
	size  int
	quota int
}

// NewMemoryStorage returns an empty scope. quota <= 0 disables the limit.
func NewMemoryStorage(quota int) *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string), quota: quota}
}

// GetItem implements Storage.
func (s *MemoryStorage) GetItem(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok, nil
}

// SetItem implements Storage.
func (s *MemoryStorage) SetItem(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := s.size
	if old, ok := s.items[key]; ok {
		size -= len(key) + len(old)
	}
	size += len(key) + len(value)
	if s.quota > 0 && size > s.quota {
		return ErrQuotaExceeded
	}

	s.items[key] = value
	s.size = size
	return nil
}

// RemoveItem implements Storage.
func (s *MemoryStorage) RemoveItem(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.items[key]; ok {
		s.size -= len(key) + len(old)
		delete(s.items, key)
	}
	return nil
}

// Len reports the number of stored keys.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// MemoryRegistry lazily creates one MemoryStorage per scope id. Nothing survives a restart.
type MemoryRegistry struct {
	mu     sync.Mutex
	scopes map[string]*MemoryStorage
	quota  int
}

// NewMemoryRegistry returns a registry whose scopes share the same quota.
func NewMemoryRegistry(quota int) *MemoryRegistry {
	return &MemoryRegistry{scopes: make(map[string]*MemoryStorage), quota: quota}
}

// Scope implements Registry.
func (r *MemoryRegistry) Scope(id string) Storage {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.scopes[id]
	if !ok {
		s = NewMemoryStorage(r.quota)
		r.scopes[id] = s
	}
	return s
}

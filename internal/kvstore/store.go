// Package kvstore defines the key-value persistence collaborator and its
// SQLite, file-system and in-memory backends.
package kvstore

import (
	"fmt"
	"regexp"
	"sync"
)

var keyRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Store is a string key-value store. Values are opaque to the store.
type Store interface {
	// Get returns the value stored under key. ok is false when the key has
	// never been set.
	Get(key string) (value string, ok bool, err error)
	// Set replaces the value stored under key.
	Set(key, value string) error
	// Close releases the resources held by the store.
	Close() error
}

// ValidKey reports whether key may be used with every backend.
func ValidKey(key string) error {
	if !keyRe.MatchString(key) {
		return fmt.Errorf("kvstore: invalid key %q", key)
	}
	return nil
}

// Memory is a map-backed Store.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// Get implements Store.
func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Set implements Store.
func (m *Memory) Set(key, value string) error {
	if err := ValidKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

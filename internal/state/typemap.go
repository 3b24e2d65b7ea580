// Package state holds typed values shared between commands: the global
// type map, lazily initialized per-channel maps and values persisted to
// disk per channel.
package state

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

var (
	// ErrFrozen is returned when registering into a frozen map.
	ErrFrozen = errors.New("state map is frozen")
	// ErrDuplicate is returned when a type is registered twice.
	ErrDuplicate = errors.New("state type already registered")
)

// TypeMap stores at most one value per type.
type TypeMap struct {
	mu     sync.RWMutex
	values map[reflect.Type]any
	frozen bool
}

// NewTypeMap returns an empty, unfrozen map.
func NewTypeMap() *TypeMap {
	return &TypeMap{values: make(map[reflect.Type]any)}
}

// Set registers v under its static type T.
func Set[T any](m *TypeMap, v T) error {
	key := reflect.TypeFor[T]()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.frozen {
		return fmt.Errorf("register %s: %w", key, ErrFrozen)
	}
	if _, ok := m.values[key]; ok {
		return fmt.Errorf("register %s: %w", key, ErrDuplicate)
	}
	m.values[key] = v
	return nil
}

// Get returns the value registered for T.
func Get[T any](m *TypeMap) (T, bool) {
	m.mu.RLock()
	v, ok := m.values[reflect.TypeFor[T]()]
	m.mu.RUnlock()

	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// Freeze rejects further registrations.
func (m *TypeMap) Freeze() {
	m.mu.Lock()
	m.frozen = true
	m.mu.Unlock()
}

// Frozen reports whether Freeze was called.
func (m *TypeMap) Frozen() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frozen
}

// Len returns the number of registered types.
func (m *TypeMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

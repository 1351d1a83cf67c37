// Package registry provides a small thread-safe name → instance registry.
// The server uses it to hand MongoDB collections to the services that need them.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"tamil_society/internal/common"
)

// Registry maps names to instances of T. Safe for concurrent use.
//
// Example:
//
//	cols := NewRegistry[*mongo.Collection]()
//	_, _ = cols.Register("notifications", db.Collection("notifications"))
//	col, err := cols.MustGet("notifications")
type Registry[T any] struct {
	items map[string]T
	mu    sync.RWMutex
}

// NewRegistry returns an empty registry
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		items: make(map[string]T),
	}
}

// Register stores item under name, replacing any previous value.
// isNew reports whether the name was unused.
func (r *Registry[T]) Register(name string, item T) (isNew bool, err error) {
	if name == "" {
		return false, fmt.Errorf("name cannot be empty: %w", common.ErrRequiredField)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.items[name]
	r.items[name] = item
	return !exists, nil
}

// Get returns the item registered under name
func (r *Registry[T]) Get(name string) (item T, exists bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, exists = r.items[name]
	return item, exists
}

// MustGet is Get with a not-found error instead of a boolean
func (r *Registry[T]) MustGet(name string) (T, error) {
	item, ok := r.Get(name)
	if !ok {
		return item, fmt.Errorf("registry item %q: %w", name, common.ErrNotFound)
	}
	return item, nil
}

// Names returns the registered names, sorted
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

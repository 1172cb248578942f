// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopcore Contributors

package shop

import (
	"sort"
	"strings"
	"sync"
)

// Registry is the authoritative in-memory catalog of item definitions.
// It is safe for concurrent use by multiple goroutines; read operations
// return independent copies so callers may iterate while the registry
// keeps mutating.
type Registry struct {
	mu         sync.RWMutex
	items      map[string]ItemDefinition
	categories map[string]map[string]struct{}
	notifier   *Notifier
}

// NewRegistry creates an empty registry. The notifier may be nil, in which
// case registration events are not broadcast.
func NewRegistry(notifier *Notifier) *Registry {
	return &Registry{
		items:      make(map[string]ItemDefinition),
		categories: make(map[string]map[string]struct{}),
		notifier:   notifier,
	}
}

// Register adds an item definition. It returns false without side effects
// when the definition is invalid or an item with the same normalized id is
// already registered; registration never overwrites.
func (r *Registry) Register(def ItemDefinition) bool {
	if !def.valid() {
		return false
	}
	def.ID = NormalizeID(def.ID)
	def.Category = strings.TrimSpace(def.Category)

	r.mu.Lock()
	if _, exists := r.items[def.ID]; exists {
		r.mu.Unlock()
		return false
	}
	r.items[def.ID] = def
	bucket, ok := r.categories[def.Category]
	if !ok {
		bucket = make(map[string]struct{})
		r.categories[def.Category] = bucket
	}
	bucket[def.ID] = struct{}{}
	r.mu.Unlock()

	if r.notifier != nil {
		r.notifier.emitItemRegistered(def)
	}
	return true
}

// Unregister removes an item by normalized id and reports whether an entry
// existed. Empty category buckets are dropped from the index.
func (r *Registry) Unregister(id string) bool {
	id = NormalizeID(id)

	r.mu.Lock()
	defer r.mu.Unlock()

	def, exists := r.items[id]
	if !exists {
		return false
	}
	delete(r.items, id)
	if bucket, ok := r.categories[def.Category]; ok {
		delete(bucket, id)
		if len(bucket) == 0 {
			delete(r.categories, def.Category)
		}
	}
	return true
}

// Get returns the definition for the given id.
func (r *Registry) Get(id string) (ItemDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.items[NormalizeID(id)]
	return def, ok
}

// Items returns a snapshot of all registered definitions, ordered by id.
func (r *Registry) Items() []ItemDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ItemDefinition, 0, len(r.items))
	for _, def := range r.items {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ItemsByCategory returns a snapshot of the definitions in one category,
// ordered by id.
func (r *Registry) ItemsByCategory(category string) []ItemDefinition {
	category = strings.TrimSpace(category)

	r.mu.RLock()
	defer r.mu.RUnlock()

	bucket := r.categories[category]
	out := make([]ItemDefinition, 0, len(bucket))
	for id := range bucket {
		out = append(out, r.items[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

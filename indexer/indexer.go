// Package indexer maps caller-domain categorical values to dense ids.
//
// A trained model carries immutable Map indexers for entities, items and
// categorical feature columns. Query calls wrap them in an Overlay so that
// values unseen at training time (new entities from new observations, new
// categories in query rows) receive fresh ids for the duration of one call
// without mutating the trained model.
package indexer

import (
	"fmt"
	"sync"
)

// Indexer is a read-only bidirectional mapping between keys and dense ids.
type Indexer interface {
	// Len returns the number of indexed keys. Ids are [0, Len()).
	Len() int
	// Lookup returns the id of key.
	Lookup(key string) (uint32, bool)
	// Key returns the key of id.
	Key(id uint32) (string, bool)
}

// Map is an immutable Indexer built from an ordered key list.
type Map struct {
	keys []string
	ids  map[string]uint32
}

// NewMap creates a Map where keys[i] has id i.
// Duplicate keys are rejected.
func NewMap(keys []string) (*Map, error) {
	m := &Map{
		keys: make([]string, len(keys)),
		ids:  make(map[string]uint32, len(keys)),
	}
	copy(m.keys, keys)
	for i, k := range keys {
		if _, dup := m.ids[k]; dup {
			return nil, fmt.Errorf("indexer: duplicate key %q", k)
		}
		m.ids[k] = uint32(i)
	}
	return m, nil
}

// MustMap is like NewMap but panics on duplicate keys.
// Intended for tests and static fixtures.
func MustMap(keys ...string) *Map {
	m, err := NewMap(keys)
	if err != nil {
		panic(err)
	}
	return m
}

// Len implements Indexer.
func (m *Map) Len() int { return len(m.keys) }

// Lookup implements Indexer.
func (m *Map) Lookup(key string) (uint32, bool) {
	id, ok := m.ids[key]
	return id, ok
}

// Key implements Indexer.
func (m *Map) Key(id uint32) (string, bool) {
	if int(id) >= len(m.keys) {
		return "", false
	}
	return m.keys[id], true
}

// Keys returns a copy of the key list in id order.
func (m *Map) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Overlay extends a base Indexer with call-scoped keys.
//
// New keys get ids starting at base.Len(). Index is safe for concurrent use,
// but the engine only assigns ids during single-threaded setup; workers only
// read.
type Overlay struct {
	base  Indexer
	mu    sync.RWMutex
	extra []string
	ids   map[string]uint32
}

// NewOverlay creates an Overlay over base.
func NewOverlay(base Indexer) *Overlay {
	return &Overlay{
		base: base,
		ids:  make(map[string]uint32),
	}
}

// Index returns the id of key, assigning a new one if neither the base nor
// the overlay knows it.
func (o *Overlay) Index(key string) uint32 {
	if id, ok := o.Lookup(key); ok {
		return id
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if id, ok := o.ids[key]; ok {
		return id
	}
	id := uint32(o.base.Len() + len(o.extra))
	o.extra = append(o.extra, key)
	o.ids[key] = id
	return id
}

// Len implements Indexer. It includes overlay keys.
func (o *Overlay) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.base.Len() + len(o.extra)
}

// Added returns the number of keys assigned by the overlay.
func (o *Overlay) Added() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.extra)
}

// Lookup implements Indexer.
func (o *Overlay) Lookup(key string) (uint32, bool) {
	if id, ok := o.base.Lookup(key); ok {
		return id, true
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	id, ok := o.ids[key]
	return id, ok
}

// Key implements Indexer.
func (o *Overlay) Key(id uint32) (string, bool) {
	n := o.base.Len()
	if int(id) < n {
		return o.base.Key(id)
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	i := int(id) - n
	if i >= len(o.extra) {
		return "", false
	}
	return o.extra[i], true
}

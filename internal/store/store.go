// Package store provides RecordStore, the insertion-ordered keyed repository
// that backs every entity kind in the graph.
//
// RecordStore performs no locking. Callers serialise mutations; see the core
// Service for the process-wide boundary.
package store

import (
	"iter"

	"housingcore/pkg/domain"
)

// RecordStore is a generic keyed repository preserving insertion order.
type RecordStore[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

// New returns an empty store.
func New[K comparable, V any]() *RecordStore[K, V] {
	return &RecordStore[K, V]{values: make(map[K]V)}
}

// Put inserts value under key. It fails with a domain.DuplicateKeyError when
// the key is already present; the existing value is left untouched.
func (s *RecordStore[K, V]) Put(key K, value V) error {
	if _, exists := s.values[key]; exists {
		return domain.DuplicateKeyError{Key: key}
	}
	s.values[key] = value
	s.keys = append(s.keys, key)
	return nil
}

// Get returns the value stored under key and whether it was found.
func (s *RecordStore[K, V]) Get(key K) (V, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Has reports whether key is present.
func (s *RecordStore[K, V]) Has(key K) bool {
	_, ok := s.values[key]
	return ok
}

// Delete removes key and reports whether it existed. The relative order of the
// remaining entries is unchanged.
func (s *RecordStore[K, V]) Delete(key K) bool {
	if _, ok := s.values[key]; !ok {
		return false
	}
	delete(s.values, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of stored entries.
func (s *RecordStore[K, V]) Len() int { return len(s.keys) }

// Keys returns a copy of the keys in insertion order.
func (s *RecordStore[K, V]) Keys() []K {
	out := make([]K, len(s.keys))
	copy(out, s.keys)
	return out
}

// All yields values in insertion order. The sequence is lazy and may be
// ranged over any number of times; each pass observes the store as it is when
// the pass starts.
func (s *RecordStore[K, V]) All() iter.Seq[V] {
	return func(yield func(V) bool) {
		keys := s.Keys()
		for _, k := range keys {
			v, ok := s.values[k]
			if !ok {
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}

// Entries yields key/value pairs in insertion order.
func (s *RecordStore[K, V]) Entries() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		keys := s.Keys()
		for _, k := range keys {
			v, ok := s.values[k]
			if !ok {
				continue
			}
			if !yield(k, v) {
				return
			}
		}
	}
}

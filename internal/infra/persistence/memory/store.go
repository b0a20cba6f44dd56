// Package memory provides a process-local records.Backend. Tables are kept in
// their encoded form so a Save followed by Load behaves like a real backend.
package memory

import (
	"bytes"
	"context"
	"sync"

	"housingcore/internal/records"
)

var _ records.Backend = (*Store)(nil)

// Store holds the last saved snapshot.
type Store struct {
	mu     sync.RWMutex
	tables map[records.Kind][]byte
	saves  int
}

// NewStore returns an empty store. A non-empty seed is encoded as the
// initial snapshot.
func NewStore(seed ...records.Dataset) *Store {
	s := &Store{tables: make(map[records.Kind][]byte)}
	if len(seed) > 0 {
		if tables, err := records.EncodeDataset(seed[0]); err == nil {
			s.tables = tables
		}
	}
	return s
}

// Load decodes the last snapshot.
func (s *Store) Load(ctx context.Context) (records.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return records.Dataset{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return records.DecodeDataset(s.tables)
}

// Save replaces the snapshot.
func (s *Store) Save(ctx context.Context, d records.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tables, err := records.EncodeDataset(d)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.tables = tables
	s.saves++
	s.mu.Unlock()
	return nil
}

// Table returns a copy of one encoded table, or nil when it was never saved.
func (s *Store) Table(kind records.Kind) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return bytes.Clone(s.tables[kind])
}

// Saves reports how many times Save succeeded.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

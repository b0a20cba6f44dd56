// Package memory keeps blob objects in process memory. It backs the test
// suites and throwaway CLI sessions.
package memory

import (
	"bytes"
	"context"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"housingcore/internal/blob/core"
)

type object struct {
	info core.Info
	body []byte
}

// Store is a core.Store over a guarded map. Bodies are copied on the way in
// and out so callers never share buffers with the store.
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
	now     func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{objects: map[string]object{}, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Put replaces the object at key.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	k, err := core.CleanKey(key)
	if err != nil {
		return core.Info{}, err
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return core.Info{}, err
	}
	obj := object{body: body, info: core.Info{
		Key:          k,
		Size:         int64(len(body)),
		ContentType:  opts.ContentType,
		ETag:         core.Digest(body),
		Metadata:     maps.Clone(opts.Metadata),
		LastModified: s.now(),
	}}
	s.mu.Lock()
	s.objects[k] = obj
	s.mu.Unlock()
	return obj.info.Clone(), nil
}

func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	obj, err := s.lookup(key)
	if err != nil {
		return core.Info{}, nil, err
	}
	return obj.info.Clone(), io.NopCloser(bytes.NewReader(bytes.Clone(obj.body))), nil
}

func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	obj, err := s.lookup(key)
	if err != nil {
		return core.Info{}, err
	}
	return obj.info.Clone(), nil
}

func (s *Store) lookup(key string) (object, error) {
	k, err := core.CleanKey(key)
	if err != nil {
		return object{}, err
	}
	s.mu.RLock()
	obj, ok := s.objects[k]
	s.mu.RUnlock()
	if !ok {
		return object{}, core.NotFound(k)
	}
	return obj, nil
}

// Delete reports whether an object was removed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	k, err := core.CleanKey(key)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[k]; !ok {
		return false, nil
	}
	delete(s.objects, k)
	return true, nil
}

// List returns the objects whose key starts with prefix, sorted by key.
func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Info
	for _, k := range slices.Sorted(maps.Keys(s.objects)) {
		if strings.HasPrefix(k, prefix) {
			out = append(out, s.objects[k].info.Clone())
		}
	}
	return out, nil
}

// Package core holds the object store contract the record tables persist
// through, together with the key rules and digests every driver shares.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"time"
)

// Driver names a Store implementation.
type Driver string

// Known drivers.
const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverMemory     Driver = "memory"
)

// ContentTypeCSV is recorded on every table object.
const ContentTypeCSV = "text/csv"

// PutOptions are the attributes stored alongside an object body.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describes one stored object. ETag is driver specific: the local
// drivers use Digest, S3 returns whatever the bucket reports.
type Info struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string
	Metadata     map[string]string
	LastModified time.Time
}

// Clone returns a copy of i that shares no metadata map with it.
func (i Info) Clone() Info {
	i.Metadata = maps.Clone(i.Metadata)
	return i
}

// Store is a flat namespace of whole objects. Put always replaces, matching
// the rewrite-everything persistence of the record tables.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

var (
	// ErrNotFound is wrapped by Get and Head when no object exists at a key.
	ErrNotFound = errors.New("blob: object not found")
	// ErrInvalidKey is wrapped by CleanKey rejections.
	ErrInvalidKey = errors.New("blob: invalid key")
)

// NotFound reports a missing key.
func NotFound(key string) error {
	return fmt.Errorf("%q: %w", key, ErrNotFound)
}

// ReadAll fetches the object at key and drains its body.
func ReadAll(ctx context.Context, s Store, key string) ([]byte, Info, error) {
	info, rc, err := s.Get(ctx, key)
	if err != nil {
		return nil, Info{}, err
	}
	data, err := io.ReadAll(rc)
	if closeErr := rc.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, Info{}, fmt.Errorf("read %q: %w", key, err)
	}
	return data, info, nil
}

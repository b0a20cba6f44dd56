package records

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"housingcore/internal/blob/core"
)

// Backend loads and rewrites the full dataset. Save replaces every table.
type Backend interface {
	Load(ctx context.Context) (Dataset, error)
	Save(ctx context.Context, d Dataset) error
}

// BlobBackend keeps one CSV object per table in a blob store, under an
// optional key prefix.
type BlobBackend struct {
	store  core.Store
	prefix string
}

// NewBlobBackend wraps a blob store. prefix may be empty.
func NewBlobBackend(store core.Store, prefix string) *BlobBackend {
	return &BlobBackend{store: store, prefix: strings.Trim(prefix, "/")}
}

func (b *BlobBackend) key(kind Kind) string {
	if b.prefix == "" {
		return kind.FileName()
	}
	return path.Join(b.prefix, kind.FileName())
}

// Load reads every table. A missing object yields an empty table.
func (b *BlobBackend) Load(ctx context.Context) (Dataset, error) {
	var d Dataset
	for _, kind := range Kinds {
		data, _, err := core.ReadAll(ctx, b.store, b.key(kind))
		if isNotExist(err) {
			continue
		}
		if err != nil {
			return Dataset{}, fmt.Errorf("load %s: %w", kind, err)
		}
		if err := DecodeTable(&d, kind, bytes.NewReader(data)); err != nil {
			return Dataset{}, err
		}
	}
	return d, nil
}

// Save rewrites every table object.
func (b *BlobBackend) Save(ctx context.Context, d Dataset) error {
	tables, err := EncodeDataset(d)
	if err != nil {
		return err
	}
	for _, kind := range Kinds {
		opts := core.PutOptions{ContentType: core.ContentTypeCSV, Metadata: map[string]string{"kind": string(kind)}}
		if _, err := b.store.Put(ctx, b.key(kind), bytes.NewReader(tables[kind]), opts); err != nil {
			return fmt.Errorf("put %s: %w", b.key(kind), err)
		}
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, core.ErrNotFound)
}

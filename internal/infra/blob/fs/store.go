// Package fs stores blob objects as plain files under a root directory, the
// default home of the record tables. Each object may carry a JSON sidecar
// holding its content type, metadata and digest.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"housingcore/internal/blob/core"
)

const (
	sidecarExt = ".meta"
	tempPrefix = ".put-"
)

// Store is a core.Store over a directory tree. Files copied in by hand
// without a sidecar are served with stat-derived attributes.
type Store struct {
	root string
}

// New opens root, creating it when missing. An empty root means ./data.
func New(root string) (*Store, error) {
	if root == "" {
		root = "./data"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &Store{root: root}, nil
}

// Root is the directory objects are written under.
func (s *Store) Root() string { return s.root }

func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

type sidecar struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	ETag        string            `json:"etag,omitempty"`
	Size        int64             `json:"size"`
	Written     time.Time         `json:"written"`
}

func (m sidecar) info(key string) core.Info {
	return core.Info{Key: key, Size: m.Size, ContentType: m.ContentType, ETag: m.ETag, Metadata: maps.Clone(m.Metadata), LastModified: m.Written}
}

// file resolves key to its data path. Sidecar names are reserved.
func (s *Store) file(key string) (string, string, error) {
	k, err := core.CleanKey(key)
	if err != nil {
		return "", "", err
	}
	if strings.HasSuffix(k, sidecarExt) {
		return "", "", fmt.Errorf("%w: %q uses the reserved %s suffix", core.ErrInvalidKey, key, sidecarExt)
	}
	return k, filepath.Join(s.root, filepath.FromSlash(k)), nil
}

// Put writes body and sidecar through temporary files renamed into place.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	k, p, err := s.file(key)
	if err != nil {
		return core.Info{}, err
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return core.Info{}, err
	}
	meta := sidecar{
		ContentType: opts.ContentType,
		Metadata:    maps.Clone(opts.Metadata),
		ETag:        core.Digest(body),
		Size:        int64(len(body)),
		Written:     time.Now().UTC(),
	}
	encoded, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return core.Info{}, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return core.Info{}, err
	}
	if err := replaceFile(p, body); err != nil {
		return core.Info{}, err
	}
	if err := replaceFile(p+sidecarExt, encoded); err != nil {
		return core.Info{}, err
	}
	return meta.info(k), nil
}

func replaceFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), tempPrefix+"*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer func() { _ = os.Remove(name) }()
	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(name, path)
}

func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	k, p, err := s.file(key)
	if err != nil {
		return core.Info{}, nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return core.Info{}, nil, notFound(k, err)
	}
	meta, err := stat(p)
	if err != nil {
		_ = f.Close()
		return core.Info{}, nil, notFound(k, err)
	}
	return meta.info(k), f, nil
}

func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	k, p, err := s.file(key)
	if err != nil {
		return core.Info{}, err
	}
	meta, err := stat(p)
	if err != nil {
		return core.Info{}, notFound(k, err)
	}
	return meta.info(k), nil
}

// Delete removes the object and its sidecar.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	_, p, err := s.file(key)
	if err != nil {
		return false, err
	}
	switch err := os.Remove(p); {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, err
	}
	if err := os.Remove(p + sidecarExt); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return true, err
	}
	return true, nil
}

// List walks the root and returns objects under prefix, skipping sidecars and
// in-flight temp files.
func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	var out []core.Info
	walk := func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if name := d.Name(); strings.HasSuffix(name, sidecarExt) || strings.HasPrefix(name, tempPrefix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		meta, err := stat(p)
		if err != nil {
			return err
		}
		out = append(out, meta.info(key))
		return nil
	}
	if err := filepath.WalkDir(s.root, walk); err != nil {
		return nil, err
	}
	return core.SortByKey(out), nil
}

// stat prefers the sidecar and falls back to the file's own attributes.
func stat(p string) (sidecar, error) {
	raw, err := os.ReadFile(p + sidecarExt)
	if err == nil {
		var meta sidecar
		if err := json.Unmarshal(raw, &meta); err != nil {
			return sidecar{}, fmt.Errorf("decode sidecar %s: %w", p+sidecarExt, err)
		}
		return meta, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return sidecar{}, err
	}
	st, err := os.Stat(p)
	if err != nil {
		return sidecar{}, err
	}
	return sidecar{Size: st.Size(), Written: st.ModTime().UTC()}, nil
}

func notFound(key string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return core.NotFound(key)
	}
	return err
}

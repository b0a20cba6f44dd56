package records

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"housingcore/internal/blob/core"
	"housingcore/internal/infra/blob/memory"
)

func TestBlobBackendRoundTripWithPrefix(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	b := NewBlobBackend(store, "/v1/")
	d := Dataset{
		Applicants: []ApplicantRecord{{ID: "A1", Name: "Alice", NRIC: "S1234567A", Age: "35", MaritalStatus: "Single"}},
		Projects:   []ProjectRecord{{ID: "P1", Name: "Acacia", Units: "2-Room=2", Visible: "true"}},
	}
	if err := b.Save(ctx, d); err != nil {
		t.Fatalf("save: %v", err)
	}
	infos, err := store.List(ctx, "v1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != len(Kinds) {
		t.Fatalf("expected one object per kind, got %d", len(infos))
	}
	info, err := store.Head(ctx, "v1/projects.csv")
	if err != nil || info.ContentType != core.ContentTypeCSV || info.Metadata["kind"] != "projects" {
		t.Fatalf("unexpected object info %+v %v", info, err)
	}
	got, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Len() != 2 || got.Projects[0].Units != "2-Room=2" {
		t.Fatalf("unexpected reload %+v", got)
	}
}

func TestBlobBackendMissingObjectsAreEmpty(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	if _, err := store.Put(ctx, "managers.csv", strings.NewReader("id,name\nM1,Farah\n"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	d, err := NewBlobBackend(store, "").Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if d.Len() != 1 || d.Managers[0].ID != "M1" {
		t.Fatalf("unexpected dataset %+v", d)
	}
}

type failingStore struct {
	*memory.Store
	getErr error
	putErr error
	body   io.ReadCloser
}

func (f failingStore) Get(ctx context.Context, key string) (core.Info, io.ReadCloser, error) {
	if f.getErr != nil {
		return core.Info{}, nil, f.getErr
	}
	if f.body != nil {
		return core.Info{Key: key}, f.body, nil
	}
	return f.Store.Get(ctx, key)
}

func (f failingStore) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	if f.putErr != nil {
		return core.Info{}, f.putErr
	}
	return f.Store.Put(ctx, key, r, opts)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }
func (errReader) Close() error             { return nil }

func TestBlobBackendPropagatesStoreErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	if _, err := NewBlobBackend(failingStore{Store: memory.New(), getErr: boom}, "").Load(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected get error, got %v", err)
	}
	if err := NewBlobBackend(failingStore{Store: memory.New(), putErr: boom}, "").Save(ctx, Dataset{}); !errors.Is(err, boom) {
		t.Fatalf("expected put error, got %v", err)
	}
	_, err := NewBlobBackend(failingStore{Store: memory.New(), body: errReader{}}, "").Load(ctx)
	if err == nil || !strings.Contains(err.Error(), "disk gone") {
		t.Fatalf("expected read error, got %v", err)
	}
	bad := failingStore{Store: memory.New(), body: io.NopCloser(bytes.NewReader([]byte("name\nX\n")))}
	if _, err := NewBlobBackend(bad, "").Load(ctx); err == nil {
		t.Fatalf("expected decode error")
	}
}

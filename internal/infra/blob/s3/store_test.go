package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"housingcore/internal/blob/core"
)

func TestFakeStoreCRUD(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore(t)
	if st.Driver() != core.DriverS3 {
		t.Fatalf("unexpected driver %s", st.Driver())
	}
	info, err := st.Put(ctx, "tables/projects.csv", bytes.NewReader([]byte("id\n")), core.PutOptions{ContentType: "text/csv", Metadata: map[string]string{"kind": "projects"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 3 || info.ContentType != "text/csv" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := st.Put(ctx, "tables/projects.csv", bytes.NewReader([]byte("id\nP1\n")), core.PutOptions{ContentType: "text/csv"}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	_, rc, err := st.Get(ctx, "tables/projects.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != "id\nP1\n" {
		t.Fatalf("expected overwritten body, got %q", b)
	}
	if _, err := st.Put(ctx, "tables/officers.csv", bytes.NewReader([]byte("id\n")), core.PutOptions{}); err != nil {
		t.Fatalf("put second: %v", err)
	}
	list, err := st.List(ctx, "tables/")
	if err != nil || len(list) != 2 || list[0].Key != "tables/officers.csv" {
		t.Fatalf("unexpected list %v %+v", err, list)
	}
	ok, err := st.Delete(ctx, "tables/officers.csv")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	ok, err = st.Delete(ctx, "tables/officers.csv")
	if err != nil || ok {
		t.Fatalf("second delete should be false: %v %v", ok, err)
	}
}

func TestFakeStoreNotFound(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore(t)
	if _, err := st.Head(ctx, "missing.csv"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from head, got %v", err)
	}
	if _, _, err := st.Get(ctx, "missing.csv"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from get, got %v", err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{Region: "eu-west-1"}); err == nil {
		t.Fatalf("expected bucket required error")
	}
}

func TestConfigOptions(t *testing.T) {
	cfg := Config{Bucket: "housing", Endpoint: "http://minio:9000", PathStyle: true, AccessKeyID: "AK", SecretAccessKey: "SK"}
	if got := len(cfg.loadOptions()); got != 2 {
		t.Fatalf("expected region and static credentials options, got %d", got)
	}
	if got := len(Config{}.loadOptions()); got != 1 {
		t.Fatalf("expected region option only, got %d", got)
	}
	var o s3.Options
	cfg.clientOptions(&o)
	if !o.UsePathStyle || aws.ToString(o.BaseEndpoint) != "http://minio:9000" {
		t.Fatalf("unexpected client options %+v", o)
	}
	st, err := New(context.Background(), cfg)
	if err != nil || st.Bucket() != "housing" {
		t.Fatalf("unexpected store %v %v", st, err)
	}
}

func TestInvalidKeysNeverReachTheBucket(t *testing.T) {
	st := newFakeStore(t)
	if _, err := st.Put(context.Background(), "../escape.csv", bytes.NewReader(nil), core.PutOptions{}); !errors.Is(err, core.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestDecodeChunkedLite(t *testing.T) {
	out, ok := decodeChunkedLite([]byte("5\r\nhello\r\n0\r\n\r\n"))
	if !ok || string(out) != "hello" {
		t.Fatalf("unexpected decode %q %v", out, ok)
	}
	if _, ok := decodeChunkedLite([]byte("plain body")); ok {
		t.Fatalf("expected plain body to pass through")
	}
}

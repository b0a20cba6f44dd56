package core

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestCleanKey(t *testing.T) {
	valid := map[string]string{
		"projects.csv":       "projects.csv",
		" v1/projects.csv ":  "v1/projects.csv",
		`v1\projects.csv`:    "v1/projects.csv",
		"v1//tables/./a.csv": "v1/tables/a.csv",
		"v1/tables/":         "v1/tables",
		"dots..in..name.csv": "dots..in..name.csv",
	}
	for in, want := range valid {
		got, err := CleanKey(in)
		if err != nil || got != want {
			t.Fatalf("CleanKey(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	for _, in := range []string{"", "  ", "/abs.csv", "../up.csv", `a\..\b.csv`, "."} {
		if _, err := CleanKey(in); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("CleanKey(%q) expected ErrInvalidKey, got %v", in, err)
		}
	}
}

func TestDigestAndSort(t *testing.T) {
	if got := Digest([]byte("abc")); got != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Fatalf("unexpected digest %s", got)
	}
	infos := SortByKey([]Info{{Key: "b"}, {Key: "a"}, {Key: "c"}})
	if infos[0].Key != "a" || infos[2].Key != "c" {
		t.Fatalf("unexpected order %+v", infos)
	}
}

func TestInfoClone(t *testing.T) {
	orig := Info{Key: "k", Metadata: map[string]string{"kind": "projects"}}
	c := orig.Clone()
	c.Metadata["kind"] = "changed"
	if orig.Metadata["kind"] != "projects" {
		t.Fatalf("clone shares metadata")
	}
}

type oneObject struct {
	body    string
	readErr error
}

func (o oneObject) Put(context.Context, string, io.Reader, PutOptions) (Info, error) {
	return Info{}, nil
}

func (o oneObject) Get(_ context.Context, key string) (Info, io.ReadCloser, error) {
	if key != "k" {
		return Info{}, nil, NotFound(key)
	}
	var r io.Reader = strings.NewReader(o.body)
	if o.readErr != nil {
		r = io.MultiReader(r, errReader{o.readErr})
	}
	return Info{Key: key, Size: int64(len(o.body))}, io.NopCloser(r), nil
}

func (o oneObject) Head(context.Context, string) (Info, error)   { return Info{}, nil }
func (o oneObject) Delete(context.Context, string) (bool, error) { return false, nil }
func (o oneObject) List(context.Context, string) ([]Info, error) { return nil, nil }
func (o oneObject) Driver() Driver                               { return DriverMemory }

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

func TestReadAll(t *testing.T) {
	ctx := context.Background()
	data, info, err := ReadAll(ctx, oneObject{body: "id\n"}, "k")
	if err != nil || string(data) != "id\n" || info.Size != 3 {
		t.Fatalf("unexpected read %q %+v %v", data, info, err)
	}
	if _, _, err := ReadAll(ctx, oneObject{}, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	boom := errors.New("boom")
	if _, _, err := ReadAll(ctx, oneObject{body: "x", readErr: boom}, "k"); !errors.Is(err, boom) {
		t.Fatalf("expected read error, got %v", err)
	}
}

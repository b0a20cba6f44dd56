package s3

import (
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec // S3 ETags are MD5 digests
	"encoding/hex"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const fakeBucket = "housing-test"

// newFakeStore returns a Store whose client talks to an in-process bucket.
// Only the requests Store issues are understood.
func newFakeStore(t *testing.T) *Store {
	t.Helper()
	bucket := &fakeBucketServer{objects: map[string]fakeObject{}}
	cfg := Config{Bucket: fakeBucket, Endpoint: "https://fake.s3.local", PathStyle: true, AccessKeyID: "AKIA", SecretAccessKey: "SECRET"}
	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(DefaultRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		t.Fatalf("aws config: %v", err)
	}
	client := s3.NewFromConfig(awsCfg, cfg.clientOptions, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: bucket}
	})
	return &Store{client: client, bucket: fakeBucket}
}

type fakeObject struct {
	body        []byte
	contentType string
	meta        http.Header
	modified    time.Time
}

func (o fakeObject) header() http.Header {
	sum := md5.Sum(o.body) //nolint:gosec
	h := http.Header{
		"Content-Length": {strconv.Itoa(len(o.body))},
		"Content-Type":   {o.contentType},
		"Etag":           {strconv.Quote(hex.EncodeToString(sum[:]))},
		"Last-Modified":  {o.modified.Format(http.TimeFormat)},
	}
	maps.Copy(h, o.meta)
	return h
}

type fakeBucketServer struct {
	mu      sync.Mutex
	objects map[string]fakeObject
}

func reply(status int, body []byte, h http.Header) *http.Response {
	if h == nil {
		h = http.Header{}
	}
	return &http.Response{StatusCode: status, Header: h, Body: io.NopCloser(bytes.NewReader(body)), ContentLength: int64(len(body))}
}

const noSuchKey = `<?xml version="1.0"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`

var xmlHeader = http.Header{"Content-Type": {"application/xml"}}

func (f *fakeBucketServer) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, key, _ := strings.Cut(strings.TrimPrefix(req.URL.Path, "/"), "/")
	if req.Method == http.MethodGet && req.URL.Query().Get("list-type") == "2" {
		return f.list(req.URL.Query().Get("prefix")), nil
	}
	obj, exists := f.objects[key]
	switch req.Method {
	case http.MethodPut:
		return f.put(key, req), nil
	case http.MethodHead:
		if !exists {
			return reply(http.StatusNotFound, nil, nil), nil
		}
		return reply(http.StatusOK, nil, obj.header()), nil
	case http.MethodGet:
		if !exists {
			return reply(http.StatusNotFound, []byte(noSuchKey), xmlHeader.Clone()), nil
		}
		return reply(http.StatusOK, bytes.Clone(obj.body), obj.header()), nil
	case http.MethodDelete:
		delete(f.objects, key)
		return reply(http.StatusNoContent, nil, nil), nil
	}
	return reply(http.StatusNotImplemented, nil, nil), nil
}

func (f *fakeBucketServer) put(key string, req *http.Request) *http.Response {
	body, _ := io.ReadAll(req.Body)
	if decoded, ok := decodeChunkedLite(body); ok {
		body = decoded
	}
	meta := http.Header{}
	for k, v := range req.Header {
		if ck := http.CanonicalHeaderKey(k); strings.HasPrefix(ck, "X-Amz-Meta-") {
			meta[ck] = v
		}
	}
	f.objects[key] = fakeObject{body: body, contentType: req.Header.Get("Content-Type"), meta: meta, modified: time.Now().UTC()}
	return reply(http.StatusOK, nil, http.Header{"Etag": {`"etag"`}})
}

func (f *fakeBucketServer) list(prefix string) *http.Response {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><ListBucketResult><IsTruncated>false</IsTruncated>`)
	for _, k := range slices.Sorted(maps.Keys(f.objects)) {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		obj := f.objects[k]
		fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>%s</LastModified></Contents>",
			k, len(obj.body), obj.modified.Format(time.RFC3339))
	}
	b.WriteString("</ListBucketResult>")
	return reply(http.StatusOK, []byte(b.String()), xmlHeader.Clone())
}

// decodeChunkedLite unwraps a single-chunk aws-chunked body of the form
// <hex size>[;ext]\r\n<body>\r\n0\r\n...
func decodeChunkedLite(b []byte) ([]byte, bool) {
	head, rest, ok := bytes.Cut(b, []byte("\r\n"))
	if !ok {
		return nil, false
	}
	sizeHex, _, _ := bytes.Cut(head, []byte(";"))
	size, err := strconv.ParseInt(string(sizeHex), 16, 64)
	if err != nil || size < 0 || int(size) > len(rest) {
		return nil, false
	}
	if size == 0 {
		return []byte{}, true
	}
	if !bytes.HasPrefix(rest[size:], []byte("\r\n0")) {
		return nil, false
	}
	return rest[:size], true
}

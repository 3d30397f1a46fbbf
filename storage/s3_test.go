package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// fakeS3 serves the subset of the S3 REST API the store uses, path-style.
type fakeS3 struct {
	mu    sync.Mutex
	state map[string]fakeObject
}

type fakeObject struct {
	body        []byte
	contentType string
	meta        http.Header
}

func empty(code int, h http.Header) *http.Response {
	if h == nil {
		h = http.Header{}
	}
	return &http.Response{StatusCode: code, Body: io.NopCloser(bytes.NewReader(nil)), Header: h}
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	if req.Method == http.MethodGet && req.URL.Query().Get("list-type") == "2" {
		prefix := req.URL.Query().Get("prefix")
		var keys []string
		for k := range f.state {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString(`<?xml version="1.0"?><ListBucketResult><IsTruncated>false</IsTruncated>`)
		for _, k := range keys {
			fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2024-01-01T00:00:00Z</LastModified></Contents>",
				k, len(f.state[k].body))
		}
		b.WriteString("</ListBucketResult>")
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(b.String())),
			Header: http.Header{"Content-Type": {"application/xml"}}}, nil
	}

	switch req.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if dec, ok := decodeChunked(body); ok {
			body = dec
		}
		meta := http.Header{}
		for h, v := range req.Header {
			if strings.HasPrefix(strings.ToLower(h), "x-amz-meta-") {
				meta[h] = v
			}
		}
		f.state[key] = fakeObject{body: body, contentType: req.Header.Get("Content-Type"), meta: meta}
		return empty(http.StatusOK, http.Header{"ETag": {`"etag"`}}), nil
	case http.MethodHead, http.MethodGet:
		obj, ok := f.state[key]
		if !ok {
			return empty(http.StatusNotFound, nil), nil
		}
		h := obj.meta.Clone()
		h.Set("Content-Length", fmt.Sprintf("%d", len(obj.body)))
		h.Set("Content-Type", obj.contentType)
		h.Set("ETag", `"etag123"`)
		h.Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		if req.Method == http.MethodHead {
			return empty(http.StatusOK, h), nil
		}
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(obj.body)), Header: h}, nil
	case http.MethodDelete:
		delete(f.state, key)
		return empty(http.StatusNoContent, nil), nil
	}
	return empty(http.StatusNotImplemented, nil), nil
}

// decodeChunked unwraps a single-chunk aws-chunked payload:
// <hex>\r\n<body>\r\n0\r\n…
func decodeChunked(b []byte) ([]byte, bool) {
	parts := strings.Split(string(b), "\r\n")
	if len(parts) < 3 || parts[2] != "0" {
		return nil, false
	}
	var n int
	if _, err := fmt.Sscanf(parts[0], "%x", &n); err != nil || n != len(parts[1]) {
		return nil, false
	}
	return []byte(parts[1]), true
}

func newFakeS3Store(t *testing.T, prefix string) (*S3Store, *fakeS3) {
	t.Helper()
	fake := &fakeS3{state: make(map[string]fakeObject)}
	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	if err != nil {
		t.Fatal(err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: fake}
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String("https://mock.s3.local")
	})
	return NewS3StoreWithClient(client, "figures", prefix), fake
}

func TestS3Store(t *testing.T) {
	s, fake := newFakeS3Store(t, "Sample_SN2/")
	exerciseStore(t, s)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	for k := range fake.state {
		if !strings.HasPrefix(k, "Sample_SN2/") {
			t.Errorf("object %q written outside the sample prefix", k)
		}
	}
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	if _, err := NewS3Store(context.Background(), S3Config{}); err == nil {
		t.Fatal("expected error without bucket")
	}
}

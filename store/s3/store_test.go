package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awsS3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/xraph/settle"
)

// mockRoundTripper is a tiny fake S3 that keeps objects in memory.
type mockRoundTripper struct {
	mu    sync.Mutex
	state map[string][]byte
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}

	switch req.Method {
	case http.MethodHead:
		if key == "" {
			return response(http.StatusOK, nil), nil
		}
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if dec, ok := decodeChunked(body); ok {
			body = dec
		}
		m.state[key] = body
		return response(http.StatusOK, nil), nil
	case http.MethodGet:
		if body, ok := m.state[key]; ok {
			resp := response(http.StatusOK, body)
			resp.Header.Set("Content-Length", strconv.Itoa(len(body)))
			return resp, nil
		}
		resp := response(http.StatusNotFound, []byte(`<?xml version="1.0"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`))
		resp.Header.Set("Content-Type", "application/xml")
		return resp, nil
	case http.MethodDelete:
		delete(m.state, key)
		return response(http.StatusNoContent, nil), nil
	}
	return response(http.StatusNotImplemented, nil), nil
}

func response(status int, body []byte) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Header:     http.Header{},
	}
}

// decodeChunked unwraps a single-chunk aws-chunked body.
func decodeChunked(b []byte) ([]byte, bool) {
	parts := strings.Split(string(b), "\r\n")
	if len(parts) < 3 {
		return nil, false
	}
	n, err := strconv.ParseInt(parts[0], 16, 64)
	if err != nil || n <= 0 || int64(len(parts[1])) != n || parts[2] != "0" {
		return nil, false
	}
	return []byte(parts[1]), true
}

func newMockStore(t *testing.T, prefix string) (*Store, *mockRoundTripper) {
	t.Helper()
	rt := &mockRoundTripper{state: make(map[string][]byte)}
	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	if err != nil {
		t.Fatalf("cfg: %v", err)
	}
	client := awsS3.NewFromConfig(cfg, func(o *awsS3.Options) {
		o.BaseEndpoint = aws.String("https://mock.s3.local")
		o.HTTPClient = &http.Client{Transport: rt}
		o.UsePathStyle = true
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
	return NewFromClient(client, "test-bucket", prefix), rt
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, rt := newMockStore(t, "settle/")

	if _, err := s.Get(ctx, "k"); !settle.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := s.Put(ctx, "k", []byte(`[{"name":"Ana"}]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, ok := rt.state["settle/k"]; !ok {
		t.Errorf("expected object under prefix, have %v", rt.state)
	}

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `[{"name":"Ana"}]` {
		t.Errorf("unexpected body %q", got)
	}

	if err := s.Put(ctx, "k", []byte(`[]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = s.Get(ctx, "k")
	if string(got) != `[]` {
		t.Errorf("expected overwrite, got %q", got)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete absent: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !settle.IsNotFound(err) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestStorePingAndClose(t *testing.T) {
	ctx := context.Background()
	s, _ := newMockStore(t, "")

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	_ = s.Close()
	if err := s.Put(ctx, "k", nil); !errors.Is(err, settle.ErrStoreClosed) {
		t.Errorf("expected ErrStoreClosed, got %v", err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for missing bucket")
	}
}

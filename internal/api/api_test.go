package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestPOSTSendsJSONAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected JSON content type, got %s", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("x-api-key") != "secret" {
			t.Errorf("Expected default header, got %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("X-Req") != "1" {
			t.Errorf("Expected request header, got %q", r.Header.Get("X-Req"))
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithHeader("x-api-key", "secret"))
	resp, err := c.POST(context.Background(), "/v1", map[string]int{"a": 1}, map[string]string{"X-Req": "1"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	var out struct{ OK bool }
	if err := resp.ParseJSON(&out); err != nil || !out.OK {
		t.Errorf("Expected ok response, got %v %v", out, err)
	}
}

func TestHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient().GET(context.Background(), srv.URL)
	if StatusCode(err) != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %v", err)
	}
}

func TestDoWithRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cfg := &RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 2 * time.Millisecond}
	resp, err := NewClient().DoWithRetry(NewRequest(http.MethodGet, srv.URL), cfg)
	if err != nil {
		t.Fatalf("Expected success on third attempt, got %v", err)
	}
	if resp.String() != "ok" || hits.Load() != 3 {
		t.Errorf("Expected 3 hits and ok body, got %d %q", hits.Load(), resp.String())
	}
}

func TestDoWithRetryStopsOnClientError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	cfg := &RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: time.Millisecond}
	if _, err := NewClient().DoWithRetry(NewRequest(http.MethodGet, srv.URL), cfg); StatusCode(err) != http.StatusBadRequest {
		t.Errorf("Expected 400, got %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("Expected a single attempt, got %d", hits.Load())
	}
}

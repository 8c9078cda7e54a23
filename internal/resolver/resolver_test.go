package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestResolveSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/resolve/abc123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"url":"https://cdn.example/abc123.mp3","contentType":"audio/mpeg","expiresInSeconds":300}`))
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL, nil, time.Second)
	got, err := r.Resolve(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got.URL != "https://cdn.example/abc123.mp3" {
		t.Errorf("URL = %q", got.URL)
	}
	if got.ContentType != "audio/mpeg" {
		t.Errorf("ContentType = %q", got.ContentType)
	}
	if got.ExpiresAt.Before(time.Now()) {
		t.Errorf("ExpiresAt should be in the future")
	}
}

func TestResolveNotFoundIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL, nil, time.Second)
	_, err := r.Resolve(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestResolveTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte(`{"url":"https://cdn.example/late.mp3"}`))
	}))
	defer srv.Close()

	r := NewHTTPResolver(srv.URL, nil,10*time.Millisecond)
	_, err := r.Resolve(context.Background(), "slow")
	if err != ErrTimeout {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

func TestResolveEmptyIDRejected(t *testing.T) {
	r := NewHTTPResolver("http://unused", nil, time.Second)
	if _, err := r.Resolve(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty id")
	}
}

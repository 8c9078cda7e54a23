package streamproxy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/syncjam/syncjam-go/internal/resolver"
)

type fakeResolver struct {
	url string
	err error
}

func (r fakeResolver) Resolve(ctx context.Context, id string) (resolver.Resolved, error) {
	if r.err != nil {
		return resolver.Resolved{}, r.err
	}
	return resolver.Resolved{URL: r.url, ContentType: "audio/mpeg"}, nil
}

func TestServeHTTPForwardsRangeAndBody(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Range") != "bytes=2-5" {
			t.Errorf("expected Range header forwarded, got %q", r.Header.Get("Range"))
		}
		w.Header().Set("Content-Range", "bytes 2-5/10")
		w.Header().Set("Content-Type", "audio/mpeg")
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte("BODY"))
	}))
	defer origin.Close()

	h := New(fakeResolver{url: origin.URL})
	req := httptest.NewRequest(http.MethodGet, "/stream?id=track-1", nil)
	req.Header.Set("Range", "bytes=2-5")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusPartialContent {
		t.Errorf("got status %d, want 206", rec.Code)
	}
	if rec.Body.String() != "BODY" {
		t.Errorf("got body %q, want BODY", rec.Body.String())
	}
	if rec.Header().Get("Content-Range") != "bytes 2-5/10" {
		t.Errorf("Content-Range not forwarded: %q", rec.Header().Get("Content-Range"))
	}
	if rec.Header().Get("Accept-Ranges") != "bytes" {
		t.Errorf("expected Accept-Ranges: bytes, got %q", rec.Header().Get("Accept-Ranges"))
	}
}

func TestServeHTTPMissingIDReturnsBadRequest(t *testing.T) {
	h := New(fakeResolver{url: "http://unused"})
	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want 400", rec.Code)
	}
}

func TestServeHTTPResolverTimeoutReturnsGatewayTimeout(t *testing.T) {
	h := New(fakeResolver{err: resolver.ErrTimeout})
	req := httptest.NewRequest(http.MethodGet, "/stream?id=track-1", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("got status %d, want 504", rec.Code)
	}
}

func TestServeHTTPResolverUnavailableReturnsBadGateway(t *testing.T) {
	h := New(fakeResolver{err: errors.New("boom")})
	req := httptest.NewRequest(http.MethodGet, "/stream?id=track-1", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("got status %d, want 502", rec.Code)
	}
}

func TestServeHTTPUpstreamUnreachableReturnsBadGateway(t *testing.T) {
	h := New(fakeResolver{url: "http://127.0.0.1:1"})
	req := httptest.NewRequest(http.MethodGet, "/stream?id=track-1", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("got status %d, want 502", rec.Code)
	}
}

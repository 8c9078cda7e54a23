package adminhttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeStatus struct {
	status RoomStatus
}

func (f fakeStatus) Status() RoomStatus { return f.status }

func TestHealthzReportsRoomStatus(t *testing.T) {
	h := New(Config{Status: fakeStatus{status: RoomStatus{Mode: "playing", CurrentIndex: 2, SessionCount: 3, CurrentTime: 12.5}}})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	var got RoomStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if got.Mode != "playing" || got.SessionCount != 3 {
		t.Errorf("got %+v", got)
	}
}

func TestHealthzWithNoStatusProviderReturnsOK(t *testing.T) {
	h := New(Config{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
}

func TestReloadSuccessReturnsNoContent(t *testing.T) {
	called := false
	h := New(Config{Reload: func() error {
		called = true
		return nil
	}})

	req := httptest.NewRequest(http.MethodPost, "/admin/reload", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("got status %d, want 204", rec.Code)
	}
	if !called {
		t.Error("expected Reload to be called")
	}
}

func TestReloadFailureReturnsInternalError(t *testing.T) {
	h := New(Config{Reload: func() error {
		return errors.New("bad config")
	}})

	req := httptest.NewRequest(http.MethodPost, "/admin/reload", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("got status %d, want 500", rec.Code)
	}
}

func TestReloadWithoutHandlerReturnsNotImplemented(t *testing.T) {
	h := New(Config{})
	req := httptest.NewRequest(http.MethodPost, "/admin/reload", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("got status %d, want 501", rec.Code)
	}
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	h := New(Config{})
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
}

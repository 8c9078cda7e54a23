// ABOUTME: HTTP byte-range pass-through from a resolved audio URL to a browser client
package streamproxy

import (
	"io"
	"net/http"
	"strings"

	"github.com/syncjam/syncjam-go/internal/resolver"
)

// Logger is the minimal logging surface the proxy needs.
type Logger interface {
	Printf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Printf(string, ...any) {}

// passthroughHeaders are copied verbatim from the upstream response onto
// ours; everything else is dropped rather than blindly forwarded.
var passthroughHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Content-Range",
	"Accept-Ranges",
	"Cache-Control",
	"ETag",
}

// Handler resolves a track id to a URL on every request and proxies the
// client's Range request straight through to it. It is an external
// collaborator the coordinator is agnostic to; it holds no room state.
type Handler struct {
	resolver resolver.Resolver
	client   *http.Client
	log      Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger attaches a Logger.
func WithLogger(l Logger) Option {
	return func(h *Handler) { h.log = l }
}

// WithHTTPClient overrides the client used to fetch the upstream URL.
func WithHTTPClient(c *http.Client) Option {
	return func(h *Handler) { h.client = c }
}

// New builds a Handler. idParam is the URL query parameter carrying the
// track id to resolve (e.g. "/stream?id=abc123").
func New(res resolver.Resolver, opts ...Option) *Handler {
	h := &Handler{
		resolver: res,
		client:   http.DefaultClient,
		log:      noopLogger{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if strings.TrimSpace(id) == "" {
		http.Error(w, "missing id parameter", http.StatusBadRequest)
		return
	}

	resolved, err := h.resolver.Resolve(r.Context(), id)
	if err != nil {
		if err == resolver.ErrTimeout {
			http.Error(w, "resolver timeout", http.StatusGatewayTimeout)
			return
		}
		h.log.Printf("resolve %s failed: %v", id, err)
		http.Error(w, "source unavailable", http.StatusBadGateway)
		return
	}

	upstreamReq, err := http.NewRequestWithContext(r.Context(), http.MethodGet, resolved.URL, nil)
	if err != nil {
		http.Error(w, "bad upstream url", http.StatusBadGateway)
		return
	}
	if rng := r.Header.Get("Range"); rng != "" {
		upstreamReq.Header.Set("Range", rng)
	}

	resp, err := h.client.Do(upstreamReq)
	if err != nil {
		h.log.Printf("fetch %s failed: %v", resolved.URL, err)
		http.Error(w, "source unavailable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for _, name := range passthroughHeaders {
		if v := resp.Header.Get(name); v != "" {
			w.Header().Set(name, v)
		}
	}
	w.Header().Set("Accept-Ranges", "bytes")

	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}

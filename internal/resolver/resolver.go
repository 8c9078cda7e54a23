// ABOUTME: Audio URL Resolver: turns an opaque track id into a short-lived playable URL
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnavailable and ErrTimeout are the two failure modes the resolver
// reports; callers (the pre-buffer path) treat both as transient and
// local to the failing client.
var (
	ErrUnavailable = errors.New("resolver: source unavailable")
	ErrTimeout     = errors.New("resolver: timed out")
)

// Resolved is what the resolver hands back for a track id. URL is
// short-lived (ExpiresAt is approximate, ~5 minutes out by default) —
// callers must not cache it past that point.
type Resolved struct {
	URL         string
	ContentType string
	Duration    *float64
	Bitrate     *int
	ExpiresAt   time.Time
}

// Resolver resolves an opaque track id to a playable URL.
type Resolver interface {
	Resolve(ctx context.Context, id string) (Resolved, error)
}

// HTTPResolver calls an external resolution service over HTTP. Timeout is
// enforced via context.WithTimeout rather than http.Client.Timeout, so a
// caller-supplied context deadline still applies.
type HTTPResolver struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewHTTPResolver builds a resolver that GETs baseURL+"/resolve/"+id and
// expects a JSON body of {url, contentType, duration?, bitrate?, expiresInSeconds?}.
func NewHTTPResolver(baseURL string, client *http.Client, timeout time.Duration) *HTTPResolver {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		timeout: timeout,
	}
}

type resolveResponse struct {
	URL              string   `json:"url"`
	ContentType      string   `json:"contentType"`
	Duration         *float64 `json:"duration,omitempty"`
	Bitrate          *int     `json:"bitrate,omitempty"`
	ExpiresInSeconds *int     `json:"expiresInSeconds,omitempty"`
}

func (r *HTTPResolver) Resolve(ctx context.Context, id string) (Resolved, error) {
	if strings.TrimSpace(id) == "" {
		return Resolved{}, fmt.Errorf("resolver: empty track id")
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	endpoint := r.baseURL + "/resolve/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Resolved{}, fmt.Errorf("resolver: build request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return Resolved{}, ErrTimeout
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return Resolved{}, ErrTimeout
		}
		return Resolved{}, ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Resolved{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body resolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Resolved{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if strings.TrimSpace(body.URL) == "" {
		return Resolved{}, fmt.Errorf("%w: empty url in response", ErrUnavailable)
	}

	expiresIn := 5 * time.Minute
	if body.ExpiresInSeconds != nil {
		expiresIn = time.Duration(*body.ExpiresInSeconds) * time.Second
	}

	return Resolved{
		URL:         body.URL,
		ContentType: body.ContentType,
		Duration:    body.Duration,
		Bitrate:     body.Bitrate,
		ExpiresAt:   time.Now().Add(expiresIn),
	}, nil
}

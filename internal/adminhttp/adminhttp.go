// ABOUTME: Admin HTTP surface: health, metrics and a reload hook
package adminhttp

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RoomStatus reports the fields healthz exposes about the running room.
type RoomStatus struct {
	Mode         string  `json:"mode"`
	CurrentIndex int     `json:"currentIndex"`
	SessionCount int     `json:"sessionCount"`
	CurrentTime  float64 `json:"currentTime"`
}

// healthzResponse wraps RoomStatus with process-level health fields not tied
// to room state.
type healthzResponse struct {
	RoomStatus
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

// StatusProvider supplies the live room status for healthz. Implemented by
// a thin adapter over coordinator.Coordinator + room.Room in main.go, kept
// as an interface here so this package has no dependency on either.
type StatusProvider interface {
	Status() RoomStatus
}

// ReloadFunc performs the reload action behind POST /admin/reload (in
// cmd/syncjam-server, broadcasting forceReload to every session). It returns
// an error if the reload could not be applied, which is reported to the
// caller as a 500.
type ReloadFunc func() error

// Config wires the admin router's collaborators.
type Config struct {
	Status StatusProvider
	Reload ReloadFunc

	// RateLimitRPS bounds requests per second per caller to /admin/reload;
	// zero disables rate limiting.
	RateLimitRPS int
}

// New builds the admin HTTP router: GET /healthz, POST /admin/reload,
// GET /metrics.
func New(cfg Config) http.Handler {
	r := chi.NewRouter()
	startedAt := time.Now()

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		resp := healthzResponse{UptimeSeconds: time.Since(startedAt).Seconds()}
		if cfg.Status != nil {
			resp.RoomStatus = cfg.Status.Status()
		}
		json.NewEncoder(w).Encode(resp)
	})

	reloadHandler := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if cfg.Reload == nil {
			w.WriteHeader(http.StatusNotImplemented)
			return
		}
		if err := cfg.Reload(); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if cfg.RateLimitRPS > 0 {
		limit := cfg.RateLimitRPS * 60
		r.With(httprate.LimitByIP(limit, time.Minute)).Post("/admin/reload", reloadHandler.ServeHTTP)
	} else {
		r.Post("/admin/reload", reloadHandler.ServeHTTP)
	}

	r.Handle("/metrics", promhttp.Handler())

	return r
}

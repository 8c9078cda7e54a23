// ABOUTME: Entry point for the SyncJam room server
// ABOUTME: Parses CLI flags and wires the coordinator, transport, resolver and admin surfaces together
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/syncjam/syncjam-go/internal/adminhttp"
	"github.com/syncjam/syncjam-go/internal/admintui"
	"github.com/syncjam/syncjam-go/internal/clockservice"
	"github.com/syncjam/syncjam-go/internal/coordinator"
	"github.com/syncjam/syncjam-go/internal/discovery"
	"github.com/syncjam/syncjam-go/internal/logging"
	"github.com/syncjam/syncjam-go/internal/metrics"
	"github.com/syncjam/syncjam-go/internal/protocol"
	"github.com/syncjam/syncjam-go/internal/queue"
	"github.com/syncjam/syncjam-go/internal/registry"
	"github.com/syncjam/syncjam-go/internal/resolver"
	"github.com/syncjam/syncjam-go/internal/room"
	"github.com/syncjam/syncjam-go/internal/snapshot"
	"github.com/syncjam/syncjam-go/internal/streamproxy"
)

var (
	port         = flag.Int("port", 8927, "WebSocket server port")
	name         = flag.String("name", "", "Room friendly name (default: hostname-syncjam-server)")
	logFile      = flag.String("log-file", "syncjam-server.log", "Log file path")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	noMDNS       = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	noTUI        = flag.Bool("no-tui", false, "Disable the terminal dashboard")
	resolverAddr = flag.String("resolver-url", "", "Base URL of the audio URL resolver (resolver disabled if empty)")
	redisAddr    = flag.String("redis-addr", "", "Redis address for room state snapshots (in-memory only if empty)")
	adminPort    = flag.Int("admin-port", 8928, "Admin HTTP port (healthz, metrics)")
)

// roomSnapshotID keys the single room this process serves in the snapshot
// store. A multi-room server would key this per room instead.
const roomSnapshotID = "default"

func main() {
	flag.Parse()

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	level := "info"
	if *debug {
		level = "debug"
	}
	logging.Configure(logging.Config{
		Level:   level,
		Output:  io.MultiWriter(os.Stdout, f),
		Service: "syncjam-server",
	})
	log := logging.WithComponent("main")

	roomName := *name
	if roomName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		roomName = fmt.Sprintf("%s-syncjam-server", hostname)
	}

	log.Info().Str("name", roomName).Int("port", *port).Msg("starting syncjam server")

	clock := clockservice.NewReal()
	reg := registry.New()
	q := queue.New()
	roomLog := logging.WithComponent("room")
	r := room.New(room.WithLogger(&zerologPrintf{roomLog}))

	coordLog := logging.WithComponent("coordinator")
	coord := coordinator.New(clock, reg, q, r,
		coordinator.WithMetrics(metrics.NewCoordinator()),
		coordinator.WithLogger(&zerologPrintf{coordLog}),
	)
	r.SetCoordinator(coord)

	var store snapshot.Store
	if *redisAddr != "" {
		redisStore, err := snapshot.NewRedisStore(snapshot.Config{Addr: *redisAddr}, *logging.L())
		if err != nil {
			log.Warn().Err(err).Msg("redis unreachable, falling back to in-memory snapshots")
			store = snapshot.NewMemoryStore()
		} else {
			store = redisStore
		}
	} else {
		store = snapshot.NewMemoryStore()
	}

	ctx, cancel := context.WithCancel(context.Background())
	go coord.Run(ctx)

	restoreRoom(ctx, store, coord, log)
	go snapshotLoop(ctx, store, coord)

	mux := chi.NewRouter()
	mux.Handle("/room", r)

	if *resolverAddr != "" {
		res := resolver.NewHTTPResolver(*resolverAddr, http.DefaultClient, 10*time.Second)
		proxy := streamproxy.New(res, streamproxy.WithLogger(&zerologPrintf{logging.WithComponent("streamproxy")}))
		mux.Handle("/stream", proxy)
	}

	httpSrv := &http.Server{Addr: fmt.Sprintf(":%d", *port), Handler: mux}

	adminSrv := &http.Server{
		Addr: fmt.Sprintf(":%d", *adminPort),
		Handler: adminhttp.New(adminhttp.Config{
			Status: statusAdapter{coord: coord, room: r},
			Reload: func() error {
				r.BroadcastAll(protocol.Message{Type: protocol.TypeForceReload, Payload: protocol.ForceReload{}})
				return nil
			},
			RateLimitRPS: 5,
		}),
	}

	var mgr *discovery.Manager
	if !*noMDNS {
		mgr = discovery.NewManager(discovery.Config{
			ServiceName: roomName,
			Port:        *port,
			ServerMode:  true,
		}, logging.WithComponent("discovery"))
		if err := mgr.Advertise(); err != nil {
			log.Warn().Err(err).Msg("mdns advertise failed")
		}
	}

	var dashboard *admintui.Dashboard
	if !*noTUI {
		dashboard = admintui.New(func() admintui.Status {
			return dashboardStatus(coord, reg, roomName, *port)
		})
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("shutting down gracefully")
		if mgr != nil {
			mgr.Stop()
		}
		if dashboard != nil {
			dashboard.Stop()
		}
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		httpSrv.Shutdown(shutdownCtx)
		adminSrv.Shutdown(shutdownCtx)
		cancel()
		r.Close()
	}()

	go func() {
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("admin server error")
		}
	}()

	if dashboard != nil {
		go func() {
			if err := dashboard.Run(roomName, *port); err != nil {
				log.Warn().Err(err).Msg("dashboard exited")
			}
		}()
	}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server error")
	}

	log.Info().Msg("server stopped")
}

// zerologPrintf adapts a zerolog.Logger to the Printf-shaped Logger
// interfaces several internal packages (room, coordinator, streamproxy)
// expect, so they stay decoupled from zerolog directly.
type zerologPrintf struct {
	l zerolog.Logger
}

func (z *zerologPrintf) Printf(format string, args ...any) {
	z.l.Info().Msg(fmt.Sprintf(format, args...))
}

type statusAdapter struct {
	coord *coordinator.Coordinator
	room  *room.Room
}

func (s statusAdapter) Status() adminhttp.RoomStatus {
	snap := s.coord.Snapshot()
	return adminhttp.RoomStatus{
		Mode:         snap.Mode,
		CurrentIndex: snap.CurrentIndex,
		SessionCount: s.room.SessionCount(),
		CurrentTime:  snap.CurrentTime,
	}
}

func dashboardStatus(coord *coordinator.Coordinator, reg *registry.Registry, roomName string, port int) admintui.Status {
	snap := coord.Snapshot()

	track := "(nothing loaded)"
	if snap.CurrentIndex >= 0 && snap.CurrentIndex < len(snap.Queue) {
		track = snap.Queue[snap.CurrentIndex].Source
	}

	sessions := reg.Snapshot()
	displaySessions := make([]admintui.SessionStatus, 0, len(sessions))
	for _, sess := range sessions {
		displaySessions = append(displaySessions, admintui.SessionStatus{
			ID:        sess.ID,
			LatencyMs: sess.LatencyMs,
			Ready:     sess.Ready,
		})
	}

	return admintui.Status{
		RoomName:     roomName,
		Port:         port,
		Mode:         snap.Mode,
		CurrentTrack: track,
		CurrentTime:  snap.CurrentTime,
		Sessions:     displaySessions,
	}
}

// restoreRoom replays a prior session's queue and position into coord, if
// the snapshot store has one. Absence is not an error: a fresh room starts
// Idle with an empty queue, per the snapshot store's own contract.
func restoreRoom(ctx context.Context, store snapshot.Store, coord *coordinator.Coordinator, log zerolog.Logger) {
	prior, ok, err := store.Load(ctx, roomSnapshotID)
	if err != nil {
		log.Warn().Err(err).Msg("snapshot load failed, starting with an empty room")
		return
	}
	if !ok {
		return
	}

	for _, track := range prior.Queue {
		coord.AddToQueue(track)
	}
	if prior.CurrentIndex > 0 {
		coord.JumpTo(prior.CurrentIndex)
	}
	if prior.CurrentTime > 0 {
		coord.Seek(prior.CurrentTime)
	}
	log.Info().Int("tracks", len(prior.Queue)).Msg("restored room from snapshot")
}

// snapshotLoop periodically persists the room's state so restoreRoom can
// recover it after a restart.
func snapshotLoop(ctx context.Context, store snapshot.Store, coord *coordinator.Coordinator) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store.Save(context.Background(), roomSnapshotID, coord.Snapshot())
		}
	}
}

// ABOUTME: Reference SyncJam client: connects to a room and plays it back through real audio output
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/syncjam/syncjam-go/internal/clientcontrol"
	"github.com/syncjam/syncjam-go/internal/clockservice"
	"github.com/syncjam/syncjam-go/internal/logging"
	"github.com/syncjam/syncjam-go/internal/playerengine"
	"github.com/syncjam/syncjam-go/internal/resolver"
)

var (
	serverAddr   = flag.String("server", "localhost:8927", "Room server address")
	resolverAddr = flag.String("resolver-url", "", "Base URL of the audio URL resolver")
	logFile      = flag.String("log-file", "syncjam-probe.log", "Log file path")
	debug        = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	if *resolverAddr == "" {
		fmt.Fprintln(os.Stderr, "syncjam-probe: -resolver-url is required")
		os.Exit(1)
	}

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
		Service: "syncjam-probe",
	})
	log := logging.WithComponent("probe")

	res := resolver.NewHTTPResolver(*resolverAddr, nil, 10*time.Second)
	sink := playerengine.NewOutput()
	engine := playerengine.New(res, sink)

	transport := clientcontrol.NewTransport(clientcontrol.Config{ServerAddr: *serverAddr, Path: "/room"})
	if err := transport.Connect(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to room server")
	}
	defer transport.Close()

	controller := clientcontrol.New(transport, engine, clockservice.NewReal())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	log.Info().Str("server", *serverAddr).Msg("joined room")
	controller.Run(ctx)

	log.Info().Msg("probe stopped")
}

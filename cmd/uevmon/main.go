package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/uevmon/uevmon/internal/config"
	"github.com/uevmon/uevmon/internal/device"
	"github.com/uevmon/uevmon/internal/mock"
	"github.com/uevmon/uevmon/internal/monitor"
	"github.com/uevmon/uevmon/internal/ws"
)

func main() {
	mockMode := flag.Bool("mock", false, "Use synthetic uevents instead of the kernel socket")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	noColdplug := flag.Bool("no-coldplug", false, "Skip the initial sysfs scan")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("No config at %s, using defaults", *configPath)
		cfg = config.Default()
	} else if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *noColdplug {
		cfg.Monitor.Coldplug = false
	}

	store := device.NewStore()
	broadcaster := ws.NewBroadcaster(store, cfg.Monitor.BroadcastThrottle, cfg.Monitor.SnapshotInterval)
	server := ws.NewServer(store, broadcaster, cfg.Server.AllowedOrigins)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *mockMode {
		log.Println("Starting in mock mode")
		gen := mock.NewGenerator(store, broadcaster)
		gen.Start(ctx)
	} else {
		log.Println("Starting in real mode (kernel uevent socket)")
		mon := monitor.New(cfg, store, broadcaster)
		server.SetStatsSource(mon.StatsSnapshot)
		go func() {
			if err := mon.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Fatalf("Monitor error: %v", err)
			}
		}()
	}

	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		cancel()
		os.Exit(0)
	}()

	if err := ws.ListenAndServe(cfg.Server.Host, cfg.Server.Port, mux); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

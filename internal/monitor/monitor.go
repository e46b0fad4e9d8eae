// Package monitor runs the uevent receive loop: raw datagrams from the
// netlink listener (plus an initial coldplug scan) are decoded, applied
// to the device registry and fanned out to websocket clients. Decode
// policy lives here, not in the transport: a failed packet is counted
// and skipped, never retried, and never aborts the loop.
package monitor

import (
	"context"
	"log"
	"time"

	"github.com/uevmon/uevmon/internal/config"
	"github.com/uevmon/uevmon/internal/device"
	"github.com/uevmon/uevmon/internal/netlink"
	"github.com/uevmon/uevmon/internal/sysfs"
	"github.com/uevmon/uevmon/internal/uevent"
	"github.com/uevmon/uevmon/internal/ws"
)

type Monitor struct {
	cfg         *config.Config
	store       *device.Store
	broadcaster *ws.Broadcaster
	stats       *Stats
}

func New(cfg *config.Config, store *device.Store, broadcaster *ws.Broadcaster) *Monitor {
	return &Monitor{
		cfg:         cfg,
		store:       store,
		broadcaster: broadcaster,
		stats:       newStats(),
	}
}

// StatsSnapshot exposes the monitor counters for the status endpoint.
func (m *Monitor) StatsSnapshot() map[string]interface{} {
	return m.stats.Snapshot()
}

// Start runs the coldplug scan (if enabled) and then consumes netlink
// datagrams until ctx is canceled. It returns ctx.Err() on cancellation
// and the socket error if the listener fails.
func (m *Monitor) Start(ctx context.Context) error {
	if m.cfg.Monitor.Coldplug {
		m.coldplug()
	}

	listener, err := netlink.NewListener(m.cfg.Monitor.NetlinkBufferSize)
	if err != nil {
		return err
	}
	defer listener.Close()

	packets := make(chan []byte, 64)
	errCh := make(chan error, 1)
	go func() {
		errCh <- listener.Listen(ctx, packets)
	}()

	log.Println("Listening for kernel uevents")
	for {
		select {
		case pkt := <-packets:
			m.HandlePacket(pkt)
		case err := <-errCh:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
}

// HandlePacket decodes one raw datagram and folds it into the registry.
func (m *Monitor) HandlePacket(pkt []byte) {
	m.stats.recordPacket()

	ev, err := uevent.DecodeNetlinkPacket(pkt)
	if err != nil {
		m.stats.recordDecodeError(err)
		log.Printf("dropping uevent packet: %v", err)
		return
	}

	if !m.cfg.SubsystemAllowed(ev.Subsystem) {
		m.stats.recordFiltered()
		return
	}

	m.stats.recordDecoded(ev.Action)
	change := m.store.Apply(ev, time.Now())
	m.broadcaster.QueueEvent(change, ev)
}

// coldplug seeds the registry with devices already present in sysfs.
// Scan failure is logged but not fatal: the live netlink stream still
// works without the initial snapshot.
func (m *Monitor) coldplug() {
	scanner := &sysfs.Scanner{Mount: m.cfg.Monitor.SysfsMount}
	events, skipped, err := scanner.Scan()
	if err != nil {
		log.Printf("coldplug scan failed: %v", err)
		m.stats.recordDecodeError(err)
		return
	}

	now := time.Now()
	var states []*device.State
	for _, ev := range events {
		if !m.cfg.SubsystemAllowed(ev.Subsystem) {
			continue
		}
		change := m.store.Apply(ev, now)
		states = append(states, change.State)
	}

	m.broadcaster.QueueUpdates(states)
	m.stats.recordColdplug(len(states), skipped)
	log.Printf("coldplug: %d devices registered, %d entries skipped", len(states), skipped)
}

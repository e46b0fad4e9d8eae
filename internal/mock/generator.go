// Package mock feeds the registry with synthetic uevents so the server
// can be developed without root privileges (the real netlink socket
// needs CAP_NET_ADMIN). Packets are assembled in wire format and run
// through the real decoder, so the whole decode path stays exercised.
package mock

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/uevmon/uevmon/internal/device"
	"github.com/uevmon/uevmon/internal/uevent"
	"github.com/uevmon/uevmon/internal/ws"
)

type mockDevice struct {
	devpath   string
	subsystem string
	devname   string
	major     int
	minor     int
	script    []string // action tokens replayed in a loop
	step      int
}

type Generator struct {
	store       *device.Store
	broadcaster *ws.Broadcaster
	interval    time.Duration
	devices     []*mockDevice
	seq         uint64
}

func NewGenerator(store *device.Store, broadcaster *ws.Broadcaster) *Generator {
	return &Generator{
		store:       store,
		broadcaster: broadcaster,
		interval:    time.Second,
		devices: []*mockDevice{
			{
				devpath: "/devices/platform/serial8250/tty/ttyS0", subsystem: "tty",
				devname: "ttyS0", major: 4, minor: 64,
				script: []string{"add", "change", "change", "change"},
			},
			{
				devpath: "/devices/pci0000:00/0000:00:14.0/usb1/1-2", subsystem: "usb",
				devname: "bus/usb/001/002", major: 189, minor: 1,
				script: []string{"add", "bind", "change", "unbind", "remove"},
			},
			{
				devpath: "/devices/virtual/block/loop0", subsystem: "block",
				devname: "loop0", major: 7, minor: 0,
				script: []string{"add", "change", "remove"},
			},
			{
				devpath: "/devices/system/cpu/cpu1", subsystem: "cpu",
				devname: "", major: 0, minor: 0,
				script: []string{"add", "offline", "online"},
			},
		},
	}
}

func (g *Generator) Start(ctx context.Context) {
	go g.run(ctx)
}

func (g *Generator) run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	g.tick() // seed immediately so clients see devices on connect
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.tick()
		}
	}
}

func (g *Generator) tick() {
	for _, d := range g.devices {
		action := d.script[d.step%len(d.script)]
		d.step++
		g.emit(d, action)
	}
}

// emit assembles a wire-format packet for the device and pushes it
// through the real decode/apply/broadcast path.
func (g *Generator) emit(d *mockDevice, action string) {
	g.seq++

	segments := []string{
		fmt.Sprintf("%s@%s", action, d.devpath),
		"ACTION=" + action,
		"DEVPATH=" + d.devpath,
		"SUBSYSTEM=" + d.subsystem,
	}
	if d.devname != "" {
		segments = append(segments,
			"DEVNAME="+d.devname,
			fmt.Sprintf("MAJOR=%d", d.major),
			fmt.Sprintf("MINOR=%d", d.minor),
		)
	}
	segments = append(segments, fmt.Sprintf("SEQNUM=%d", g.seq))

	ev, err := uevent.DecodeNetlinkPacket([]byte(strings.Join(segments, "\x00")))
	if err != nil {
		log.Printf("mock: bad synthetic packet: %v", err)
		return
	}

	change := g.store.Apply(ev, time.Now())
	g.broadcaster.QueueEvent(change, ev)
}

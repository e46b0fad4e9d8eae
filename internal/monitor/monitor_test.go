package monitor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/uevmon/uevmon/internal/config"
	"github.com/uevmon/uevmon/internal/device"
	"github.com/uevmon/uevmon/internal/uevent"
	"github.com/uevmon/uevmon/internal/ws"
)

func testMonitor(t *testing.T, cfg *config.Config) (*Monitor, *device.Store) {
	t.Helper()
	store := device.NewStore()
	broadcaster := ws.NewBroadcaster(store, 10*time.Millisecond, time.Hour)
	return New(cfg, store, broadcaster), store
}

func packet(segments ...string) []byte {
	return []byte(strings.Join(segments, "\x00"))
}

func TestHandlePacketApplies(t *testing.T) {
	m, store := testMonitor(t, config.Default())

	m.HandlePacket(packet(
		"add@/devices/platform/serial8250/tty/ttyS6",
		"ACTION=add",
		"DEVPATH=/devices/platform/serial8250/tty/ttyS6",
		"SUBSYSTEM=tty",
		"SEQNUM=3469",
	))

	st, ok := store.Get("/devices/platform/serial8250/tty/ttyS6")
	if !ok {
		t.Fatal("device not registered")
	}
	if st.Subsystem != "tty" || st.Seq != 3469 || !st.Present {
		t.Errorf("state = %+v", st)
	}

	snap := m.StatsSnapshot()
	if snap["packetsReceived"].(uint64) != 1 || snap["eventsDecoded"].(uint64) != 1 {
		t.Errorf("stats = %v", snap)
	}
	if snap["actions"].(map[string]uint64)["add"] != 1 {
		t.Errorf("action counters = %v", snap["actions"])
	}
}

func TestHandlePacketCountsDecodeFailures(t *testing.T) {
	m, store := testMonitor(t, config.Default())

	tests := []struct {
		name string
		pkt  []byte
		kind string
	}{
		{"not utf8", []byte{0xff, 0xfe}, "not_utf8"},
		{"bad action", packet("ACTION=hello", "DEVPATH=/d/x", "SUBSYSTEM=tty", "SEQNUM=1"), "unexpected_action"},
		{"bad seqnum", packet("ACTION=add", "DEVPATH=/d/x", "SUBSYSTEM=tty", "SEQNUM=abc"), "invalid_seqnum"},
		{"no action", packet("DEVPATH=/d/x", "SUBSYSTEM=tty", "SEQNUM=1"), "action_not_found"},
		{"no devpath", packet("ACTION=add", "SUBSYSTEM=tty", "SEQNUM=1"), "devpath_not_found"},
		{"no subsystem", packet("ACTION=add", "DEVPATH=/d/x", "SEQNUM=1"), "subsystem_not_found"},
		{"no seqnum", packet("ACTION=add", "DEVPATH=/d/x", "SUBSYSTEM=tty"), "seq_missing"},
	}

	for _, tt := range tests {
		m.HandlePacket(tt.pkt)
	}

	if store.Len() != 0 {
		t.Errorf("store len = %d, want 0 (no packet should have applied)", store.Len())
	}

	failures := m.StatsSnapshot()["decodeFailures"].(map[string]uint64)
	for _, tt := range tests {
		if failures[tt.kind] != 1 {
			t.Errorf("%s: failure counter %q = %d, want 1", tt.name, tt.kind, failures[tt.kind])
		}
	}
}

func TestHandlePacketSubsystemFilter(t *testing.T) {
	cfg := config.Default()
	cfg.Monitor.Subsystems = []string{"block"}
	m, store := testMonitor(t, cfg)

	m.HandlePacket(packet("ACTION=add", "DEVPATH=/d/tty0", "SUBSYSTEM=tty", "SEQNUM=1"))
	m.HandlePacket(packet("ACTION=add", "DEVPATH=/d/sda", "SUBSYSTEM=block", "SEQNUM=2"))

	if store.Len() != 1 {
		t.Fatalf("store len = %d, want 1", store.Len())
	}
	if _, ok := store.Get("/d/sda"); !ok {
		t.Error("block device missing from store")
	}

	snap := m.StatsSnapshot()
	if snap["eventsFiltered"].(uint64) != 1 {
		t.Errorf("eventsFiltered = %v, want 1", snap["eventsFiltered"])
	}
}

func TestColdplug(t *testing.T) {
	mount, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("resolving temp dir: %v", err)
	}
	devDir := filepath.Join(mount, "devices", "virtual", "tty", "tty0")
	if err := os.MkdirAll(devDir, 0o755); err != nil {
		t.Fatalf("creating device dir: %v", err)
	}
	classDir := filepath.Join(mount, "class", "tty")
	if err := os.MkdirAll(classDir, 0o755); err != nil {
		t.Fatalf("creating class dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(devDir, "uevent"), []byte("DEVNAME=tty0\n"), 0o644); err != nil {
		t.Fatalf("writing uevent: %v", err)
	}
	if err := os.Symlink(classDir, filepath.Join(devDir, "subsystem")); err != nil {
		t.Fatalf("linking subsystem: %v", err)
	}

	cfg := config.Default()
	cfg.Monitor.SysfsMount = mount
	m, store := testMonitor(t, cfg)

	m.coldplug()

	st, ok := store.Get("/devices/virtual/tty/tty0")
	if !ok {
		t.Fatal("coldplug did not register device")
	}
	if st.LastAction != uevent.Add || st.Seq != 0 {
		t.Errorf("coldplug state = %+v, want synthesized add with seq 0", st)
	}
	if m.StatsSnapshot()["coldplugDevices"].(int) != 1 {
		t.Errorf("coldplugDevices = %v, want 1", m.StatsSnapshot()["coldplugDevices"])
	}
}

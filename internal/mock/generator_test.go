package mock

import (
	"testing"
	"time"

	"github.com/uevmon/uevmon/internal/device"
	"github.com/uevmon/uevmon/internal/uevent"
	"github.com/uevmon/uevmon/internal/ws"
)

func TestGeneratorTick(t *testing.T) {
	store := device.NewStore()
	broadcaster := ws.NewBroadcaster(store, 10*time.Millisecond, time.Hour)
	g := NewGenerator(store, broadcaster)

	g.tick()

	if store.Len() != len(g.devices) {
		t.Fatalf("store len = %d, want %d", store.Len(), len(g.devices))
	}

	// Every script starts with "add", so everything is present.
	if store.PresentCount() != len(g.devices) {
		t.Errorf("present = %d, want %d", store.PresentCount(), len(g.devices))
	}

	st, ok := store.Get("/devices/platform/serial8250/tty/ttyS0")
	if !ok {
		t.Fatal("tty device not registered")
	}
	if st.LastAction != uevent.Add || st.Env["DEVNAME"] != "ttyS0" {
		t.Errorf("tty state = %+v", st)
	}
	if st.Seq == 0 {
		t.Error("synthetic events should carry nonzero sequence numbers")
	}
}

func TestGeneratorScriptsAdvance(t *testing.T) {
	store := device.NewStore()
	broadcaster := ws.NewBroadcaster(store, 10*time.Millisecond, time.Hour)
	g := NewGenerator(store, broadcaster)

	// The usb device's script ends in remove; after a full cycle it
	// must be registered but absent.
	for range g.devices[1].script {
		g.tick()
	}

	st, ok := store.Get("/devices/pci0000:00/0000:00:14.0/usb1/1-2")
	if !ok {
		t.Fatal("usb device not registered")
	}
	if st.Present {
		t.Errorf("usb device still present after remove, state %+v", st)
	}
	if st.LastAction != uevent.Remove {
		t.Errorf("usb last action = %v, want Remove", st.LastAction)
	}
}

package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/uevmon/uevmon/internal/device"
	"github.com/uevmon/uevmon/internal/uevent"
)

func testServer(t *testing.T) (*Server, *device.Store, *http.ServeMux) {
	t.Helper()
	store := device.NewStore()
	b := NewBroadcaster(store, 10*time.Millisecond, time.Hour)
	srv := NewServer(store, b, nil)
	mux := http.NewServeMux()
	srv.SetupRoutes(mux)
	return srv, store, mux
}

func get(t *testing.T, mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandleDevices(t *testing.T) {
	_, store, mux := testServer(t)
	store.Apply(&uevent.UEvent{
		Action: uevent.Add, DevPath: "/devices/x", Subsystem: "tty",
		Env: map[string]string{}, Seq: 1,
	}, time.Now())

	rec := get(t, mux, "/api/devices")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Devices      []*device.State `json:"devices"`
		PresentCount int             `json:"presentCount"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Devices) != 1 || body.PresentCount != 1 {
		t.Errorf("body = %+v", body)
	}
	if body.Devices[0].DevPath != "/devices/x" {
		t.Errorf("devpath = %q", body.Devices[0].DevPath)
	}
}

func TestHandleDeviceByPath(t *testing.T) {
	_, store, mux := testServer(t)
	store.Apply(&uevent.UEvent{
		Action: uevent.Bind, DevPath: "/devices/platform/serial8250/tty/ttyS6", Subsystem: "tty",
		Env: map[string]string{"DEVNAME": "ttyS6"}, Seq: 9,
	}, time.Now())

	rec := get(t, mux, "/api/devices/devices/platform/serial8250/tty/ttyS6")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var st device.State
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if st.LastAction != uevent.Bind || st.Env["DEVNAME"] != "ttyS6" {
		t.Errorf("state = %+v", st)
	}

	if rec := get(t, mux, "/api/devices/devices/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("missing device status = %d, want 404", rec.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	srv, _, mux := testServer(t)
	srv.SetStatsSource(func() map[string]interface{} {
		return map[string]interface{}{"packetsReceived": uint64(42)}
	})

	rec := get(t, mux, "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	mon, ok := body["monitor"].(map[string]interface{})
	if !ok {
		t.Fatalf("no monitor section in %v", body)
	}
	if mon["packetsReceived"].(float64) != 42 {
		t.Errorf("monitor = %v", mon)
	}
}

func TestCheckOrigin(t *testing.T) {
	store := device.NewStore()
	b := NewBroadcaster(store, 10*time.Millisecond, time.Hour)

	tests := []struct {
		name    string
		allowed []string
		origin  string
		host    string
		want    bool
	}{
		{"no origin header", nil, "", "localhost:8080", true},
		{"same host", nil, "http://localhost:8080", "localhost:8080", true},
		{"cross origin, no allowlist", nil, "http://evil.test", "localhost:8080", false},
		{"allowlisted", []string{"http://ui.test"}, "http://ui.test", "localhost:8080", true},
		{"not allowlisted", []string{"http://ui.test"}, "http://other.test", "localhost:8080", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(store, b, tt.allowed)
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			r.Host = tt.host
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := srv.checkOrigin(r); got != tt.want {
				t.Errorf("checkOrigin = %v, want %v", got, tt.want)
			}
		})
	}
}

package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/uevmon/uevmon/internal/device"
)

// Server exposes the device registry over HTTP: a websocket stream plus
// a small JSON API.
type Server struct {
	store          *device.Store
	broadcaster    *Broadcaster
	allowedOrigins map[string]bool
	stats          func() map[string]interface{}
}

func NewServer(store *device.Store, broadcaster *Broadcaster, allowedOrigins []string) *Server {
	s := &Server{
		store:          store,
		broadcaster:    broadcaster,
		allowedOrigins: make(map[string]bool),
	}
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			s.allowedOrigins[trimmed] = true
		}
	}
	return s
}

// SetStatsSource configures the monitor counters reported by
// /api/status. Must be called before SetupRoutes.
func (s *Server) SetStatsSource(fn func() map[string]interface{}) {
	s.stats = fn
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/devices", s.handleDevices)
	mux.HandleFunc("/api/devices/", s.handleDevice)
	mux.HandleFunc("/api/status", s.handleStatus)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	log.Printf("WebSocket client connected: %s", r.RemoteAddr)
	c := s.broadcaster.AddClient(conn)

	go func() {
		defer func() {
			s.broadcaster.RemoveClient(c)
			log.Printf("WebSocket client disconnected: %s", r.RemoteAddr)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(s.allowedOrigins) == 0 {
		// No explicit allowlist: require same host.
		return strings.Contains(origin, r.Host)
	}
	return s.allowedOrigins[origin]
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]interface{}{
		"devices":      s.store.GetAll(),
		"presentCount": s.store.PresentCount(),
	})
}

// handleDevice serves a single device by devpath, e.g.
// GET /api/devices/devices/platform/serial8250/tty/ttyS6.
func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	devpath := strings.TrimPrefix(r.URL.Path, "/api/devices")
	st, ok := s.store.Get(devpath)
	if !ok {
		http.Error(w, "device not found", http.StatusNotFound)
		return
	}
	writeJSON(w, st)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := map[string]interface{}{
		"devices":      s.store.Len(),
		"presentCount": s.store.PresentCount(),
		"wsClients":    s.broadcaster.ClientCount(),
	}
	if s.stats != nil {
		status["monitor"] = s.stats()
	}

	// Host identity is context, not a hard dependency: report what we
	// can and keep serving if the probes fail.
	if info, err := host.Info(); err == nil {
		status["host"] = map[string]interface{}{
			"hostname":      info.Hostname,
			"os":            info.OS,
			"platform":      info.Platform,
			"kernelVersion": info.KernelVersion,
			"kernelArch":    info.KernelArch,
			"uptimeSeconds": info.Uptime,
		}
	} else {
		log.Printf("host info probe failed: %v", err)
	}

	writeJSON(w, status)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writing response: %v", err)
	}
}

func ListenAndServe(host string, port int, mux *http.ServeMux) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	log.Printf("Server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

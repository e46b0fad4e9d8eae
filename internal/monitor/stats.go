package monitor

import (
	"errors"
	"sync"
	"time"

	"github.com/uevmon/uevmon/internal/uevent"
)

// Stats counts decode outcomes for the receive loop. Every datagram
// either decodes or fails with one specific error; failures are counted
// per kind so /api/status can say exactly what the kernel (or a
// misbehaving peer) is sending us.
type Stats struct {
	mu              sync.Mutex
	startedAt       time.Time
	packetsReceived uint64
	eventsDecoded   uint64
	eventsFiltered  uint64
	actions         map[string]uint64
	decodeFailures  map[string]uint64
	lastError       string
	lastErrorAt     time.Time
	coldplugDevices int
	coldplugSkipped int
}

func newStats() *Stats {
	return &Stats{
		startedAt:      time.Now(),
		actions:        make(map[string]uint64),
		decodeFailures: make(map[string]uint64),
	}
}

func (s *Stats) recordPacket() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packetsReceived++
}

func (s *Stats) recordDecoded(a uevent.ActionType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventsDecoded++
	s.actions[a.String()]++
}

func (s *Stats) recordFiltered() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventsFiltered++
}

func (s *Stats) recordDecodeError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decodeFailures[classifyDecodeError(err)]++
	s.lastError = err.Error()
	s.lastErrorAt = time.Now()
}

func (s *Stats) recordColdplug(devices, skipped int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coldplugDevices = devices
	s.coldplugSkipped = skipped
}

// Snapshot returns a consistent copy of all counters for /api/status.
func (s *Stats) Snapshot() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	actions := make(map[string]uint64, len(s.actions))
	for k, v := range s.actions {
		actions[k] = v
	}
	failures := make(map[string]uint64, len(s.decodeFailures))
	for k, v := range s.decodeFailures {
		failures[k] = v
	}

	snap := map[string]interface{}{
		"startedAt":       s.startedAt,
		"packetsReceived": s.packetsReceived,
		"eventsDecoded":   s.eventsDecoded,
		"eventsFiltered":  s.eventsFiltered,
		"actions":         actions,
		"decodeFailures":  failures,
		"coldplugDevices": s.coldplugDevices,
		"coldplugSkipped": s.coldplugSkipped,
	}
	if s.lastError != "" {
		snap["lastError"] = s.lastError
		snap["lastErrorAt"] = s.lastErrorAt
	}
	return snap
}

// classifyDecodeError maps a decode failure onto its counter key.
func classifyDecodeError(err error) string {
	var actionErr *uevent.UnexpectedActionError
	var devpathErr *uevent.InvalidDevPathError
	var seqErr *uevent.InvalidSeqNumError

	switch {
	case errors.Is(err, uevent.ErrNotUTF8):
		return "not_utf8"
	case errors.As(err, &actionErr):
		return "unexpected_action"
	case errors.As(err, &devpathErr):
		return "invalid_devpath"
	case errors.As(err, &seqErr):
		return "invalid_seqnum"
	case errors.Is(err, uevent.ErrActionNotFound):
		return "action_not_found"
	case errors.Is(err, uevent.ErrDevPathNotFound):
		return "devpath_not_found"
	case errors.Is(err, uevent.ErrSubsystemNotFound):
		return "subsystem_not_found"
	case errors.Is(err, uevent.ErrSeqMissing):
		return "seq_missing"
	default:
		return "other"
	}
}

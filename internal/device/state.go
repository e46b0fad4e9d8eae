package device

import (
	"time"

	"github.com/uevmon/uevmon/internal/uevent"
)

// State is the registry's view of one kernel device, keyed by devpath.
// It accumulates across successive uevents: a removed device stays in
// the registry marked absent so late observers can still see it.
type State struct {
	DevPath     string            `json:"devpath"`
	Subsystem   string            `json:"subsystem"`
	LastAction  uevent.ActionType `json:"lastAction"`
	Seq         uint64            `json:"seq"`
	Env         map[string]string `json:"env,omitempty"`
	Present     bool              `json:"present"`
	FirstSeenAt time.Time         `json:"firstSeenAt"`
	LastSeenAt  time.Time         `json:"lastSeenAt"`
	EventCount  int               `json:"eventCount"`
}

// Clone returns a deep copy of the State, duplicating the env map so the
// copy can be mutated independently of the original.
func (s *State) Clone() *State {
	c := *s
	if s.Env != nil {
		c.Env = make(map[string]string, len(s.Env))
		for k, v := range s.Env {
			c.Env[k] = v
		}
	}
	return &c
}

package device

import (
	"sort"
	"sync"
	"time"

	"github.com/uevmon/uevmon/internal/uevent"
)

// Store is the devpath-keyed device registry. All accessors copy on the
// way in and out, so callers never share a State with the store.
type Store struct {
	mu      sync.RWMutex
	devices map[string]*State
}

func NewStore() *Store {
	return &Store{
		devices: make(map[string]*State),
	}
}

func (s *Store) Get(devpath string) (*State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.devices[devpath]
	if !ok {
		return nil, false
	}
	return st.Clone(), true
}

// GetAll returns all device states sorted by devpath.
func (s *Store) GetAll() []*State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*State, 0, len(s.devices))
	for _, st := range s.devices {
		result = append(result, st.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DevPath < result[j].DevPath
	})
	return result
}

// Apply folds a decoded uevent into the registry and returns the event
// describing the change. A Remove action marks the device absent rather
// than deleting it.
func (s *Store) Apply(ev *uevent.UEvent, now time.Time) Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, known := s.devices[ev.DevPath]
	if !known {
		st = &State{
			DevPath:     ev.DevPath,
			FirstSeenAt: now,
		}
		s.devices[ev.DevPath] = st
	}

	st.Subsystem = ev.Subsystem
	st.LastAction = ev.Action
	st.Seq = ev.Seq
	st.Env = ev.Env
	st.Present = ev.Action != uevent.Remove
	st.LastSeenAt = now
	st.EventCount++

	typ := EventUpdated
	switch {
	case !known:
		typ = EventAdded
	case ev.Action == uevent.Remove:
		typ = EventRemoved
	}

	return Event{
		Type:         typ,
		State:        st.Clone(),
		PresentCount: s.presentCountLocked(),
	}
}

// Remove deletes a device from the registry entirely. Used when pruning
// long-absent devices, not for handling remove uevents.
func (s *Store) Remove(devpath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.devices, devpath)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.devices)
}

func (s *Store) PresentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.presentCountLocked()
}

func (s *Store) presentCountLocked() int {
	count := 0
	for _, st := range s.devices {
		if st.Present {
			count++
		}
	}
	return count
}

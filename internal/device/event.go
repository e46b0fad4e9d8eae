package device

// EventType classifies registry changes.
type EventType int

const (
	EventAdded   EventType = iota // device first observed
	EventUpdated                  // existing device received a uevent
	EventRemoved                  // device marked absent
)

// Event carries a device state snapshot to observers.
type Event struct {
	Type         EventType
	State        *State // snapshot (safe to retain)
	PresentCount int    // present devices at event time
}

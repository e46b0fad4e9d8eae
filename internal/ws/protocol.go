package ws

import (
	"github.com/uevmon/uevmon/internal/device"
	"github.com/uevmon/uevmon/internal/uevent"
)

type MessageType string

const (
	MsgSnapshot MessageType = "snapshot"
	MsgDelta    MessageType = "delta"
	MsgUEvent   MessageType = "uevent"
	MsgError    MessageType = "error"
)

type WSMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

type SnapshotPayload struct {
	Devices []*device.State `json:"devices"`
}

type DeltaPayload struct {
	Updates []*device.State `json:"updates"`
	Removed []string        `json:"removed,omitempty"` // devpaths marked absent
}

// UEventPayload carries a single decoded kernel event for live tails.
type UEventPayload struct {
	Event        *uevent.UEvent `json:"event"`
	PresentCount int            `json:"presentCount"`
}

// Package uevent decodes Linux kernel uevent notifications into validated
// records. Uevents are triggered by kobject_uevent and kobject_uevent_env
// to signal a change in the referred kobject; they reach userspace either
// as NETLINK_KOBJECT_UEVENT datagrams or as static uevent files under a
// sysfs mount.
//
// Both decoders are pure, synchronous functions over their inputs (a byte
// buffer, or a directory/mountpoint pair) and are safe for concurrent use;
// no state is shared between calls.
package uevent

// UEvent is a fully validated kernel userspace event. It is only ever
// constructed complete: decoding either yields all fields populated or a
// specific error, never a partial record.
type UEvent struct {
	// Action is the lifecycle change being signaled.
	Action ActionType `json:"action"`
	// DevPath is the kernel object path, absolute and slash-separated.
	DevPath string `json:"devpath"`
	// Subsystem names the subsystem originating the event.
	Subsystem string `json:"subsystem"`
	// Env holds every KEY=VALUE pair seen during decode, including the
	// recognized keys. Duplicate keys resolve last-write-wins.
	Env map[string]string `json:"env"`
	// Seq is the kernel-assigned sequence number. Sysfs-derived events
	// synthesize 0: a real sequence number is not recoverable from a
	// static directory snapshot.
	Seq uint64 `json:"seq"`
}

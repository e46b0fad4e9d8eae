package uevent

import (
	"strings"
	"unicode/utf8"
)

// DecodeNetlinkPacket decodes a datagram as received from the
// NETLINK_KOBJECT_UEVENT broadcast. The packet is NUL-separated text:
// a "<action>@<devpath>" header segment followed by KEY=VALUE segments.
//
// The buffer must be valid UTF-8 and must carry all four required keys
// (ACTION, DEVPATH, SUBSYSTEM, SEQNUM); each absence is reported as its
// own error. There is no partial result: either a fully valid record or
// one specific error.
func DecodeNetlinkPacket(pkt []byte) (*UEvent, error) {
	if !utf8.Valid(pkt) {
		return nil, ErrNotUTF8
	}
	m, err := parseFields(strings.Split(string(pkt), "\x00"))
	if err != nil {
		return nil, err
	}
	if m.action == nil {
		return nil, ErrActionNotFound
	}
	if m.devpath == nil {
		return nil, ErrDevPathNotFound
	}
	if m.subsystem == nil {
		return nil, ErrSubsystemNotFound
	}
	if m.seq == nil {
		return nil, ErrSeqMissing
	}
	return &UEvent{
		Action:    *m.action,
		DevPath:   *m.devpath,
		Subsystem: *m.subsystem,
		Env:       m.env,
		Seq:       *m.seq,
	}, nil
}

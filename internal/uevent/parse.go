package uevent

import (
	"strconv"
	"strings"
)

// maybeUEvent accumulates recognized fields while scanning KEY=VALUE
// lines. Slots stay nil until seen; which of them must be present is the
// caller's rule, not the parser's. Never escapes this package.
type maybeUEvent struct {
	action    *ActionType
	devpath   *string
	subsystem *string
	seq       *uint64
	env       map[string]string
}

// parseFields scans lines into a maybeUEvent. Lines without '=' are
// ignored; this silently skips the "<action>@<devpath>" header segment
// some sources prepend. Values may themselves contain '=': only the
// first one splits. A malformed recognized value (bad ACTION, SEQNUM or
// DEVPATH) aborts the whole parse.
func parseFields(lines []string) (*maybeUEvent, error) {
	m := &maybeUEvent{env: make(map[string]string)}
	for _, line := range lines {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "ACTION":
			a, err := ParseAction(value)
			if err != nil {
				return nil, err
			}
			m.action = &a
		case "DEVPATH":
			// NUL cannot occur in a kernel object path.
			if strings.ContainsRune(value, 0) {
				return nil, &InvalidDevPathError{Value: value}
			}
			v := value
			m.devpath = &v
		case "SUBSYSTEM":
			v := value
			m.subsystem = &v
		case "SEQNUM":
			n, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return nil, &InvalidSeqNumError{Value: value}
			}
			m.seq = &n
		}
		m.env[key] = value
	}
	return m, nil
}

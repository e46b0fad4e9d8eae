package uevent

import (
	"errors"
	"fmt"
)

// Sentinel errors. The four "not found" values are checked independently
// after a netlink decode so callers learn exactly which required field
// was absent, not merely that the packet was incomplete.
var (
	ErrActionNotFound      = errors.New("action not found")
	ErrDevPathNotFound     = errors.New("devpath not found")
	ErrSubsystemNotFound   = errors.New("subsystem not found")
	ErrSeqMissing          = errors.New("seq missing")
	ErrNotUTF8             = errors.New("packet not UTF-8")
	ErrNotInsideMountpoint = errors.New("path not inside mountpoint")
)

// UnexpectedActionError reports an ACTION value outside the closed
// kobject action set.
type UnexpectedActionError struct {
	Token string
}

func (e *UnexpectedActionError) Error() string {
	return fmt.Sprintf("unexpected action: %s", e.Token)
}

// InvalidDevPathError reports a DEVPATH value that cannot be used as a
// kernel object path.
type InvalidDevPathError struct {
	Value string
}

func (e *InvalidDevPathError) Error() string {
	return fmt.Sprintf("invalid DEVPATH: %s", e.Value)
}

// InvalidSeqNumError reports a SEQNUM value that does not parse as an
// unsigned 64-bit decimal.
type InvalidSeqNumError struct {
	Value string
}

func (e *InvalidSeqNumError) Error() string {
	return fmt.Sprintf("unexpected SEQNUM: %s", e.Value)
}

package uevent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DecodeSysfsDevice decodes a device directory under a sysfs mountpoint
// as a synthesized Add event: reading a device's current sysfs state is
// modeled as if its creation had just been observed.
//
// The directory's uevent file supplies the Env mapping. ACTION and
// SEQNUM from the file, if present, are parsed but not used: Action is
// forced to Add and Seq to 0. Subsystem comes from the final component
// of the subsystem symlink's target. DevPath is the canonicalized
// directory re-rooted at the mountpoint; a directory resolving outside
// the mountpoint is ErrNotInsideMountpoint.
func DecodeSysfsDevice(dir, mountpoint string) (*UEvent, error) {
	data, err := os.ReadFile(filepath.Join(dir, "uevent"))
	if err != nil {
		return nil, fmt.Errorf("reading uevent file: %w", err)
	}
	target, err := os.Readlink(filepath.Join(dir, "subsystem"))
	if err != nil {
		return nil, fmt.Errorf("reading subsystem link: %w", err)
	}

	m, err := parseFields(strings.Split(string(data), "\n"))
	if err != nil {
		return nil, err
	}

	subsystem := filepath.Base(target)
	switch subsystem {
	case "", ".", "..", "/":
		return nil, ErrSubsystemNotFound
	}

	devpath, err := rebasePath(dir, mountpoint)
	if err != nil {
		return nil, err
	}

	return &UEvent{
		Action:    Add,
		DevPath:   devpath,
		Subsystem: subsystem,
		Env:       m.env,
		Seq:       0,
	}, nil
}

// rebasePath canonicalizes dir and rewrites it relative to mountpoint,
// re-rooted at "/" to match the kernel's devpath convention.
func rebasePath(dir, mountpoint string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving device path: %w", err)
	}
	canon, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("resolving device path: %w", err)
	}
	rel, err := filepath.Rel(filepath.Clean(mountpoint), canon)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrNotInsideMountpoint
	}
	if rel == "." {
		return "/", nil
	}
	return "/" + filepath.ToSlash(rel), nil
}

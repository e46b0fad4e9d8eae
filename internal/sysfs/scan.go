// Package sysfs discovers devices already present at startup by walking
// a sysfs mount and decoding each device directory as a synthesized add
// event (the "coldplug" scan, after the udev trigger convention).
package sysfs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/uevmon/uevmon/internal/uevent"
)

// Scanner walks <Mount>/devices looking for directories that carry a
// uevent file and decodes each into a snapshot event.
type Scanner struct {
	// Mount is the sysfs mountpoint, normally /sys.
	Mount string
}

// Scan returns one synthesized add event per decodable device directory,
// plus the count of directories that were skipped because their decode
// failed. Individual decode failures are expected — sysfs always has
// entries mid-teardown and kobjects without a subsystem link — so only a
// failure to walk the tree itself is an error.
func (s *Scanner) Scan() ([]*uevent.UEvent, int, error) {
	root := filepath.Join(s.Mount, "devices")

	var events []*uevent.UEvent
	skipped := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// A subtree vanished mid-walk; keep going.
			skipped++
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if _, err := os.Lstat(filepath.Join(path, "uevent")); err != nil {
			return nil
		}

		ev, err := uevent.DecodeSysfsDevice(path, s.Mount)
		if err != nil {
			skipped++
			return nil
		}
		events = append(events, ev)
		return nil
	})
	if err != nil {
		return nil, skipped, fmt.Errorf("walking %s: %w", root, err)
	}

	return events, skipped, nil
}

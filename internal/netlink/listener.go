// Package netlink receives raw kernel uevent datagrams from the
// NETLINK_KOBJECT_UEVENT broadcast. It performs no decoding: each
// datagram is delivered as an owned byte slice for the caller to decode.
package netlink

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sys/unix"
)

// kernelGroup is the multicast group kobject_uevent broadcasts to.
const kernelGroup = 1

const defaultBufferSize = 8192

// Listener owns a bound NETLINK_KOBJECT_UEVENT socket. Opening the
// socket requires CAP_NET_ADMIN or root on most systems.
type Listener struct {
	fd        int
	buf       []byte
	closeOnce sync.Once
	closeErr  error
}

func NewListener(bufferSize int) (*Listener, error) {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.NETLINK_KOBJECT_UEVENT)
	if err != nil {
		return nil, fmt.Errorf("opening uevent socket: %w", err)
	}

	addr := &unix.SockaddrNetlink{
		Family: unix.AF_NETLINK,
		Groups: kernelGroup,
	}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("binding uevent socket: %w", err)
	}

	return &Listener{fd: fd, buf: make([]byte, bufferSize)}, nil
}

// Listen reads datagrams until ctx is canceled or the socket fails,
// delivering each as a fresh copy on out. EINTR and ENOBUFS are
// transient (ENOBUFS means the kernel dropped events while we lagged)
// and do not stop the loop.
func (l *Listener) Listen(ctx context.Context, out chan<- []byte) error {
	go func() {
		<-ctx.Done()
		l.Close()
	}()

	for {
		n, _, err := unix.Recvfrom(l.fd, l.buf, 0)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, unix.EINTR) {
				continue
			}
			if errors.Is(err, unix.ENOBUFS) {
				log.Printf("netlink: receive buffer overrun, events lost")
				continue
			}
			return fmt.Errorf("reading uevent socket: %w", err)
		}
		if n == 0 {
			continue
		}

		pkt := make([]byte, n)
		copy(pkt, l.buf[:n])

		select {
		case out <- pkt:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close shuts the socket down, unblocking any in-flight read.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = unix.Close(l.fd)
	})
	return l.closeErr
}

//go:build unix

package mux

import (
	"context"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/pqsock/pqsock/internal/constants"
	qerrors "github.com/pqsock/pqsock/internal/errors"
	"github.com/pqsock/pqsock/pkg/metrics"
	"github.com/pqsock/pqsock/pkg/socket"
)

// pollManager is the array-based (B1) backend: O(n) per event since every
// wait scans the whole watched array, but portable to any unix target and
// simple to reason about. The listener always occupies index 0.
type pollManager struct {
	mu     sync.Mutex
	fds    []unix.PollFd
	closed bool
}

// NewPoll registers listener for read-readiness under the B1 backend.
// maxConnections preallocates capacity for the watched-handle slice.
func NewPoll(listener socket.Handle, maxConnections int) (Manager, error) {
	fds := make([]unix.PollFd, 0, maxConnections+1)
	fds = append(fds, unix.PollFd{Fd: int32(listener), Events: unix.POLLIN})
	return &pollManager{fds: fds}, nil
}

// WaitForEvent blocks on Poll with an infinite timeout. The listener at
// index 0 is scanned before any client handle to preserve priority.
func (m *pollManager) WaitForEvent(ctx context.Context) (result int, err error) {
	_, end := metrics.StartSpan(ctx, metrics.SpanWaitForEvent)
	defer func() { end(err) }()

	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return constants.SocketError, qerrors.ErrTransportClosed
		}
		fds := make([]unix.PollFd, len(m.fds))
		copy(fds, m.fds)
		m.mu.Unlock()

		n, err := unix.Poll(fds, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return constants.SocketError, qerrors.NewTransportError("mux.WaitForEvent", err)
		}
		if n == 0 {
			continue
		}

		for i, pfd := range fds {
			if pfd.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) == 0 {
				continue
			}
			if i == 0 {
				return constants.ConnAttempt, nil
			}
			return int(pfd.Fd), nil
		}
	}
}

// Monitor appends h to the watched array.
func (m *pollManager) Monitor(h socket.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fds = append(m.fds, unix.PollFd{Fd: int32(h), Events: unix.POLLIN})
	return nil
}

// StopMonitoring removes h by a linear scan of the watched array.
func (m *pollManager) StopMonitoring(h socket.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, pfd := range m.fds {
		if int(pfd.Fd) == h {
			m.fds = append(m.fds[:i], m.fds[i+1:]...)
			return nil
		}
	}
	return nil
}

// Close marks the manager closed; a waiting WaitForEvent observes this on
// its next poll-loop iteration.
func (m *pollManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

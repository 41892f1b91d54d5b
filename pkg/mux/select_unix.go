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

// selectManager is the bitmap-based (B2) backend: O(n) per event bounded by
// the highest watched handle, the legacy behavior that predates poll/epoll.
// It has no native cancellation, so WaitForEvent loops on a short internal
// timeout purely to let Close's flag be observed between waits.
type selectManager struct {
	mu       sync.Mutex
	listener socket.Handle
	watched  map[socket.Handle]struct{}
	maxFd    int
	closed   bool
}

// NewSelect registers listener for read-readiness under the B2 backend.
// maxConnections is accepted for contract symmetry with the other backends;
// select has no fixed-size event buffer to preallocate.
func NewSelect(listener socket.Handle, maxConnections int) (Manager, error) {
	m := &selectManager{
		listener: listener,
		watched:  make(map[socket.Handle]struct{}),
		maxFd:    listener,
	}
	m.watched[listener] = struct{}{}
	return m, nil
}

// WaitForEvent blocks on Select in a loop with a 3-second internal timeout,
// re-checking the closed flag between waits since select offers no
// cancellation primitive. The listener is checked before any client handle
// to preserve priority.
func (m *selectManager) WaitForEvent(ctx context.Context) (result int, err error) {
	_, end := metrics.StartSpan(ctx, metrics.SpanWaitForEvent)
	defer func() { end(err) }()

	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return constants.SocketError, qerrors.ErrTransportClosed
		}
		var set unix.FdSet
		for h := range m.watched {
			fdSet(&set, h)
		}
		maxFd := m.maxFd
		listener := m.listener
		m.mu.Unlock()

		timeout := unix.Timeval{Sec: constants.BitmapPollTimeoutSeconds}
		n, err := unix.Select(maxFd+1, &set, nil, nil, &timeout)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return constants.SocketError, qerrors.NewTransportError("mux.WaitForEvent", err)
		}
		if n == 0 {
			continue
		}

		if fdIsSet(&set, listener) {
			return constants.ConnAttempt, nil
		}

		m.mu.Lock()
		for h := range m.watched {
			if h == listener {
				continue
			}
			if fdIsSet(&set, h) {
				m.mu.Unlock()
				return h, nil
			}
		}
		m.mu.Unlock()
	}
}

// Monitor adds h to the watched set and raises maxFd if needed.
func (m *selectManager) Monitor(h socket.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watched[h] = struct{}{}
	if h > m.maxFd {
		m.maxFd = h
	}
	return nil
}

// StopMonitoring is a documented no-op: a closed handle is simply never
// select-ready again, so there is nothing to do beyond what the OS already
// guarantees.
func (m *selectManager) StopMonitoring(h socket.Handle) error {
	return nil
}

// Close sets the closed flag observed by WaitForEvent's next timeout tick.
func (m *selectManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func fdSet(set *unix.FdSet, fd socket.Handle) {
	set.Bits[fd/64] |= 1 << (uint(fd) % 64)
}

func fdIsSet(set *unix.FdSet, fd socket.Handle) bool {
	return set.Bits[fd/64]&(1<<(uint(fd)%64)) != 0
}

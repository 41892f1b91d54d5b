//go:build linux

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

// epollManager is the edge-scalable (B0) backend: O(1) per delivered event,
// O(log n) set maintenance inside the kernel, at the cost of requiring
// explicit deregistration before a watched handle is closed.
type epollManager struct {
	epfd     int
	listener socket.Handle
	events   []unix.EpollEvent

	mu     sync.Mutex
	closed bool
}

// NewEpoll registers listener for read-readiness under the B0 backend.
// maxConnections sizes the pre-allocated event buffer passed to EpollWait.
func NewEpoll(listener socket.Handle, maxConnections int) (Manager, error) {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, qerrors.NewTransportError("mux.NewEpoll", err)
	}

	m := &epollManager{
		epfd:     epfd,
		listener: listener,
		events:   make([]unix.EpollEvent, maxConnections+1),
	}

	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, listener, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(listener),
	}); err != nil {
		unix.Close(epfd)
		return nil, qerrors.NewTransportError("mux.NewEpoll", err)
	}

	return m, nil
}

// WaitForEvent blocks on EpollWait with an infinite timeout, matching the
// B0 contract. Among events delivered by a single wait, the first element
// in the returned slice is consulted, giving the listener priority when it
// appears first.
func (m *epollManager) WaitForEvent(ctx context.Context) (result int, err error) {
	_, end := metrics.StartSpan(ctx, metrics.SpanWaitForEvent)
	defer func() { end(err) }()

	for {
		n, err := unix.EpollWait(m.epfd, m.events, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return constants.SocketError, qerrors.NewTransportError("mux.WaitForEvent", err)
		}
		if n == 0 {
			continue
		}

		fd := int(m.events[0].Fd)
		if fd == m.listener {
			return constants.ConnAttempt, nil
		}
		return fd, nil
	}
}

// Monitor registers h for read-readiness.
func (m *epollManager) Monitor(h socket.Handle) error {
	if err := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_ADD, h, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(h),
	}); err != nil {
		return qerrors.NewTransportError("mux.Monitor", err)
	}
	return nil
}

// StopMonitoring deregisters h. B0 requires this before h is closed.
func (m *epollManager) StopMonitoring(h socket.Handle) error {
	if err := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_DEL, h, nil); err != nil {
		return qerrors.NewTransportError("mux.StopMonitoring", err)
	}
	return nil
}

// Close releases the epoll handle. A WaitForEvent called afterwards fails
// with EBADF wrapped as a TransportError; an EpollWait already in progress
// is not interrupted by the close.
func (m *epollManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return unix.Close(m.epfd)
}

// Package mux implements the event multiplexer (C7): a single contract over
// three interchangeable readiness-notification backends so a server loop can
// watch many connections without a thread per connection.
//
//   - B0 (epoll): O(1) per event, explicit deregistration, linux only.
//   - B1 (poll): O(n) per event, array-based, any unix platform.
//   - B2 (select): O(n) per event bounded by the highest handle, bitmap-based,
//     any unix platform; deregistration is a no-op since select never reports
//     a closed handle as ready.
//
// All three backends always watch the listening handle passed to their
// constructor and report it via the reserved CONN_ATTEMPT sentinel.
package mux

import (
	"context"

	"github.com/pqsock/pqsock/pkg/socket"
)

// Manager is the uniform contract every backend implements.
type Manager interface {
	// WaitForEvent blocks until at least one watched handle is readable and
	// returns it. constants.ConnAttempt is returned when the ready handle is
	// the listener registered at construction time.
	WaitForEvent(ctx context.Context) (int, error)

	// Monitor adds a client handle to the watched set.
	Monitor(h socket.Handle) error

	// StopMonitoring removes a handle from the watched set. On B2 this is a
	// documented no-op.
	StopMonitoring(h socket.Handle) error

	// Close tears down backend state; WaitForEvent calls made after it fail.
	// A WaitForEvent already blocked is woken only by B2, on its next
	// timeout tick; on B0 and B1 it returns only once a watched handle
	// becomes ready.
	Close() error
}

package endpoint

import (
	"context"

	"github.com/pqsock/pqsock/pkg/socket"
)

// Listener accepts incoming connections and hands back handshaken
// Endpoints. It is the thread-per-connection counterpart to pkg/server's
// event-loop acceptor: each Accept call blocks for both the TCP accept and
// the subsequent handshake, so callers that want to keep accepting while a
// handshake is in flight should call Accept from a dedicated goroutine per
// connection, not from the same goroutine that dispatches a client.
type Listener struct {
	handle socket.Handle
	opts   []Option
}

// Listen creates, binds, and listens on port, matching the raw socket
// wrapper's allow_reuse/backlog contract.
func Listen(port, backlog int, allowReuse bool, opts ...Option) (*Listener, error) {
	h, err := socket.CreateListener(port, backlog, allowReuse)
	if err != nil {
		return nil, err
	}
	return &Listener{handle: h, opts: opts}, nil
}

// Accept blocks for the next client connection and its handshake, always
// taking the initiator (I) role against the new client.
func (l *Listener) Accept(ctx context.Context) (*Endpoint, error) {
	client, err := socket.Accept(l.handle)
	if err != nil {
		return nil, err
	}
	return Accept(ctx, client, l.opts...)
}

// Handle returns the listening socket's OS handle, for registration with an
// event multiplexer.
func (l *Listener) Handle() socket.Handle {
	return l.handle
}

// Close releases the listening socket.
func (l *Listener) Close() error {
	return socket.Close(l.handle)
}

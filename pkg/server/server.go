// Package server implements the server acceptor (C8): a listening socket
// registered with an event multiplexer, driving a single-threaded accept
// loop that hands each readable connection to an application handler.
package server

import (
	"context"
	"sync"

	"github.com/pqsock/pqsock/internal/constants"
	"github.com/pqsock/pqsock/pkg/endpoint"
	"github.com/pqsock/pqsock/pkg/metrics"
	"github.com/pqsock/pqsock/pkg/mux"
	"github.com/pqsock/pqsock/pkg/socket"
)

// Backend selects which of the three event multiplexer implementations the
// acceptor's loop runs on.
type Backend int

const (
	// BackendEpoll is B0, the edge-scalable backend (linux only).
	BackendEpoll Backend = iota
	// BackendPoll is B1, the array-based backend.
	BackendPoll
	// BackendSelect is B2, the bitmap-based backend.
	BackendSelect
)

type options struct {
	backlog        int
	allowReuse     bool
	maxConnections int
	backend        Backend
	autoPrint      bool
	logger         *metrics.Logger
	endpointOpts   []endpoint.Option
}

// Option configures a Server at construction time.
type Option func(*options)

// WithBacklog sets the listening socket's pending-connection queue depth.
func WithBacklog(n int) Option {
	return func(o *options) { o.backlog = n }
}

// WithAllowReuse sets SO_REUSEADDR before bind.
func WithAllowReuse(enabled bool) Option {
	return func(o *options) { o.allowReuse = enabled }
}

// WithMaxConnections sizes backend state that benefits from a capacity hint
// (B0's pre-allocated event array and B1's initial slice capacity; ignored
// by B2).
func WithMaxConnections(n int) Option {
	return func(o *options) { o.maxConnections = n }
}

// WithMultiplexerBackend selects which of the three backends drives the
// accept loop. The default is BackendPoll, portable to any unix target.
func WithMultiplexerBackend(b Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithAutoPrint propagates to every Endpoint the acceptor constructs.
func WithAutoPrint(enabled bool) Option {
	return func(o *options) {
		o.autoPrint = enabled
		o.endpointOpts = append(o.endpointOpts, endpoint.WithAutoPrint(enabled))
	}
}

// WithLogger attaches a structured logger to the server and to every
// Endpoint it constructs.
func WithLogger(l *metrics.Logger) Option {
	return func(o *options) {
		o.logger = l
		o.endpointOpts = append(o.endpointOpts, endpoint.WithLogger(l))
	}
}

// Server owns a listening socket, its multiplexer backend, and the
// handle-to-Endpoint lookup the accept loop needs to dispatch a raw ready
// handle to the connection object that owns it. This internal lookup serves
// dispatch only; per-connection application data (usernames, room
// membership) is the caller's responsibility, kept outside this package.
type Server struct {
	listener socket.Handle
	mgr      mux.Manager
	opts     options

	mu    sync.Mutex
	conns map[socket.Handle]*endpoint.Endpoint
}

// Listen creates, binds, and listens on port, then registers the resulting
// handle with the selected multiplexer backend.
func Listen(port int, opts ...Option) (*Server, error) {
	o := options{
		backlog:        16,
		allowReuse:     true,
		maxConnections: 64,
		backend:        BackendPoll,
	}
	for _, opt := range opts {
		opt(&o)
	}

	h, err := socket.CreateListener(port, o.backlog, o.allowReuse)
	if err != nil {
		return nil, err
	}

	mgr, err := newBackend(o.backend, h, o.maxConnections)
	if err != nil {
		socket.Close(h)
		return nil, err
	}

	return &Server{
		listener: h,
		mgr:      mgr,
		opts:     o,
		conns:    make(map[socket.Handle]*endpoint.Endpoint),
	}, nil
}

func newBackend(b Backend, listener socket.Handle, maxConnections int) (mux.Manager, error) {
	switch b {
	case BackendEpoll:
		return newEpollBackend(listener, maxConnections)
	case BackendSelect:
		return mux.NewSelect(listener, maxConnections)
	default:
		return mux.NewPoll(listener, maxConnections)
	}
}

// Handler processes exactly one received message for conn and optionally
// replies; returning a non-nil error drops the connection.
type Handler func(ctx context.Context, conn *endpoint.Endpoint) error

// Run drives the accept loop until ctx is canceled or the multiplexer
// returns a fatal error. Each CONN_ATTEMPT accepts a new client and runs its
// handshake inline, per the blocking-handshake-in-the-event-loop tradeoff
// this acceptor inherits; a failed accept or failed handshake is logged and
// the loop continues, while a failure to register the new handle with the
// multiplexer is fatal and returned to the caller (per the taxonomy in the
// error handling design).
func (s *Server) Run(ctx context.Context, handler Handler) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		h, err := s.mgr.WaitForEvent(ctx)
		if err != nil {
			return err
		}

		if h == constants.ConnAttempt {
			if err := s.acceptOne(ctx); err != nil {
				if s.opts.logger != nil {
					s.opts.logger.Error("multiplexer registration failed, stopping accept loop", metrics.Fields{"error": err.Error()})
				}
				return err
			}
			continue
		}

		s.dispatch(ctx, socket.Handle(h), handler)
	}
}

// acceptOne accepts and handshakes a single new connection. Accept and
// handshake failures are non-fatal: they are logged and nil is returned so
// Run keeps listening. A failure to register the new handle with the
// multiplexer is fatal and returned to the caller, since the multiplexer's
// invariants no longer hold for this listener.
func (s *Server) acceptOne(ctx context.Context) error {
	_, end := metrics.StartSpan(ctx, metrics.SpanAccept)
	var spanErr error
	defer func() { end(spanErr) }()

	client, err := socket.Accept(s.listener)
	if err != nil {
		spanErr = err
		if s.opts.logger != nil {
			s.opts.logger.Warn("accept failed, continuing to listen", metrics.Fields{"error": err.Error()})
		}
		return nil
	}

	ep, err := endpoint.Accept(ctx, client, s.opts.endpointOpts...)
	if err != nil {
		spanErr = err
		if s.opts.logger != nil {
			s.opts.logger.Warn("handshake failed, dropping connection", metrics.Fields{"error": err.Error()})
		}
		return nil
	}

	if err := s.mgr.Monitor(ep.Handle()); err != nil {
		spanErr = err
		ep.Close()
		return err
	}

	s.mu.Lock()
	s.conns[ep.Handle()] = ep
	s.mu.Unlock()
	return nil
}

func (s *Server) dispatch(ctx context.Context, h socket.Handle, handler Handler) {
	s.mu.Lock()
	ep, ok := s.conns[h]
	s.mu.Unlock()
	if !ok {
		return
	}

	if err := handler(ctx, ep); err != nil {
		s.drop(h, ep)
	}
}

func (s *Server) drop(h socket.Handle, ep *endpoint.Endpoint) {
	s.mgr.StopMonitoring(h)
	s.mu.Lock()
	delete(s.conns, h)
	s.mu.Unlock()
	ep.Close()
}

// Close shuts down the accept loop's backend, the listening socket, and
// every connection the server is still tracking.
func (s *Server) Close() error {
	s.mu.Lock()
	conns := make([]*endpoint.Endpoint, 0, len(s.conns))
	for _, ep := range s.conns {
		conns = append(conns, ep)
	}
	s.conns = make(map[socket.Handle]*endpoint.Endpoint)
	s.mu.Unlock()

	for _, ep := range conns {
		ep.Close()
	}

	s.mgr.Close()
	return socket.Close(s.listener)
}

// Handle returns the listening socket's OS handle.
func (s *Server) Handle() socket.Handle {
	return s.listener
}

// Package endpoint implements the message framer and crypto pipeline (C6):
// a length-prefixed send/receive protocol layered over a handshaken socket,
// with a runtime toggle for whether payloads are transparently encrypted.
//
// An Endpoint is created either by dialing out (the connecting side always
// takes the handshake's responder role) or by a Listener accepting an
// incoming connection (the accepting side always takes the initiator role).
// Either path blocks for the duration of the handshake before returning.
package endpoint

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/pqsock/pqsock/internal/constants"
	qerrors "github.com/pqsock/pqsock/internal/errors"
	"github.com/pqsock/pqsock/pkg/crypto"
	"github.com/pqsock/pqsock/pkg/handshake"
	"github.com/pqsock/pqsock/pkg/metrics"
	"github.com/pqsock/pqsock/pkg/socket"
)

// state tracks where an Endpoint sits in the lifecycle described in the
// framer's state machine: KEYED with armed true or false, or CLOSED.
// UNKEYED never escapes this package — both constructors block until the
// handshake completes or fails outright.
type state int

const (
	stateKeyed state = iota
	stateClosed
)

// Endpoint is a handshaken, length-framed channel over a raw socket.
type Endpoint struct {
	handle    socket.Handle
	initiator bool
	autoPrint bool

	mu     sync.Mutex
	armed  bool
	st     state
	crypto *crypto.State

	logger *metrics.Logger
}

// Option configures an Endpoint at construction time.
type Option func(*Endpoint)

// WithAutoPrint echoes every payload returned by Receive to standard output,
// mirroring the debug behavior of the source's demo clients.
func WithAutoPrint(enabled bool) Option {
	return func(e *Endpoint) { e.autoPrint = enabled }
}

// WithLogger attaches a structured logger; nil (the default) disables
// logging of endpoint lifecycle events.
func WithLogger(l *metrics.Logger) Option {
	return func(e *Endpoint) { e.logger = l }
}

// Dial connects to host:port, runs the handshake as responder (R), and
// returns a keyed, armed Endpoint.
func Dial(ctx context.Context, host string, port int, opts ...Option) (*Endpoint, error) {
	h, err := socket.Connect(host, port)
	if err != nil {
		return nil, err
	}

	e := newEndpoint(h, false, opts...)
	if err := e.runHandshake(ctx); err != nil {
		socket.Close(h)
		return nil, err
	}
	return e, nil
}

// Accept wraps an already-accepted socket handle, running the handshake as
// initiator (I). Use this when the raw accept happened outside this package
// — for instance in an event-driven acceptor (pkg/server) that learned about
// the new connection from a multiplexer rather than calling Listener.Accept
// directly.
func Accept(ctx context.Context, h socket.Handle, opts ...Option) (*Endpoint, error) {
	e := newEndpoint(h, true, opts...)
	if err := e.runHandshake(ctx); err != nil {
		socket.Close(h)
		return nil, err
	}
	return e, nil
}

func newEndpoint(h socket.Handle, initiator bool, opts ...Option) *Endpoint {
	e := &Endpoint{
		handle:    h,
		initiator: initiator,
		armed:     true,
		st:        stateKeyed,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Endpoint) runHandshake(ctx context.Context) error {
	var res *handshake.Result
	var err error
	if e.initiator {
		res, err = handshake.RunInitiator(ctx, e.handle)
	} else {
		res, err = handshake.RunResponder(ctx, e.handle)
	}
	if err != nil {
		return err
	}

	cs, err := crypto.NewState(res.SharedKey, res.IV)
	if err != nil {
		return err
	}
	e.crypto = cs

	if e.logger != nil {
		role := "responder"
		if e.initiator {
			role = "initiator"
		}
		e.logger.ForSpanAttributes(metrics.SpanAttributes{
			Handle: e.handle,
			Role:   role,
			Armed:  e.armed,
		}).Info("handshake complete")
	}
	return nil
}

// Handle returns the underlying OS socket handle.
func (e *Endpoint) Handle() socket.Handle {
	return e.handle
}

// Send encodes data as one length-prefixed frame, encrypting it first when
// encryption is armed, and writes it to the socket as a single logical unit.
func (e *Endpoint) Send(ctx context.Context, data []byte) error {
	ctx, end := metrics.StartSpan(ctx, metrics.SpanSend, metrics.WithAttributes(
		metrics.SpanAttributes{Handle: e.handle}.ToMap(),
	))
	var err error
	defer func() { end(err) }()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.st == stateClosed {
		err = qerrors.ErrBadState
		return err
	}

	if len(data) > constants.MaxPlaintextSize {
		err = qerrors.ErrPayloadTooLarge
		return err
	}

	var payload []byte
	if len(data) == 0 {
		payload = nil
	} else if e.armed {
		_, encEnd := metrics.StartSpan(ctx, metrics.SpanEncrypt, metrics.WithAttributes(
			metrics.SpanAttributes{Handle: e.handle, Armed: e.armed}.ToMap(),
		))
		payload, err = e.crypto.Encrypt(data)
		encEnd(err)
		if err != nil {
			err = qerrors.NewCryptoError("endpoint.Send", qerrors.ErrEncryptionFailed)
			return err
		}
	} else {
		payload = data
	}

	frame := make([]byte, constants.LengthPrefixSize+len(payload))
	binary.LittleEndian.PutUint32(frame[:constants.LengthPrefixSize], uint32(len(payload)))
	copy(frame[constants.LengthPrefixSize:], payload)

	if err = socket.SendExact(e.handle, frame); err != nil {
		e.st = stateClosed
		return err
	}
	return nil
}

// Receive blocks for exactly one length-prefixed frame, decrypting it when
// encryption is armed, and returns the resulting payload.
func (e *Endpoint) Receive(ctx context.Context) ([]byte, error) {
	ctx, end := metrics.StartSpan(ctx, metrics.SpanReceive, metrics.WithAttributes(
		metrics.SpanAttributes{Handle: e.handle}.ToMap(),
	))
	var err error
	defer func() { end(err) }()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.st == stateClosed {
		err = qerrors.ErrBadState
		return nil, err
	}

	lenBytes, rerr := socket.RecvExact(e.handle, constants.LengthPrefixSize)
	if rerr != nil {
		err = rerr
		e.st = stateClosed
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBytes)

	if n == 0 {
		if e.autoPrint {
			fmt.Println()
		}
		return []byte{}, nil
	}

	if n > constants.MaxCiphertextSize {
		err = qerrors.NewProtocolError("endpoint.Receive", qerrors.ErrDecryptionFailed)
		return nil, err
	}

	payload, rerr := socket.RecvExact(e.handle, int(n))
	if rerr != nil {
		err = rerr
		e.st = stateClosed
		return nil, err
	}

	var plaintext []byte
	if e.armed {
		_, decEnd := metrics.StartSpan(ctx, metrics.SpanDecrypt, metrics.WithAttributes(
			metrics.SpanAttributes{Handle: e.handle, Armed: e.armed}.ToMap(),
		))
		plaintext, err = e.crypto.Decrypt(payload)
		decEnd(err)
		if err != nil {
			return nil, err
		}
	} else {
		plaintext = payload
	}

	if e.autoPrint {
		fmt.Println(string(plaintext))
	}
	return plaintext, nil
}

// SetCryptography toggles whether Send/Receive transparently encrypt and
// decrypt payloads. It does not re-key: the existing key and IV remain
// bound to the underlying CBC contexts. The caller is responsible for
// coordinating the toggle with the peer; a mismatch produces
// ErrDecryptionFailed or garbage output on the side that is out of step.
func (e *Endpoint) SetCryptography(armed bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.st == stateClosed {
		return qerrors.ErrBadState
	}
	e.armed = armed
	return nil
}

// Armed reports whether encryption is currently toggled on.
func (e *Endpoint) Armed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.armed
}

// Close releases the OS socket and zeroes the cipher contexts' key material.
// Subsequent Send/Receive calls fail with ErrBadState.
func (e *Endpoint) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.st == stateClosed {
		return nil
	}
	e.st = stateClosed
	if e.crypto != nil {
		e.crypto.Zeroize()
	}
	return socket.Close(e.handle)
}

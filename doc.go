// Package pqsock provides a post-quantum secure socket library: an
// ML-KEM-1024 handshake establishes a shared secret between two raw TCP
// endpoints, after which an AES-256-CBC framer carries encrypted
// application messages over the connection; the framer adds no message
// authentication code. A companion event multiplexer
// lets a single thread watch many such connections without one thread per
// connection.
//
// # Quick Start
//
// Accepting and keying a connection:
//
//	import "github.com/pqsock/pqsock/pkg/endpoint"
//
//	ln, _ := endpoint.Listen(777, 16, true)
//	conn, _ := ln.Accept(ctx)        // runs the handshake, returns a keyed Endpoint
//	msg, _ := conn.Receive(ctx)
//	conn.Send(ctx, []byte("hello"))
//
// Connecting to a server:
//
//	conn, _ := endpoint.Dial(ctx, "127.0.0.1", 777)
//	conn.Send(ctx, []byte("hello"))
//	msg, _ := conn.Receive(ctx)
//
// # Package Structure
//
//   - pkg/kem: ML-KEM-1024 key encapsulation (generate, encapsulate, decapsulate)
//   - pkg/crypto: AES-256-CBC framing cipher and secure random source
//   - pkg/socket: raw TCP socket wrapper built on unix syscalls
//   - pkg/handshake: the two-role (responder/initiator) key-establishment protocol
//   - pkg/endpoint: the keyed channel — message framing, send/receive, crypto toggle
//   - pkg/mux: the event multiplexer (epoll, poll, and select backends)
//   - pkg/server: listening socket + accept loop wired to a multiplexer backend
//   - pkg/metrics: structured logging and tracing
//   - internal/constants: wire sizes and protocol constants
//   - internal/errors: sentinel errors and wrapper types
//
// # Security Properties
//
//   - Post-quantum key establishment: ML-KEM-1024 (NIST FIPS 203, Category 5)
//   - Confidentiality: AES-256-CBC with PKCS#7 padding
//   - No handshake authentication: either side can be impersonated by an
//     active on-path attacker; see pkg/handshake's package doc.
//   - No replay protection, no forward secrecy beyond one handshake per
//     connection: this library targets secrecy of a single session, not a
//     long-lived rekeying protocol.
//
// # References
//
//   - NIST FIPS 203: Module-Lattice-Based Key-Encapsulation Mechanism Standard
package pqsock

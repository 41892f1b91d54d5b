// Package errors defines the sentinel error values and wrapper types used
// across the library. Callers should compare against the sentinels with
// errors.Is rather than matching on message text.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per row of the error taxonomy.
var (
	// ErrTransportClosed indicates the peer closed the connection during a
	// read or write.
	ErrTransportClosed = errors.New("transport: connection closed by peer")

	// ErrTransportError indicates an OS-level socket failure other than a
	// clean close.
	ErrTransportError = errors.New("transport: socket error")

	// ErrHandshakeFailed indicates the key-establishment handshake did not
	// complete: a short read, a KEM size mismatch, or an RNG failure.
	ErrHandshakeFailed = errors.New("handshake: failed")

	// ErrEncryptionFailed indicates the symmetric encrypt step failed.
	ErrEncryptionFailed = errors.New("crypto: encryption failed")

	// ErrDecryptionFailed indicates the symmetric decrypt step failed,
	// including PKCS#7 unpadding failure.
	ErrDecryptionFailed = errors.New("crypto: decryption failed")

	// ErrPayloadTooLarge indicates a plaintext payload exceeds the maximum
	// message size.
	ErrPayloadTooLarge = errors.New("framer: payload exceeds maximum message size")

	// ErrBadState indicates an operation was attempted from an Endpoint
	// state that does not permit it (e.g. arming encryption before the
	// handshake completed, or any operation after close).
	ErrBadState = errors.New("endpoint: operation not valid in current state")

	// ErrUnsupportedPlatform indicates the raw socket wrapper was built for
	// a platform without a native backend.
	ErrUnsupportedPlatform = errors.New("socket: unsupported platform")
)

// CryptoError wraps a cryptographic error with the operation that produced
// it, without leaking key material into the error string.
type CryptoError struct {
	Op  string
	Err error
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}

// NewCryptoError creates a CryptoError.
func NewCryptoError(op string, err error) *CryptoError {
	return &CryptoError{Op: op, Err: err}
}

// TransportError wraps an OS-level socket or multiplexer failure with the
// operation that produced it. It chains to both ErrTransportError and the
// underlying errno, so callers can match either with errors.Is.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransportError, e.Err}
}

// NewTransportError creates a TransportError.
func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

// ProtocolError wraps an error with the handshake/framer phase in which it
// occurred.
type ProtocolError struct {
	Phase string
	Err   error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// NewProtocolError creates a ProtocolError.
func NewProtocolError(phase string, err error) *ProtocolError {
	return &ProtocolError{Phase: phase, Err: err}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

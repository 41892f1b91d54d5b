// Package crypto provides the symmetric cipher (C2) and random source (C3)
// primitives the handshake and framer build on: AES-256-CBC with PKCS#7
// padding, and a thread-safe wrapper around the OS CSPRNG.
package crypto

import (
	"crypto/rand"
	"io"

	qerrors "github.com/pqsock/pqsock/internal/errors"
)

// Reader is the process-wide cryptographically secure random source. It
// wraps crypto/rand.Reader, which is already safe for concurrent use by
// multiple Endpoints, satisfying the "random source may be process-wide but
// must be thread-safe" requirement.
var Reader = rand.Reader

// SecureRandom fills b with cryptographically secure random bytes.
func SecureRandom(b []byte) error {
	if _, err := io.ReadFull(Reader, b); err != nil {
		return qerrors.NewCryptoError("SecureRandom", err)
	}
	return nil
}

// SecureRandomBytes returns n cryptographically secure random bytes.
func SecureRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if err := SecureRandom(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Zeroize overwrites b with zeros. The Go compiler may still have left
// copies elsewhere in memory; this is best-effort hygiene, not a guarantee.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ZeroizeMultiple zeroizes each of the given slices.
func ZeroizeMultiple(slices ...[]byte) {
	for _, s := range slices {
		Zeroize(s)
	}
}

// Package kem wraps ML-KEM-1024 (NIST FIPS 203), the key-encapsulation
// mechanism used by the handshake to establish a shared secret between two
// peers. ML-KEM-1024 is the 1024-bit parameter set, providing NIST Category
// 5 (post-quantum) security.
package kem

import (
	"github.com/cloudflare/circl/kem/mlkem/mlkem1024"

	"github.com/pqsock/pqsock/internal/constants"
	qerrors "github.com/pqsock/pqsock/internal/errors"
	"github.com/pqsock/pqsock/pkg/crypto"
)

// PublicKey is an ML-KEM-1024 encapsulation key.
type PublicKey struct {
	key *mlkem1024.PublicKey
}

// PrivateKey is an ML-KEM-1024 decapsulation key.
type PrivateKey struct {
	key *mlkem1024.PrivateKey
}

// KeyPair is an ML-KEM-1024 key pair: the public key is sent to the peer,
// the private key stays local and is used to decapsulate the peer's
// ciphertext.
type KeyPair struct {
	Public  *PublicKey
	Private *PrivateKey
}

// GenerateKeyPair draws fresh randomness from the package-wide CSPRNG and
// generates a new ML-KEM-1024 key pair. Responders (role R) call this once
// per connection; the resulting public key is the first thing sent on the
// wire during the handshake.
func GenerateKeyPair() (*KeyPair, error) {
	pk, sk, err := mlkem1024.GenerateKeyPair(crypto.Reader)
	if err != nil {
		return nil, qerrors.NewCryptoError("kem.GenerateKeyPair", err)
	}
	return &KeyPair{
		Public:  &PublicKey{key: pk},
		Private: &PrivateKey{key: sk},
	}, nil
}

// Encapsulate produces a ciphertext and the shared secret it encodes, under
// the given recipient public key. Initiators (role I) call this against the
// responder's public key; the ciphertext is the second message of the
// handshake.
func Encapsulate(peer *PublicKey) (ciphertext, sharedSecret []byte, err error) {
	if peer == nil || peer.key == nil {
		return nil, nil, qerrors.NewCryptoError("kem.Encapsulate", qerrors.ErrHandshakeFailed)
	}

	ct := make([]byte, mlkem1024.CiphertextSize)
	ss := make([]byte, mlkem1024.SharedKeySize)

	seed := make([]byte, mlkem1024.EncapsulationSeedSize)
	if err := crypto.SecureRandom(seed); err != nil {
		return nil, nil, qerrors.NewCryptoError("kem.Encapsulate", err)
	}

	peer.key.EncapsulateTo(ct, ss, seed)
	return ct, ss, nil
}

// Decapsulate recovers the shared secret from a ciphertext using the
// responder's own private key. Responders (role R) call this once the
// initiator's ciphertext has arrived.
func Decapsulate(priv *PrivateKey, ciphertext []byte) ([]byte, error) {
	if priv == nil || priv.key == nil {
		return nil, qerrors.NewCryptoError("kem.Decapsulate", qerrors.ErrHandshakeFailed)
	}
	if len(ciphertext) != constants.KEMCiphertextSize {
		return nil, qerrors.NewCryptoError("kem.Decapsulate", qerrors.ErrHandshakeFailed)
	}

	ss := make([]byte, mlkem1024.SharedKeySize)
	priv.key.DecapsulateTo(ss, ciphertext)
	return ss, nil
}

// Bytes returns the wire encoding of the public key: exactly
// constants.KEMPublicKeySize bytes.
func (pk *PublicKey) Bytes() []byte {
	if pk == nil || pk.key == nil {
		return nil
	}
	buf := make([]byte, mlkem1024.PublicKeySize)
	pk.key.Pack(buf)
	return buf
}

// ParsePublicKey decodes a public key previously produced by Bytes.
func ParsePublicKey(data []byte) (*PublicKey, error) {
	if len(data) != constants.KEMPublicKeySize {
		return nil, qerrors.NewCryptoError("kem.ParsePublicKey", qerrors.ErrHandshakeFailed)
	}

	pk := new(mlkem1024.PublicKey)
	if err := pk.Unpack(data); err != nil {
		return nil, qerrors.NewCryptoError("kem.ParsePublicKey", err)
	}
	return &PublicKey{key: pk}, nil
}

// Zeroize drops the KeyPair's reference to its private key material. circl
// does not expose an in-place wipe for mlkem1024 keys, so this only clears
// our own pointers; it is still the hook callers should use so that a future
// zeroizing allocator swap only touches this one place.
func (kp *KeyPair) Zeroize() {
	if kp == nil {
		return
	}
	kp.Private = nil
	kp.Public = nil
}

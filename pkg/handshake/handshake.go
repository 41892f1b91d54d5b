// Package handshake implements the two-role key-establishment protocol
// (C5) that turns a freshly connected socket into a keyed channel: the
// responder (R) generates an ML-KEM-1024 key pair and publishes the public
// key; the initiator (I) encapsulates against it and replies with the
// ciphertext and a fresh IV. Neither side authenticates the other — see the
// handshake-authentication design note carried from the source.
package handshake

import (
	"context"
	"fmt"

	"github.com/pqsock/pqsock/internal/constants"
	qerrors "github.com/pqsock/pqsock/internal/errors"
	"github.com/pqsock/pqsock/pkg/crypto"
	"github.com/pqsock/pqsock/pkg/kem"
	"github.com/pqsock/pqsock/pkg/metrics"
	"github.com/pqsock/pqsock/pkg/socket"
)

// Result is the output of a completed handshake: the 32-byte shared secret
// both sides now hold, and the 16-byte IV chosen by the initiator.
type Result struct {
	SharedKey []byte
	IV        []byte
}

// fail wraps any handshake-phase failure so errors.Is(err, ErrHandshakeFailed)
// holds regardless of the underlying cause (short read, KEM size mismatch,
// RNG failure), per the error taxonomy.
func fail(phase string, cause error) error {
	return qerrors.NewProtocolError(phase, fmt.Errorf("%w: %v", qerrors.ErrHandshakeFailed, cause))
}

// RunResponder executes the R side of the handshake over an already
// connected socket handle: generate a key pair, send the public key, receive
// the initiator's ciphertext, decapsulate, then receive the IV. In this
// library the connecting client always takes the R role.
func RunResponder(ctx context.Context, h socket.Handle) (*Result, error) {
	_, end := metrics.StartSpan(ctx, metrics.SpanHandshakeResponder)
	var err error
	defer func() { end(err) }()

	keyPair, kerr := kem.GenerateKeyPair()
	if kerr != nil {
		err = fail("handshake.responder.keygen", kerr)
		return nil, err
	}

	if err = socket.SendExact(h, keyPair.Public.Bytes()); err != nil {
		err = fail("handshake.responder.send-public-key", err)
		return nil, err
	}

	ciphertext, rerr := socket.RecvExact(h, constants.KEMCiphertextSize)
	if rerr != nil {
		err = fail("handshake.responder.recv-ciphertext", rerr)
		return nil, err
	}

	sharedKey, derr := kem.Decapsulate(keyPair.Private, ciphertext)
	if derr != nil {
		err = fail("handshake.responder.decapsulate", derr)
		return nil, err
	}

	iv, ierr := socket.RecvExact(h, constants.IVSize)
	if ierr != nil {
		err = fail("handshake.responder.recv-iv", ierr)
		return nil, err
	}

	return &Result{SharedKey: sharedKey, IV: iv}, nil
}

// RunInitiator executes the I side of the handshake: receive the
// responder's public key, encapsulate against it, send the ciphertext, then
// draw and send a fresh IV. In this library the listening server, acting as
// connection acceptor, always takes the I role.
func RunInitiator(ctx context.Context, h socket.Handle) (*Result, error) {
	_, end := metrics.StartSpan(ctx, metrics.SpanHandshakeInitiator)
	var err error
	defer func() { end(err) }()

	publicKeyBytes, rerr := socket.RecvExact(h, constants.KEMPublicKeySize)
	if rerr != nil {
		err = fail("handshake.initiator.recv-public-key", rerr)
		return nil, err
	}

	publicKey, perr := kem.ParsePublicKey(publicKeyBytes)
	if perr != nil {
		err = fail("handshake.initiator.parse-public-key", perr)
		return nil, err
	}

	ciphertext, sharedKey, eerr := kem.Encapsulate(publicKey)
	if eerr != nil {
		err = fail("handshake.initiator.encapsulate", eerr)
		return nil, err
	}

	if err = socket.SendExact(h, ciphertext); err != nil {
		err = fail("handshake.initiator.send-ciphertext", err)
		return nil, err
	}

	iv, ierr := crypto.SecureRandomBytes(constants.IVSize)
	if ierr != nil {
		err = fail("handshake.initiator.generate-iv", ierr)
		return nil, err
	}

	if err = socket.SendExact(h, iv); err != nil {
		err = fail("handshake.initiator.send-iv", err)
		return nil, err
	}

	return &Result{SharedKey: sharedKey, IV: iv}, nil
}

// Package constants defines the fixed sizes and sentinel values that the rest
// of the library treats as given: KEM object sizes, cipher block/key sizes,
// the handshake transcript layout, and the reserved multiplexer sentinels.
package constants

// Protocol identification string. No package of the library emits it, and
// there is no on-wire version negotiation (see Non-goals).
const (
	ProtocolName = "pqsock-v1"
)

// ML-KEM-1024 parameters (NIST FIPS 203). These match circl's mlkem1024
// constants exactly and are duplicated here so callers outside pkg/kem don't
// need to import circl just to size buffers.
const (
	KEMPublicKeySize    = 1568
	KEMPrivateKeySize   = 3168
	KEMCiphertextSize   = 1568
	KEMSharedSecretSize = 32
)

// Symmetric cipher parameters (AES-256-CBC).
const (
	CipherKeySize   = 32 // AES-256 key size, equal to KEMSharedSecretSize by construction
	CipherBlockSize = 16 // AES block size; also the IV size
	IVSize          = CipherBlockSize
)

// Message size limits, carried over from the fixed 500-byte symmetric buffer
// in the source implementation.
const (
	MaxPlaintextSize  = 500
	MaxCiphertextSize = ((MaxPlaintextSize / CipherBlockSize) + 1) * CipherBlockSize // 512
	LengthPrefixSize  = 4
)

// Reserved sentinels returned by library operations.
const (
	ConnAttempt = -100
	SocketError = -1
)

// BitmapPollTimeoutSeconds is the B2 (select-based) backend's internal wait
// granularity; it loops on this timeout so a shutdown flag can be observed
// between waits even though select offers no cancellation primitive.
const BitmapPollTimeoutSeconds = 3

package crypto

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/pqsock/pqsock/internal/constants"
	qerrors "github.com/pqsock/pqsock/internal/errors"
)

// State is the symmetric cipher context (C2) bound to an Endpoint once the
// handshake completes: a 256-bit key, a 16-byte IV, and the two CBC block
// modes derived from them. It mirrors the source's single EVP_CIPHER_CTX
// pair in spirit: encryption and decryption each keep their own chaining
// state, carried across successive Encrypt/Decrypt calls exactly the way a
// reused (never-re-initialized) EVP context would, so messages sent later in
// the connection chain from the ciphertext of earlier ones.
type State struct {
	key []byte
	iv  []byte

	encBlock cipher.BlockMode
	decBlock cipher.BlockMode
}

// NewState builds a CBC context from the shared secret and IV established by
// the handshake. key must be constants.CipherKeySize bytes; iv must be
// constants.IVSize bytes.
func NewState(key, iv []byte) (*State, error) {
	if len(key) != constants.CipherKeySize {
		return nil, qerrors.NewCryptoError("crypto.NewState", qerrors.ErrHandshakeFailed)
	}
	if len(iv) != constants.IVSize {
		return nil, qerrors.NewCryptoError("crypto.NewState", qerrors.ErrHandshakeFailed)
	}

	encBlock, err := newCBCEncrypter(key, iv)
	if err != nil {
		return nil, err
	}
	decBlock, err := newCBCDecrypter(key, iv)
	if err != nil {
		return nil, err
	}

	return &State{
		key:      key,
		iv:       iv,
		encBlock: encBlock,
		decBlock: decBlock,
	}, nil
}

func newCBCEncrypter(key, iv []byte) (cipher.BlockMode, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, qerrors.NewCryptoError("crypto.newCBCEncrypter", err)
	}
	return cipher.NewCBCEncrypter(block, iv), nil
}

func newCBCDecrypter(key, iv []byte) (cipher.BlockMode, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, qerrors.NewCryptoError("crypto.newCBCDecrypter", err)
	}
	return cipher.NewCBCDecrypter(block, iv), nil
}

// Encrypt feeds plaintext through the encrypt context: pad then transform,
// the Go analogue of EVP_EncryptUpdate followed by EVP_EncryptFinal_ex. The
// result is always a positive multiple of the block size.
func (s *State) Encrypt(plaintext []byte) ([]byte, error) {
	if len(plaintext) > constants.MaxPlaintextSize {
		return nil, qerrors.ErrPayloadTooLarge
	}

	padded := pkcs7Pad(plaintext, constants.CipherBlockSize)
	ciphertext := make([]byte, len(padded))
	s.encBlock.CryptBlocks(ciphertext, padded)
	return ciphertext, nil
}

// Decrypt feeds ciphertext through the decrypt context: transform then
// unpad, the analogue of EVP_DecryptUpdate followed by EVP_DecryptFinal_ex.
func (s *State) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%constants.CipherBlockSize != 0 {
		return nil, qerrors.ErrDecryptionFailed
	}

	plaintext := make([]byte, len(ciphertext))
	s.decBlock.CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, constants.CipherBlockSize)
	if err != nil {
		return nil, qerrors.NewCryptoError("crypto.Decrypt", qerrors.ErrDecryptionFailed)
	}
	return unpadded, nil
}

// Zeroize wipes the key and IV. Call once the owning Endpoint is destroyed.
func (s *State) Zeroize() {
	if s == nil {
		return
	}
	Zeroize(s.key)
	Zeroize(s.iv)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, qerrors.ErrDecryptionFailed
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, qerrors.ErrDecryptionFailed
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, qerrors.ErrDecryptionFailed
		}
	}
	return data[:len(data)-padLen], nil
}

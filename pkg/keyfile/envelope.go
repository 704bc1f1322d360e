// Package keyfile implements the C4 key-file envelope: the plaintext
// line formats for both cipher schemes, the scheme-compatibility gate,
// and the AES-GCM+PBKDF2 authenticated seal around the whole file.
package keyfile

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/pixelguard/videocrypt/pkg/vcerr"
)

// Envelope constants, per spec: weak by modern KDF standards (100
// iterations) but fixed for backward compatibility with existing sealed
// key files — see DESIGN.md O3. New seals may raise Iterations; existing
// files sealed at the default must still open with it.
const (
	DefaultKDFIterations = 100
	AlgorithmKeySize     = 16 // AES-128
	AlgorithmNonceSize   = 12
	AlgorithmTagSize     = 16
	PBKDF2SaltSize       = 16
)

// Envelope seals and opens the plaintext key file under a
// password-derived AES-128-GCM key.
type Envelope struct {
	// Iterations is the PBKDF2 iteration count used for new seals.
	// Opening an existing envelope always uses whatever iteration count
	// the caller supplies — the count is not stored in the envelope, so
	// the caller is responsible for knowing which count sealed a given
	// file (the default unless explicitly configured otherwise).
	Iterations int
}

// NewEnvelope returns an Envelope using iterations, or DefaultKDFIterations
// if iterations <= 0.
func NewEnvelope(iterations int) *Envelope {
	if iterations <= 0 {
		iterations = DefaultKDFIterations
	}
	return &Envelope{Iterations: iterations}
}

func (e *Envelope) deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, e.Iterations, AlgorithmKeySize, sha256.New)
}

// Seal encrypts plaintext under password and returns the base64 envelope
// string: base64(salt || nonce || ciphertext || tag).
func (e *Envelope) Seal(plaintext []byte, password string) (string, error) {
	salt := make([]byte, PBKDF2SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%w: generating salt: %v", vcerr.ErrKeyFileIO, err)
	}

	key := e.deriveKey(password, salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("%w: building cipher: %v", vcerr.ErrKeyFileIO, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("%w: building GCM: %v", vcerr.ErrKeyFileIO, err)
	}

	nonce := make([]byte, AlgorithmNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("%w: generating nonce: %v", vcerr.ErrKeyFileIO, err)
	}

	// gcm.Seal appends the 16-byte tag to the ciphertext, which is
	// exactly the ciphertext||tag layout the envelope format requires.
	sealed := gcm.Seal(nil, nonce, plaintext, nil)

	blob := make([]byte, 0, len(salt)+len(nonce)+len(sealed))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, sealed...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Open decrypts a sealed envelope and returns the plaintext key file
// content. Tag verification failure (wrong password or tampering) is
// reported as vcerr.ErrWrongPasswordOrTampered, as is an envelope too
// short to hold salt, nonce and tag. Invalid base64 and cipher setup
// failures are reported as vcerr.ErrKeyFileIO.
func (e *Envelope) Open(sealed string, password string) ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 envelope: %v", vcerr.ErrKeyFileIO, err)
	}

	minLen := PBKDF2SaltSize + AlgorithmNonceSize + AlgorithmTagSize
	if len(blob) < minLen {
		return nil, fmt.Errorf("%w: envelope too short (%d bytes, need at least %d)", vcerr.ErrWrongPasswordOrTampered, len(blob), minLen)
	}

	salt := blob[:PBKDF2SaltSize]
	nonce := blob[PBKDF2SaltSize : PBKDF2SaltSize+AlgorithmNonceSize]
	ciphertext := blob[PBKDF2SaltSize+AlgorithmNonceSize:]

	key := e.deriveKey(password, salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: building cipher: %v", vcerr.ErrKeyFileIO, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: building GCM: %v", vcerr.ErrKeyFileIO, err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: tag verification failed", vcerr.ErrWrongPasswordOrTampered)
	}

	return plaintext, nil
}

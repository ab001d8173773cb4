// Package secure implements the credential-protection core: authenticated
// encryption of stored secrets and one-way hashing of login passwords.
package secure

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/atinyakov/PassKeeper/internal/apperr"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32
	// NonceSize is the GCM nonce length in bytes.
	NonceSize = 12
	// TagSize is the GCM authentication tag length in bytes.
	TagSize = 16
)

var (
	errMalformed = errors.New("malformed blob")
	// errOpen covers both a bad tag and a wrong key.
	errOpen = errors.New("tampered or wrong key")
)

// Seal encrypts plaintext with AES-256-GCM under key and returns
// base64(nonce ‖ ciphertext ‖ tag). A fresh random nonce is drawn per call.
func Seal(plaintext string, key []byte) (string, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return "", apperr.E(apperr.ErrCrypto, "secure.Seal", err)
	}
	return seal(aead, rand.Reader, plaintext)
}

// Open reverses Seal. It fails with a crypto error when the blob is
// malformed or does not authenticate under key.
func Open(blob string, key []byte) (string, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return "", apperr.E(apperr.ErrCrypto, "secure.Open", err)
	}
	return open(aead, blob)
}

// Cipher seals and opens secrets with a key resolved once from a
// KeyProvider. It holds no mutable state and is safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
	rand io.Reader
}

// NewCipher resolves the key from kp and prepares the AEAD.
func NewCipher(kp KeyProvider) (*Cipher, error) {
	key, err := kp.Key()
	if err != nil {
		return nil, apperr.E(apperr.ErrCrypto, "secure.NewCipher", err)
	}
	aead, err := newAEAD(key)
	if err != nil {
		return nil, apperr.E(apperr.ErrCrypto, "secure.NewCipher", err)
	}
	return &Cipher{aead: aead, rand: rand.Reader}, nil
}

// Seal encrypts plaintext. See the package-level Seal for the format.
func (c *Cipher) Seal(plaintext string) (string, error) {
	return seal(c.aead, c.rand, plaintext)
}

// Open decrypts a blob produced by Seal.
func (c *Cipher) Open(blob string) (string, error) {
	return open(c.aead, blob)
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create AEAD: %w", err)
	}
	return aead, nil
}

func seal(aead cipher.AEAD, r io.Reader, plaintext string) (string, error) {
	nonce := make([]byte, NonceSize, NonceSize+len(plaintext)+TagSize)
	if _, err := io.ReadFull(r, nonce); err != nil {
		return "", apperr.E(apperr.ErrCrypto, "secure.Seal", fmt.Errorf("generate nonce: %w", err))
	}
	out := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

func open(aead cipher.AEAD, blob string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil || len(data) < NonceSize {
		return "", apperr.E(apperr.ErrCrypto, "secure.Open", errMalformed)
	}
	plain, err := aead.Open(nil, data[:NonceSize], data[NonceSize:], nil)
	if err != nil || !utf8.Valid(plain) {
		return "", apperr.E(apperr.ErrCrypto, "secure.Open", errOpen)
	}
	return string(plain), nil
}

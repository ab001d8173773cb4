package secure

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
)

// KeyProvider supplies the 256-bit key used to seal secrets.
type KeyProvider interface {
	Key() ([]byte, error)
}

// StaticKey is an in-memory key. Intended for tests and local runs.
type StaticKey []byte

// Key returns a copy of the key.
func (k StaticKey) Key() ([]byte, error) {
	if len(k) != KeySize {
		return nil, fmt.Errorf("static key must be %d bytes, got %d", KeySize, len(k))
	}
	return append([]byte(nil), k...), nil
}

// Base64Key is a standard-base64 encoded key, typically taken from the
// environment or the config file.
type Base64Key string

// Key decodes the key.
func (k Base64Key) Key() ([]byte, error) {
	return decodeKey(string(k))
}

// FileKey is the path of a file holding a base64 encoded key.
type FileKey string

// Key reads and decodes the key file.
func (k FileKey) Key() ([]byte, error) {
	data, err := os.ReadFile(string(k))
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return decodeKey(string(data))
}

// GenerateKey returns a fresh random key encoded with standard base64.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}
	return key, nil
}

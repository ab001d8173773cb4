package secure

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/atinyakov/PassKeeper/internal/apperr"
	"golang.org/x/crypto/argon2"
)

const argonID = "argon2id"

// HashParams are the Argon2id cost parameters embedded in every hash.
type HashParams struct {
	// Memory in KiB.
	Memory uint32
	// Iterations over the memory.
	Iterations uint32
	// Parallelism is the number of lanes.
	Parallelism uint8
	// SaltLength in bytes.
	SaltLength uint32
	// KeyLength is the digest length in bytes.
	KeyLength uint32
}

// DefaultHashParams match the argon2 crate defaults, so hashes written by
// earlier deployments keep verifying.
var DefaultHashParams = HashParams{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Hasher produces and verifies PHC-formatted Argon2id hashes:
//
//	$argon2id$v=19$m=19456,t=2,p=1$<salt>$<digest>
//
// Salt and digest use unpadded standard base64.
type Hasher struct {
	params HashParams
	rand   io.Reader
}

// NewHasher returns a Hasher using p.
func NewHasher(p HashParams) *Hasher {
	return &Hasher{params: p, rand: rand.Reader}
}

// Hash derives a salted hash of secret. Every call draws a new salt, so
// hashing the same secret twice yields different strings.
func (h *Hasher) Hash(secret string) (string, error) {
	const op = "secure.Hash"
	p := h.params
	if err := p.validate(); err != nil {
		return "", apperr.E(apperr.ErrHash, op, err)
	}

	salt := make([]byte, p.SaltLength)
	if _, err := io.ReadFull(h.rand, salt); err != nil {
		return "", apperr.E(apperr.ErrHash, op, fmt.Errorf("generate salt: %w", err))
	}

	digest := argon2.IDKey([]byte(secret), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argonID, argon2.Version, p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	), nil
}

// Verify reports whether secret matches encoded. The digest comparison is
// constant-time. A structurally invalid encoded value yields a hash error;
// callers must treat it as rejected credentials.
func (h *Hasher) Verify(secret, encoded string) (bool, error) {
	p, salt, digest, err := decodeHash(encoded)
	if err != nil {
		return false, apperr.E(apperr.ErrHash, "secure.Verify", err)
	}
	other := argon2.IDKey([]byte(secret), salt, p.Iterations, p.Memory, p.Parallelism, uint32(len(digest)))
	return subtle.ConstantTimeCompare(digest, other) == 1, nil
}

// Limits on parameters accepted from configuration or a stored hash.
// Costs read from a stored hash are checked before any memory is allocated.
const (
	maxMemory      = 1 << 20 // KiB, 1 GiB
	maxIterations  = 64
	maxParallelism = 16
	minSaltLength  = 8
	maxSaltLength  = 64
	minKeyLength   = 16
	maxKeyLength   = 64
)

func (p HashParams) validate() error {
	switch {
	case p.Memory == 0 || p.Memory > maxMemory:
		return fmt.Errorf("memory cost %d out of range", p.Memory)
	case p.Iterations == 0 || p.Iterations > maxIterations:
		return fmt.Errorf("time cost %d out of range", p.Iterations)
	case p.Parallelism == 0 || p.Parallelism > maxParallelism:
		return fmt.Errorf("parallelism %d out of range", p.Parallelism)
	case p.SaltLength < minSaltLength || p.SaltLength > maxSaltLength:
		return fmt.Errorf("salt length %d out of range", p.SaltLength)
	case p.KeyLength < minKeyLength || p.KeyLength > maxKeyLength:
		return fmt.Errorf("key length %d out of range", p.KeyLength)
	}
	return nil
}

func decodeHash(encoded string) (HashParams, []byte, []byte, error) {
	var p HashParams

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return p, nil, nil, errors.New("invalid hash format")
	}
	if parts[1] != argonID {
		return p, nil, nil, fmt.Errorf("unsupported algorithm %q", parts[1])
	}

	version, err := field(parts[2], "v=", 32)
	if err != nil {
		return p, nil, nil, fmt.Errorf("parse version: %w", err)
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	costs := strings.Split(parts[3], ",")
	if len(costs) != 3 {
		return p, nil, nil, errors.New("invalid argon2 parameters")
	}
	m, err := field(costs[0], "m=", 32)
	if err != nil {
		return p, nil, nil, fmt.Errorf("parse memory: %w", err)
	}
	t, err := field(costs[1], "t=", 32)
	if err != nil {
		return p, nil, nil, fmt.Errorf("parse time: %w", err)
	}
	par, err := field(costs[2], "p=", 8)
	if err != nil {
		return p, nil, nil, fmt.Errorf("parse parallelism: %w", err)
	}
	p.Memory, p.Iterations, p.Parallelism = uint32(m), uint32(t), uint8(par)

	salt, err := base64.RawStdEncoding.Strict().DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, errors.New("invalid salt")
	}
	digest, err := base64.RawStdEncoding.Strict().DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, errors.New("invalid digest")
	}
	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(digest))

	if err := p.validate(); err != nil {
		return p, nil, nil, err
	}
	return p, salt, digest, nil
}

// field parses "<prefix><decimal>" with nothing before or after.
func field(s, prefix string, bits int) (uint64, error) {
	num, ok := strings.CutPrefix(s, prefix)
	if !ok {
		return 0, fmt.Errorf("expected %q prefix in %q", prefix, s)
	}
	return strconv.ParseUint(num, 10, bits)
}

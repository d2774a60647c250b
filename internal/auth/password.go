package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	hashAlgorithm     = "pbkdf2-sha256"
	defaultIterations = 120000
	minIterations     = 10000
	saltLength        = 16
	keyLength         = 32
)

// Hasher derives storable password hashes with PBKDF2-SHA256. Each call
// to Hash draws a fresh random salt, so hashing the same password twice
// yields different records.
type Hasher struct {
	iterations int
}

func NewHasher() *Hasher {
	return &Hasher{iterations: defaultIterations}
}

func NewHasherWithIterations(iterations int) (*Hasher, error) {
	if iterations < minIterations {
		return nil, fmt.Errorf("iterations must be >= %d", minIterations)
	}
	return &Hasher{iterations: iterations}, nil
}

func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, h.iterations, keyLength, sha256.New)

	return fmt.Sprintf("%s$%d$%s$%s",
		hashAlgorithm,
		h.iterations,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the derived key with the salt and iteration count
// embedded in the stored record and compares in constant time. A record
// that cannot be parsed yields ErrCorruptCredential.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 4 || parts[0] != hashAlgorithm {
		return false, ErrCorruptCredential
	}

	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations < minIterations {
		return false, ErrCorruptCredential
	}
	salt, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil || len(salt) < saltLength {
		return false, ErrCorruptCredential
	}
	want, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil || len(want) == 0 {
		return false, ErrCorruptCredential
	}

	got := pbkdf2.Key([]byte(password), salt, iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

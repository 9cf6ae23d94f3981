package hashing

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/ericfisherdev/gatekeep/internal/domain/port/driven"
)

var _ driven.Hasher = Bcrypt{}

// bcryptMaxInput is the longest input bcrypt accepts.
const bcryptMaxInput = 72

// Bcrypt hashes secrets with bcrypt. bcrypt generates and embeds its own salt,
// so a caller-supplied salt is ignored. Secrets longer than bcrypt's 72-byte
// limit are first reduced to base64(sha256(secret)), which keeps every byte
// significant; shorter secrets go in unchanged.
type Bcrypt struct {
	Cost int
}

// NewBcrypt returns a Bcrypt hasher using bcrypt.DefaultCost.
func NewBcrypt() Bcrypt {
	return Bcrypt{Cost: bcrypt.DefaultCost}
}

// Name implements driven.Hasher.
func (Bcrypt) Name() string { return "bcrypt" }

// Hash implements driven.Hasher.
func (b Bcrypt) Hash(secret string, _ []byte) (string, error) {
	out, err := bcrypt.GenerateFromPassword(bcryptInput(secret), b.Cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(out), nil
}

// Verify implements driven.Hasher.
func (Bcrypt) Verify(secret, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), bcryptInput(secret))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("bcrypt verify: %w", err)
	}
}

func bcryptInput(secret string) []byte {
	if len(secret) <= bcryptMaxInput {
		return []byte(secret)
	}
	sum := sha256.Sum256([]byte(secret))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

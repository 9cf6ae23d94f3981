package hashing

import (
	"fmt"
	"strings"

	"github.com/ericfisherdev/gatekeep/internal/domain/port/driven"
)

var _ driven.Hasher = (*Chain)(nil)

// Chain hashes with a primary scheme and verifies with whichever known scheme
// produced the stored digest. Switching the primary scheme therefore leaves
// existing accounts able to log in.
type Chain struct {
	primary  driven.Hasher
	argon2id driven.Hasher
	bcrypt   driven.Hasher
	sha256   driven.Hasher
}

// New returns a Chain whose primary scheme is selected by name
// ("sha256", "argon2id" or "bcrypt").
func New(scheme string) (*Chain, error) {
	c := &Chain{
		argon2id: NewArgon2id(),
		bcrypt:   NewBcrypt(),
		sha256:   SHA256{},
	}

	switch scheme {
	case "", "sha256":
		c.primary = c.sha256
	case "argon2id":
		c.primary = c.argon2id
	case "bcrypt":
		c.primary = c.bcrypt
	default:
		return nil, fmt.Errorf("unknown hasher %q", scheme)
	}

	return c, nil
}

// Name implements driven.Hasher and reports the primary scheme.
func (c *Chain) Name() string { return c.primary.Name() }

// Hash implements driven.Hasher using the primary scheme.
func (c *Chain) Hash(secret string, salt []byte) (string, error) {
	return c.primary.Hash(secret, salt)
}

// Verify implements driven.Hasher, dispatching on the digest format.
func (c *Chain) Verify(secret, digest string) (bool, error) {
	return c.schemeFor(digest).Verify(secret, digest)
}

func (c *Chain) schemeFor(digest string) driven.Hasher {
	switch {
	case strings.HasPrefix(digest, argon2idPrefix):
		return c.argon2id
	case strings.HasPrefix(digest, "$2a$"),
		strings.HasPrefix(digest, "$2b$"),
		strings.HasPrefix(digest, "$2y$"):
		return c.bcrypt
	default:
		return c.sha256
	}
}

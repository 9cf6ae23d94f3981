// Package driven defines secondary port interfaces for external adapters.
package driven

// Hasher turns a plaintext secret into a one-way digest. Implementations
// without salting must be deterministic so that re-hashing a supplied secret
// reproduces the stored digest.
type Hasher interface {
	// Hash returns the digest of secret. A nil salt asks the implementation
	// to use its default (none for deterministic schemes, random otherwise).
	Hash(secret string, salt []byte) (string, error)

	// Verify reports whether secret produces digest. A digest in a format the
	// implementation does not understand returns an error.
	Verify(secret, digest string) (bool, error)

	// Name identifies the scheme, e.g. "sha256" or "argon2id".
	Name() string
}

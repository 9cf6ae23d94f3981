// Package hashing provides the credential digest schemes behind the
// driven.Hasher port.
package hashing

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/ericfisherdev/gatekeep/internal/domain/port/driven"
)

var _ driven.Hasher = SHA256{}

// sha256Prefix marks a salted SHA-256 digest: sha256$<salt>$<sum>.
const sha256Prefix = "sha256$"

// SHA256 is the legacy digest: base64(sha256(secret)) with standard padding.
// Unsalted digests are deterministic and compatible with existing accounts.
type SHA256 struct{}

// Name implements driven.Hasher.
func (SHA256) Name() string { return "sha256" }

// Hash implements driven.Hasher. A nil or empty salt yields the bare legacy
// digest.
func (SHA256) Hash(secret string, salt []byte) (string, error) {
	if len(salt) == 0 {
		return sha256Digest(nil, secret), nil
	}
	return sha256Prefix + base64.StdEncoding.EncodeToString(salt) + "$" + sha256Digest(salt, secret), nil
}

// Verify implements driven.Hasher.
func (SHA256) Verify(secret, digest string) (bool, error) {
	var salt []byte
	want := digest

	if strings.HasPrefix(digest, sha256Prefix) {
		parts := strings.Split(strings.TrimPrefix(digest, sha256Prefix), "$")
		if len(parts) != 2 {
			return false, fmt.Errorf("invalid salted sha256 digest")
		}
		var err error
		salt, err = base64.StdEncoding.DecodeString(parts[0])
		if err != nil {
			return false, fmt.Errorf("decoding sha256 salt: %w", err)
		}
		want = parts[1]
	}

	got := sha256Digest(salt, secret)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1, nil
}

func sha256Digest(salt []byte, secret string) string {
	h := sha256.New()
	h.Write(salt)
	h.Write([]byte(secret))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

package driven

import (
	"context"
	"time"

	"github.com/ericfisherdev/gatekeep/internal/domain/model"
)

// TokenStore is the durable ledger of issued bearer tokens. It is the
// authority on revocation: a token absent from the store is not valid no
// matter what its signature says.
type TokenStore interface {
	Record(ctx context.Context, token model.IssuedToken) error

	// Get returns (nil, nil) when the token value is not in the ledger.
	Get(ctx context.Context, value string) (*model.IssuedToken, error)

	// IsValid reports whether the token is in the ledger and not yet expired.
	IsValid(ctx context.Context, value string) (bool, error)

	// Revoke removes the token. Revoking an unknown token is not an error.
	Revoke(ctx context.Context, value string) error

	// ListBySubject returns every ledger entry for a user, newest first.
	ListBySubject(ctx context.Context, userID string) ([]model.IssuedToken, error)

	// DeleteExpired removes entries that expired at or before the cutoff and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

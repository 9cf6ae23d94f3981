package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ericfisherdev/gatekeep/internal/domain/model"
	"github.com/ericfisherdev/gatekeep/internal/domain/port/driven"
)

// TokenSettings is the immutable signing configuration of a TokenService.
type TokenSettings struct {
	SigningKey []byte
	Issuer     string
	Audience   string
	TTL        time.Duration
}

// sessionClaims is the signed payload of a bearer token.
type sessionClaims struct {
	jwt.RegisteredClaims
	Username string `json:"name"`
	Email    string `json:"email"`
	RoleID   int64  `json:"role"`
}

// TokenService issues HS256 bearer tokens, records them in the token ledger,
// and verifies presented tokens against both the signature and the ledger.
type TokenService struct {
	settings TokenSettings
	store    driven.TokenStore
	now      func() time.Time
}

// NewTokenService creates a TokenService. The signing key is copied so later
// changes to the caller's slice cannot affect verification.
func NewTokenService(settings TokenSettings, store driven.TokenStore) (*TokenService, error) {
	if len(settings.SigningKey) == 0 {
		return nil, errors.New("token signing key is required")
	}
	if settings.TTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", settings.TTL)
	}

	key := make([]byte, len(settings.SigningKey))
	copy(key, settings.SigningKey)
	settings.SigningKey = key

	return &TokenService{
		settings: settings,
		store:    store,
		now:      time.Now,
	}, nil
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration { return s.settings.TTL }

// Issue signs a token for user and records it in the ledger with the same
// validity window. issuedAt is truncated to whole seconds to match the
// precision of the JWT time claims.
func (s *TokenService) Issue(ctx context.Context, user model.UserAccount, sourceIP string) (model.IssuedToken, error) {
	issuedAt := s.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(s.settings.TTL)
	tokenID := uuid.NewString()

	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   user.ID,
			Issuer:    s.settings.Issuer,
			Audience:  jwt.ClaimStrings{s.settings.Audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username: user.Username,
		Email:    user.Email,
		RoleID:   user.RoleID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.settings.SigningKey)
	if err != nil {
		return model.IssuedToken{}, fmt.Errorf("signing token: %w", err)
	}

	issued := model.IssuedToken{
		ID:            tokenID,
		Value:         signed,
		SubjectUserID: user.ID,
		SourceIP:      sourceIP,
		IssuedAt:      issuedAt,
		ExpiresAt:     expiresAt,
	}

	if err := s.store.Record(ctx, issued); err != nil {
		return model.IssuedToken{}, fmt.Errorf("recording token: %w", err)
	}

	return issued, nil
}

// VerifySignature checks only the cryptographic envelope: HS256 signature,
// issuer, audience, and now < exp with no clock-skew allowance. It does not
// consult the ledger, so a revoked token still passes until it expires.
// Every failure is reported as model.ErrInvalidToken.
func (s *TokenService) VerifySignature(token string) (*model.TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(_ *jwt.Token) (any, error) {
		return s.settings.SigningKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.settings.Issuer),
		jwt.WithAudience(s.settings.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(0),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return nil, model.ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", model.ErrInvalidToken)
	}

	return toTokenClaims(claims), nil
}

// IsValid is the ledger-only check: the token is recorded and not expired.
func (s *TokenService) IsValid(ctx context.Context, token string) (bool, error) {
	ok, err := s.store.IsValid(ctx, token)
	if err != nil {
		return false, fmt.Errorf("checking token ledger: %w", err)
	}
	return ok, nil
}

// Verify is the check used to authorize requests. The signature must verify
// and the ledger must hold an unexpired entry for the same subject.
func (s *TokenService) Verify(ctx context.Context, token string) (*model.TokenClaims, error) {
	claims, err := s.VerifySignature(token)
	if err != nil {
		return nil, err
	}

	record, err := s.store.Get(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("checking token ledger: %w", err)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: not in ledger", model.ErrInvalidToken)
	}
	if !s.now().Before(record.ExpiresAt) {
		return nil, fmt.Errorf("%w: ledger entry expired", model.ErrInvalidToken)
	}
	if record.SubjectUserID != claims.UserID {
		return nil, fmt.Errorf("%w: subject mismatch", model.ErrInvalidToken)
	}

	return claims, nil
}

// Revoke removes the token from the ledger. Unknown tokens are ignored.
func (s *TokenService) Revoke(ctx context.Context, token string) error {
	if err := s.store.Revoke(ctx, token); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}

// ListForSubject returns the ledger entries of a user, newest first.
func (s *TokenService) ListForSubject(ctx context.Context, userID string) ([]model.IssuedToken, error) {
	tokens, err := s.store.ListBySubject(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing tokens: %w", err)
	}
	return tokens, nil
}

// PruneExpired deletes ledger entries that have already expired.
func (s *TokenService) PruneExpired(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("pruning tokens: %w", err)
	}
	return n, nil
}

func toTokenClaims(c *sessionClaims) *model.TokenClaims {
	out := &model.TokenClaims{
		TokenID:  c.ID,
		UserID:   c.Subject,
		Username: c.Username,
		Email:    c.Email,
		RoleID:   c.RoleID,
		Issuer:   c.Issuer,
		Audience: []string(c.Audience),
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.UTC()
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.UTC()
	}
	return out
}

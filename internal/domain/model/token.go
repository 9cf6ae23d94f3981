package model

import "time"

// IssuedToken is the persisted ledger entry for a signed bearer token.
// ID doubles as the token's "jti" claim.
type IssuedToken struct {
	ID            string
	Value         string
	SubjectUserID string
	SourceIP      string
	IssuedAt      time.Time
	ExpiresAt     time.Time
}

// TokenClaims is the identity carried by a verified bearer token.
type TokenClaims struct {
	TokenID   string
	UserID    string
	Username  string
	Email     string
	RoleID    int64
	Issuer    string
	Audience  []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Session is the result of a successful login.
type Session struct {
	Profile   UserProfile
	Token     string
	ExpiresAt time.Time
}

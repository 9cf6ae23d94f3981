// Package model holds the domain entities and error taxonomy of gatekeep.
package model

import "errors"

// Sentinel errors shared by the application services and the driving adapters.
// Storage and crypto failures are not listed here; anything that does not wrap
// one of these is treated as an internal failure.
var (
	ErrUnauthorizedAccess = errors.New("unauthorized access")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrNoChanges          = errors.New("no changes")
	ErrNotFound           = errors.New("not found")

	// ErrInvalidRole indicates a registration referenced a missing or inactive role.
	ErrInvalidRole = errors.New("invalid role")

	// ErrUnknownCustomer indicates a post referenced a customer that does not exist.
	ErrUnknownCustomer = errors.New("customer does not exist")
)

// ErrorKind is the machine-readable classification of an error.
type ErrorKind string

const (
	KindUnauthorizedAccess ErrorKind = "unauthorized_access"
	KindInvalidToken       ErrorKind = "invalid_token"
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindDuplicateUsername  ErrorKind = "duplicate_username"
	KindDuplicateEmail     ErrorKind = "duplicate_email"
	KindNoChanges          ErrorKind = "no_changes"
	KindNotFound           ErrorKind = "not_found"
	KindInvalidRequest     ErrorKind = "invalid_request"
	KindInternal           ErrorKind = "internal"
)

var errorKinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrUnauthorizedAccess, KindUnauthorizedAccess},
	{ErrInvalidToken, KindInvalidToken},
	{ErrInvalidCredentials, KindInvalidCredentials},
	{ErrDuplicateUsername, KindDuplicateUsername},
	{ErrDuplicateEmail, KindDuplicateEmail},
	{ErrNoChanges, KindNoChanges},
	{ErrNotFound, KindNotFound},
	{ErrInvalidRole, KindInvalidRequest},
	{ErrUnknownCustomer, KindInvalidRequest},
}

// KindOf classifies err. A nil error has no kind; any error that does not wrap
// a known sentinel is KindInternal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

package model

import "time"

// SiteCredential is the site-level API key that a deployment presents on
// every request. Secret holds the plaintext value at the domain boundary; the
// storage adapter keeps it encrypted at rest.
type SiteCredential struct {
	ID        int64
	SiteID    string
	Secret    string
	Active    bool
	CreatedAt time.Time
}

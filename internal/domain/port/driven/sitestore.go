package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/gatekeep/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by SiteCredentialStore operations when
// the adapter was built without a secret key.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set GATEKEEP_SECRET_KEY")

// ErrSiteAlreadyExists indicates a site with the same id is already provisioned.
var ErrSiteAlreadyExists = errors.New("site already exists")

// SiteCredentialStore defines the driven port for site API keys. Secrets cross
// this boundary in plaintext; the adapter is responsible for protecting them
// at rest.
type SiteCredentialStore interface {
	// GetBySiteID returns (nil, nil) when no credential exists for siteID.
	GetBySiteID(ctx context.Context, siteID string) (*model.SiteCredential, error)

	// Add provisions a new site. Returns ErrSiteAlreadyExists on a duplicate id.
	Add(ctx context.Context, cred model.SiteCredential) (model.SiteCredential, error)

	// SetActive toggles a site. Returns model.ErrNotFound for an unknown id.
	SetActive(ctx context.Context, siteID string, active bool) error

	ListAll(ctx context.Context) ([]model.SiteCredential, error)
}

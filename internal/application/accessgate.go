// Package application contains use-case orchestration services.
package application

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/gatekeep/internal/domain/port/driven"
)

// AccessGate validates the site-level API key presented with a request. It
// holds no session state and never mutates the credential store.
type AccessGate struct {
	sites  driven.SiteCredentialStore
	logger *slog.Logger
}

// NewAccessGate creates an AccessGate over the given credential store.
func NewAccessGate(sites driven.SiteCredentialStore, logger *slog.Logger) *AccessGate {
	return &AccessGate{sites: sites, logger: logger}
}

// CheckAccess reports whether siteID names an active site whose secret is
// exactly secret. Blank values, unknown sites, inactive sites and wrong
// secrets all yield false with no error; only a store failure returns one.
func (g *AccessGate) CheckAccess(ctx context.Context, siteID, secret string) (bool, error) {
	if siteID == "" || secret == "" {
		return false, nil
	}

	cred, err := g.sites.GetBySiteID(ctx, siteID)
	if err != nil {
		return false, fmt.Errorf("check access for site %q: %w", siteID, err)
	}

	if cred == nil || !cred.Active {
		g.logger.Warn("site access denied", "site_id", siteID, "reason", "unknown or inactive")
		return false, nil
	}

	if subtle.ConstantTimeCompare([]byte(cred.Secret), []byte(secret)) != 1 {
		g.logger.Warn("site access denied", "site_id", siteID, "reason", "secret mismatch")
		return false, nil
	}

	return true, nil
}

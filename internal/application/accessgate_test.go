package application

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/gatekeep/internal/domain/model"
)

func TestAccessGate_CheckAccess(t *testing.T) {
	store := newMemSiteStore(
		model.SiteCredential{SiteID: "A", Secret: "x", Active: true},
		model.SiteCredential{SiteID: "off", Secret: "x", Active: false},
	)
	gate := NewAccessGate(store, slog.Default())

	tests := []struct {
		name   string
		siteID string
		secret string
		want   bool
	}{
		{name: "matching pair", siteID: "A", secret: "x", want: true},
		{name: "wrong secret", siteID: "A", secret: "y", want: false},
		{name: "unknown site", siteID: "B", secret: "x", want: false},
		{name: "inactive site", siteID: "off", secret: "x", want: false},
		{name: "missing site id", siteID: "", secret: "x", want: false},
		{name: "missing secret", siteID: "A", secret: "", want: false},
		{name: "secret prefix", siteID: "A", secret: "xx", want: false},
		{name: "case differs", siteID: "a", secret: "x", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := gate.CheckAccess(context.Background(), tt.siteID, tt.secret)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestAccessGate_DeactivationFlipsResult(t *testing.T) {
	store := newMemSiteStore(model.SiteCredential{SiteID: "A", Secret: "x", Active: true})
	gate := NewAccessGate(store, slog.Default())
	ctx := context.Background()

	ok, err := gate.CheckAccess(ctx, "A", "x")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.SetActive(ctx, "A", false))

	ok, err = gate.CheckAccess(ctx, "A", "x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAccessGate_StoreFailure(t *testing.T) {
	store := newMemSiteStore()
	store.err = errors.New("disk on fire")
	gate := NewAccessGate(store, slog.Default())

	ok, err := gate.CheckAccess(context.Background(), "A", "x")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, model.KindInternal, model.KindOf(err))
}

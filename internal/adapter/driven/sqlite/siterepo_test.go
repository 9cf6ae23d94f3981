package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/gatekeep/internal/domain/model"
	"github.com/ericfisherdev/gatekeep/internal/domain/port/driven"
)

func TestSiteCredentialRepo_AddAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSiteCredentialRepo(db, testKey)
	ctx := context.Background()

	saved, err := repo.Add(ctx, model.SiteCredential{SiteID: "shop1", Secret: "k3y", Active: true})
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())

	got, err := repo.GetBySiteID(ctx, "shop1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "shop1", got.SiteID)
	assert.Equal(t, "k3y", got.Secret)
	assert.True(t, got.Active)
}

func TestSiteCredentialRepo_SecretEncryptedAtRest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSiteCredentialRepo(db, testKey)
	ctx := context.Background()

	_, err := repo.Add(ctx, model.SiteCredential{SiteID: "shop1", Secret: "k3y", Active: true})
	require.NoError(t, err)

	var stored string
	err = db.Reader.QueryRowContext(ctx, `SELECT secret FROM site_credentials WHERE site_id = ?`, "shop1").Scan(&stored)
	require.NoError(t, err)
	assert.NotEqual(t, "k3y", stored)
	assert.NotContains(t, stored, "k3y")
}

func TestSiteCredentialRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSiteCredentialRepo(db, testKey)

	got, err := repo.GetBySiteID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSiteCredentialRepo_AddDuplicate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSiteCredentialRepo(db, testKey)
	ctx := context.Background()

	_, err := repo.Add(ctx, model.SiteCredential{SiteID: "shop1", Secret: "a", Active: true})
	require.NoError(t, err)

	_, err = repo.Add(ctx, model.SiteCredential{SiteID: "shop1", Secret: "b", Active: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, driven.ErrSiteAlreadyExists)
}

func TestSiteCredentialRepo_SetActive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSiteCredentialRepo(db, testKey)
	ctx := context.Background()

	_, err := repo.Add(ctx, model.SiteCredential{SiteID: "shop1", Secret: "k3y", Active: true})
	require.NoError(t, err)

	require.NoError(t, repo.SetActive(ctx, "shop1", false))

	got, err := repo.GetBySiteID(ctx, "shop1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Active)

	err = repo.SetActive(ctx, "missing", true)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSiteCredentialRepo_ListAll(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSiteCredentialRepo(db, testKey)
	ctx := context.Background()

	for _, id := range []string{"zeta", "alpha"} {
		_, err := repo.Add(ctx, model.SiteCredential{SiteID: id, Secret: id + "-secret", Active: true})
		require.NoError(t, err)
	}

	creds, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, creds, 2)
	assert.Equal(t, "alpha", creds[0].SiteID)
	assert.Equal(t, "alpha-secret", creds[0].Secret)
	assert.Equal(t, "zeta", creds[1].SiteID)
}

func TestSiteCredentialRepo_NilKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSiteCredentialRepo(db, nil)
	ctx := context.Background()

	_, err := repo.Add(ctx, model.SiteCredential{SiteID: "shop1", Secret: "k3y"})
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, err = repo.GetBySiteID(ctx, "shop1")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, err = repo.ListAll(ctx)
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
}

func TestSiteCredentialRepo_WrongKeyCannotDecrypt(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := NewSiteCredentialRepo(db, testKey).Add(ctx, model.SiteCredential{SiteID: "shop1", Secret: "k3y", Active: true})
	require.NoError(t, err)

	other := []byte("ffffffffffffffffffffffffffffffff")
	_, err = NewSiteCredentialRepo(db, other).GetBySiteID(ctx, "shop1")
	assert.Error(t, err)
}

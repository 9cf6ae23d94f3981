package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/gatekeep/internal/domain/model"
)

func TestUserRepo_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	created := seedUser(t, db, "ana")

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, created, *byID)

	byName, err := repo.GetByUsername(ctx, "ana")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, created.ID, byName.ID)
	assert.Nil(t, byName.LastAccessAt)
}

func TestUserRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	got, err := repo.GetByID(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.GetByUsername(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserRepo_Exists(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	seedUser(t, db, "ana")

	ok, err := repo.UsernameExists(ctx, "ana")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UsernameExists(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.EmailExists(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.EmailExists(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserRepo_CreateUniqueViolations(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	existing := seedUser(t, db, "ana")

	tests := []struct {
		name    string
		mutate  func(u *model.UserAccount)
		wantErr error
	}{
		{
			name:    "same username",
			mutate:  func(u *model.UserAccount) { u.Email = "other@example.com" },
			wantErr: model.ErrDuplicateUsername,
		},
		{
			name:    "same email",
			mutate:  func(u *model.UserAccount) { u.Username = "other" },
			wantErr: model.ErrDuplicateEmail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := existing
			user.ID = uuid.NewString()
			tt.mutate(&user)

			err := repo.Create(ctx, user)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUserRepo_TouchLastAccess(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	user := seedUser(t, db, "ana")
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	require.NoError(t, repo.TouchLastAccess(ctx, user.ID, at))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastAccessAt)
	assert.True(t, at.Equal(*got.LastAccessAt))

	err = repo.TouchLastAccess(ctx, uuid.NewString(), at)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUserRepo_UnknownRoleRejected(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db)

	err := repo.Create(context.Background(), model.UserAccount{
		ID:             uuid.NewString(),
		Username:       "ana",
		Email:          "ana@example.com",
		PasswordDigest: "digest",
		RoleID:         999,
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	})
	assert.Error(t, err, "foreign key on role_id should reject unknown roles")
}

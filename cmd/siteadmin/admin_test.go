package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/gatekeep/internal/config"
)

func setupAdmin(t *testing.T, stdin string) (*admin, *bytes.Buffer) {
	t.Helper()

	cfg := &config.Config{
		DBPath:      filepath.Join(t.TempDir(), "admin.db"),
		SecretKey:   bytes.Repeat([]byte{0x42}, 32),
		JWTKey:      bytes.Repeat([]byte{0x24}, 32),
		JWTIssuer:   "gatekeep-test",
		JWTAudience: "gatekeep-clients",
		TokenTTL:    30 * time.Minute,
		Hasher:      "sha256",
	}

	var out bytes.Buffer
	a, err := openAdmin(context.Background(), cfg, strings.NewReader(stdin), &out)
	require.NoError(t, err)
	t.Cleanup(a.close)
	return a, &out
}

func TestAddSite_ReadsSecretFromInput(t *testing.T) {
	a, out := setupAdmin(t, "s3cr3t\n")
	ctx := context.Background()

	require.NoError(t, a.dispatch(ctx, "add-site", []string{"-id", "shop1"}))
	assert.Contains(t, out.String(), `site "shop1" added`)
	assert.NotContains(t, out.String(), "s3cr3t")

	cred, err := a.sites.GetBySiteID(ctx, "shop1")
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "s3cr3t", cred.Secret)
	assert.True(t, cred.Active)
}

func TestAddSite_GeneratePrintsSecret(t *testing.T) {
	a, out := setupAdmin(t, "")
	ctx := context.Background()

	require.NoError(t, a.dispatch(ctx, "add-site", []string{"-id", "shop2", "-generate"}))

	cred, err := a.sites.GetBySiteID(ctx, "shop2")
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Len(t, cred.Secret, 48)
	assert.Contains(t, out.String(), "secret: "+cred.Secret)
}

func TestAddSite_Errors(t *testing.T) {
	a, _ := setupAdmin(t, "\n")
	ctx := context.Background()

	assert.ErrorContains(t, a.dispatch(ctx, "add-site", nil), "-id is required")
	assert.ErrorContains(t, a.dispatch(ctx, "add-site", []string{"-id", "shop1"}), "must not be empty")
}

func TestSetSiteActive(t *testing.T) {
	a, out := setupAdmin(t, "s3cr3t\n")
	ctx := context.Background()
	require.NoError(t, a.dispatch(ctx, "add-site", []string{"-id", "shop1"}))

	require.NoError(t, a.dispatch(ctx, "disable-site", []string{"-id", "shop1"}))
	cred, err := a.sites.GetBySiteID(ctx, "shop1")
	require.NoError(t, err)
	assert.False(t, cred.Active)

	require.NoError(t, a.dispatch(ctx, "enable-site", []string{"-id", "shop1"}))
	cred, err = a.sites.GetBySiteID(ctx, "shop1")
	require.NoError(t, err)
	assert.True(t, cred.Active)

	out.Reset()
	require.NoError(t, a.dispatch(ctx, "list-sites", nil))
	assert.Contains(t, out.String(), "shop1")
	assert.NotContains(t, out.String(), "s3cr3t")

	assert.Error(t, a.dispatch(ctx, "disable-site", []string{"-id", "missing"}))
}

func TestRoles(t *testing.T) {
	a, out := setupAdmin(t, "")
	ctx := context.Background()

	require.NoError(t, a.dispatch(ctx, "add-role", []string{"-name", "editor", "-description", "Content editor"}))
	assert.Contains(t, out.String(), `role "editor" added with id 3`)

	out.Reset()
	require.NoError(t, a.dispatch(ctx, "list-roles", nil))
	for _, name := range []string{"admin", "user", "editor"} {
		assert.Contains(t, out.String(), name)
	}
}

func TestAddUser_ThenLogin(t *testing.T) {
	a, out := setupAdmin(t, "pw1\n")
	ctx := context.Background()

	require.NoError(t, a.dispatch(ctx, "add-user", []string{
		"-username", "ana", "-email", "ana@example.com", "-first-name", "Ana", "-last-name", "Lima",
	}))
	assert.Contains(t, out.String(), `user "ana" created`)

	session, err := a.auth.Login(ctx, "ana", "pw1", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "ana", session.Profile.Username)
	assert.Equal(t, "user", session.Profile.RoleName)

	out.Reset()
	require.NoError(t, a.dispatch(ctx, "prune-tokens", nil))
	assert.Contains(t, out.String(), "0 expired tokens removed")
}

func TestAddUser_KeepsSurroundingSpaces(t *testing.T) {
	a, _ := setupAdmin(t, "  pad pw \r\n")
	ctx := context.Background()

	require.NoError(t, a.dispatch(ctx, "add-user", []string{"-username", "bea", "-email", "bea@example.com"}))

	_, err := a.auth.Login(ctx, "bea", "  pad pw ", "127.0.0.1")
	require.NoError(t, err)

	_, err = a.auth.Login(ctx, "bea", "pad pw", "127.0.0.1")
	assert.Error(t, err)
}

func TestReadSecret_Terminal(t *testing.T) {
	a, out := setupAdmin(t, "piped\n")
	a.inTTY = true
	a.inFd = 7

	origRead := readPassword
	var gotFd int
	readPassword = func(fd int) ([]byte, error) {
		gotFd = fd
		return []byte(" typed "), nil
	}
	t.Cleanup(func() { readPassword = origRead })

	secret, err := a.readSecret("Password: ")
	require.NoError(t, err)
	assert.Equal(t, " typed ", secret)
	assert.Equal(t, 7, gotFd)
	assert.Equal(t, "Password: \n", out.String())
}

func TestDispatch_UnknownCommand(t *testing.T) {
	a, out := setupAdmin(t, "")

	err := a.dispatch(context.Background(), "frobnicate", nil)
	assert.ErrorContains(t, err, `unknown command "frobnicate"`)
	assert.Contains(t, out.String(), "usage: siteadmin")
}

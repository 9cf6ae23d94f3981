package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/gatekeep/internal/domain/model"
)

// testKey is a fixed AES-256 key for site credential tests.
var testKey = []byte("0123456789abcdef0123456789abcdef")

// setupTestDB opens a named shared in-memory database with all migrations
// applied. cache=shared lets the writer and reader pools see the same data,
// and naming it after t.Name() keeps parallel tests apart.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Escape so subtest slashes cannot leak into the query string.
	base := fmt.Sprintf("file:%s?mode=memory&cache=shared", url.PathEscape(t.Name()))

	db, err := open(context.Background(), buildDSN(base, sharedPragmas))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := RunMigrations(db.Writer); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	return db
}

// freezeClock pins timeNow for the duration of the test.
func freezeClock(t *testing.T, at time.Time) {
	t.Helper()
	orig := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = orig })
}

// seedUser inserts an active account with the seeded "user" role.
func seedUser(t *testing.T, db *DB, username string) model.UserAccount {
	t.Helper()

	user := model.UserAccount{
		ID:             uuid.NewString(),
		Username:       username,
		Email:          username + "@example.com",
		FirstName:      "Test",
		LastName:       "User",
		PasswordDigest: "digest",
		RoleID:         2,
		Active:         true,
		CreatedAt:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := NewUserRepo(db).Create(context.Background(), user); err != nil {
		t.Fatalf("seed user %q: %v", username, err)
	}

	return user
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/gatekeep/internal/domain/model"
	"github.com/ericfisherdev/gatekeep/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TokenStore = (*TokenRepo)(nil)

// TokenRepo is the SQLite ledger of issued bearer tokens. token_value is
// uniquely indexed so every lookup and revocation is a single index probe.
type TokenRepo struct {
	db *DB
}

// NewTokenRepo creates a new TokenRepo backed by the given DB.
func NewTokenRepo(db *DB) *TokenRepo {
	return &TokenRepo{db: db}
}

const tokenColumns = `id, token_value, user_id, source_ip, issued_at, expires_at`

// Record inserts a ledger entry for a freshly issued token.
func (r *TokenRepo) Record(ctx context.Context, token model.IssuedToken) error {
	const query = `INSERT INTO issued_tokens (` + tokenColumns + `) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.Writer.ExecContext(ctx, query,
		token.ID,
		token.Value,
		token.SubjectUserID,
		token.SourceIP,
		formatTime(token.IssuedAt),
		formatTime(token.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("record token %s: %w", token.ID, err)
	}

	return nil
}

// Get returns the ledger entry for value, or (nil, nil) if there is none.
func (r *TokenRepo) Get(ctx context.Context, value string) (*model.IssuedToken, error) {
	const query = `SELECT ` + tokenColumns + ` FROM issued_tokens WHERE token_value = ?`

	token, err := scanToken(r.db.Reader.QueryRowContext(ctx, query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}

	return &token, nil
}

// IsValid reports whether value is in the ledger with expires_at strictly
// after the current time.
func (r *TokenRepo) IsValid(ctx context.Context, value string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM issued_tokens WHERE token_value = ? AND expires_at > ?)`

	var found int
	if err := r.db.Reader.QueryRowContext(ctx, query, value, formatTime(timeNow())).Scan(&found); err != nil {
		return false, fmt.Errorf("check token validity: %w", err)
	}

	return found == 1, nil
}

// Revoke deletes the ledger entry for value. Unknown values are ignored.
func (r *TokenRepo) Revoke(ctx context.Context, value string) error {
	const query = `DELETE FROM issued_tokens WHERE token_value = ?`

	if _, err := r.db.Writer.ExecContext(ctx, query, value); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	return nil
}

// ListBySubject returns the user's ledger entries, newest first.
func (r *TokenRepo) ListBySubject(ctx context.Context, userID string) ([]model.IssuedToken, error) {
	const query = `SELECT ` + tokenColumns + ` FROM issued_tokens WHERE user_id = ? ORDER BY issued_at DESC, id`

	rows, err := r.db.Reader.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list tokens for %q: %w", userID, err)
	}
	defer rows.Close()

	var tokens []model.IssuedToken
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tokens: %w", err)
	}

	return tokens, nil
}

// DeleteExpired removes ledger entries whose expiry is at or before cutoff.
func (r *TokenRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM issued_tokens WHERE expires_at <= ?`

	result, err := r.db.Writer.ExecContext(ctx, query, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}

	return n, nil
}

func scanToken(row rowScanner) (model.IssuedToken, error) {
	var (
		token     model.IssuedToken
		issuedAt  string
		expiresAt string
	)

	if err := row.Scan(&token.ID, &token.Value, &token.SubjectUserID, &token.SourceIP, &issuedAt, &expiresAt); err != nil {
		return model.IssuedToken{}, err
	}

	var err error
	token.IssuedAt, err = parseTime(issuedAt)
	if err != nil {
		return model.IssuedToken{}, fmt.Errorf("parse issued_at: %w", err)
	}
	token.ExpiresAt, err = parseTime(expiresAt)
	if err != nil {
		return model.IssuedToken{}, fmt.Errorf("parse expires_at: %w", err)
	}

	return token, nil
}

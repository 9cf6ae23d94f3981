package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/ericfisherdev/gatekeep/internal/domain/model"
	"github.com/ericfisherdev/gatekeep/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SiteCredentialStore = (*SiteCredentialRepo)(nil)

// SiteCredentialRepo is the SQLite implementation of driven.SiteCredentialStore.
// Site secrets are encrypted with AES-256-GCM before write and decrypted after read.
type SiteCredentialRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil when encryption is disabled.
}

// NewSiteCredentialRepo creates a SiteCredentialRepo. key must be 32 bytes for
// AES-256-GCM, or nil, in which case every secret-bearing operation returns
// driven.ErrEncryptionKeyNotSet.
func NewSiteCredentialRepo(db *DB, key []byte) *SiteCredentialRepo {
	return &SiteCredentialRepo{db: db, key: key}
}

// GetBySiteID returns the credential for siteID with its secret decrypted,
// or (nil, nil) when the site is unknown.
func (r *SiteCredentialRepo) GetBySiteID(ctx context.Context, siteID string) (*model.SiteCredential, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT id, site_id, secret, active, created_at FROM site_credentials WHERE site_id = ?`

	cred, err := r.scan(r.db.Reader.QueryRowContext(ctx, query, siteID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get site %q: %w", siteID, err)
	}

	return &cred, nil
}

// Add provisions a site. The returned credential carries the generated id.
func (r *SiteCredentialRepo) Add(ctx context.Context, cred model.SiteCredential) (model.SiteCredential, error) {
	encrypted, err := r.encrypt(cred.Secret)
	if err != nil {
		return model.SiteCredential{}, err
	}

	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = timeNow()
	}

	const query = `INSERT INTO site_credentials (site_id, secret, active, created_at) VALUES (?, ?, ?, ?)`
	res, err := r.db.Writer.ExecContext(ctx, query, cred.SiteID, encrypted, boolToInt(cred.Active), formatTime(cred.CreatedAt))
	if err != nil {
		if isUniqueViolation(err, "site_credentials.site_id") {
			return model.SiteCredential{}, fmt.Errorf("add site %q: %w", cred.SiteID, driven.ErrSiteAlreadyExists)
		}
		return model.SiteCredential{}, fmt.Errorf("add site %q: %w", cred.SiteID, err)
	}

	cred.ID, err = res.LastInsertId()
	if err != nil {
		return model.SiteCredential{}, fmt.Errorf("last insert id: %w", err)
	}
	cred.CreatedAt = cred.CreatedAt.UTC()

	return cred, nil
}

// SetActive enables or disables a site.
func (r *SiteCredentialRepo) SetActive(ctx context.Context, siteID string, active bool) error {
	const query = `UPDATE site_credentials SET active = ? WHERE site_id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, boolToInt(active), siteID)
	if err != nil {
		return fmt.Errorf("set site %q active: %w", siteID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("site %q: %w", siteID, model.ErrNotFound)
	}

	return nil
}

// ListAll returns every provisioned site ordered by site id.
func (r *SiteCredentialRepo) ListAll(ctx context.Context) ([]model.SiteCredential, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT id, site_id, secret, active, created_at FROM site_credentials ORDER BY site_id`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	var creds []model.SiteCredential
	for rows.Next() {
		cred, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		creds = append(creds, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sites: %w", err)
	}

	return creds, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SiteCredentialRepo) scan(row rowScanner) (model.SiteCredential, error) {
	var (
		cred      model.SiteCredential
		encrypted string
		active    int
		createdAt string
	)

	if err := row.Scan(&cred.ID, &cred.SiteID, &encrypted, &active, &createdAt); err != nil {
		return model.SiteCredential{}, err
	}

	secret, err := r.decrypt(encrypted)
	if err != nil {
		return model.SiteCredential{}, fmt.Errorf("decrypt secret for site %q: %w", cred.SiteID, err)
	}
	cred.Secret = secret
	cred.Active = active != 0

	cred.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return model.SiteCredential{}, fmt.Errorf("parse created_at for site %q: %w", cred.SiteID, err)
	}

	return cred, nil
}

// encrypt encrypts plaintext using AES-256-GCM and returns a base64-encoded string
// containing the nonce (12 bytes) prepended to the ciphertext.
func (r *SiteCredentialRepo) encrypt(plaintext string) (string, error) {
	if r.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	gcm, err := r.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// nonce || ciphertext || tag
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (r *SiteCredentialRepo) decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	gcm, err := r.aead()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}

func (r *SiteCredentialRepo) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(r.key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/graphdesk/internal/domain/model"
	"github.com/ericfisherdev/graphdesk/internal/domain/port/driven"
	"github.com/ericfisherdev/graphdesk/internal/secretbox"
)

// Compile-time interface satisfaction check.
var _ driven.APIKeyStore = (*APIKeyRepo)(nil)

// APIKeyRepo is the SQLite implementation of the APIKeyStore port interface.
// Keys are sealed with AES-256-GCM before write and opened after read; the
// ciphertext, IV and tag are stored hex-encoded in separate columns.
type APIKeyRepo struct {
	db  *DB
	box *secretbox.Box // nil when encryption is disabled.
}

// NewAPIKeyRepo creates a new APIKeyRepo. box may be nil, in which case
// Save and Get return driven.ErrEncryptionKeyNotSet.
func NewAPIKeyRepo(db *DB, box *secretbox.Box) *APIKeyRepo {
	return &APIKeyRepo{db: db, box: box}
}

// Save seals plaintext and replaces the user's stored key in one transaction.
func (r *APIKeyRepo) Save(ctx context.Context, userID, plaintext string) (model.APIKey, error) {
	if r.box == nil {
		return model.APIKey{}, driven.ErrEncryptionKeyNotSet
	}

	ciphertext, iv, tag, err := r.box.SealString(plaintext)
	if err != nil {
		return model.APIKey{}, fmt.Errorf("seal api key for %q: %w", userID, err)
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return model.APIKey{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM api_keys WHERE user_id = ?`, userID); err != nil {
		return model.APIKey{}, fmt.Errorf("delete previous api key for %q: %w", userID, err)
	}

	const insert = `INSERT INTO api_keys (user_id, encrypted_key, iv, tag) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, insert, userID, ciphertext, iv, tag)
	if err != nil {
		return model.APIKey{}, fmt.Errorf("insert api key for %q: %w", userID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.APIKey{}, fmt.Errorf("read inserted id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.APIKey{}, fmt.Errorf("commit api key for %q: %w", userID, err)
	}

	return model.APIKey{
		ID:           id,
		UserID:       userID,
		EncryptedKey: ciphertext,
		IV:           iv,
		Tag:          tag,
	}, nil
}

// Get returns the user's decrypted key, or ("", nil) if none is stored.
func (r *APIKeyRepo) Get(ctx context.Context, userID string) (string, error) {
	if r.box == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT encrypted_key, iv, tag FROM api_keys WHERE user_id = ? ORDER BY id DESC LIMIT 1`
	var ciphertext, iv, tag string
	err := r.db.Reader.QueryRowContext(ctx, query, userID).Scan(&ciphertext, &iv, &tag)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get api key for %q: %w", userID, err)
	}

	plaintext, err := r.box.OpenString(ciphertext, iv, tag)
	if err != nil {
		return "", fmt.Errorf("decrypt api key for %q: %w", userID, err)
	}
	return plaintext, nil
}

// Delete removes every stored key for the user.
func (r *APIKeyRepo) Delete(ctx context.Context, userID string) error {
	const query = `DELETE FROM api_keys WHERE user_id = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete api key for %q: %w", userID, err)
	}
	return nil
}

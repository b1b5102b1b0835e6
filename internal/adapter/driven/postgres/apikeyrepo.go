package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/graphdesk/internal/domain/model"
	"github.com/ericfisherdev/graphdesk/internal/domain/port/driven"
	"github.com/ericfisherdev/graphdesk/internal/secretbox"
)

var _ driven.APIKeyStore = (*APIKeyRepo)(nil)

// APIKeyRepo is the PostgreSQL implementation of driven.APIKeyStore.
type APIKeyRepo struct {
	db  *DB
	box *secretbox.Box
}

// NewAPIKeyRepo creates a new APIKeyRepo. A nil box makes Save and Get
// return driven.ErrEncryptionKeyNotSet.
func NewAPIKeyRepo(db *DB, box *secretbox.Box) *APIKeyRepo {
	return &APIKeyRepo{db: db, box: box}
}

func (r *APIKeyRepo) Save(ctx context.Context, userID, plaintext string) (model.APIKey, error) {
	if r.box == nil {
		return model.APIKey{}, driven.ErrEncryptionKeyNotSet
	}

	ciphertext, iv, tag, err := r.box.SealString(plaintext)
	if err != nil {
		return model.APIKey{}, fmt.Errorf("seal api key for %q: %w", userID, err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.APIKey{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM api_keys WHERE user_id = $1`, userID); err != nil {
		return model.APIKey{}, fmt.Errorf("delete previous api key for %q: %w", userID, err)
	}

	var rec model.APIKey
	const insert = `
		INSERT INTO api_keys (user_id, encrypted_key, iv, tag)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, encrypted_key, iv, tag`
	if err := tx.GetContext(ctx, &rec, insert, userID, ciphertext, iv, tag); err != nil {
		return model.APIKey{}, fmt.Errorf("insert api key for %q: %w", userID, err)
	}

	if err := tx.Commit(); err != nil {
		return model.APIKey{}, fmt.Errorf("commit api key for %q: %w", userID, err)
	}
	return rec, nil
}

func (r *APIKeyRepo) Get(ctx context.Context, userID string) (string, error) {
	if r.box == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	var rec model.APIKey
	const query = `
		SELECT id, user_id, encrypted_key, iv, tag
		FROM api_keys
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT 1`
	err := r.db.GetContext(ctx, &rec, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get api key for %q: %w", userID, err)
	}

	plaintext, err := r.box.OpenString(rec.EncryptedKey, rec.IV, rec.Tag)
	if err != nil {
		return "", fmt.Errorf("decrypt api key for %q: %w", userID, err)
	}
	return plaintext, nil
}

func (r *APIKeyRepo) Delete(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM api_keys WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete api key for %q: %w", userID, err)
	}
	return nil
}

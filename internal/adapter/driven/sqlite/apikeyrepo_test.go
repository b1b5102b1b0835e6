package sqlite

import (
	"context"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/graphdesk/internal/domain/port/driven"
	"github.com/ericfisherdev/graphdesk/internal/secretbox"
)

func testBox(t *testing.T) *secretbox.Box {
	t.Helper()
	key, err := secretbox.GenerateKey(rand.Reader)
	require.NoError(t, err)
	box, err := secretbox.New(key)
	require.NoError(t, err)
	return box
}

func countRows(t *testing.T, db *DB, userID string) int {
	t.Helper()
	var n int
	err := db.Reader.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM api_keys WHERE user_id = ?`, userID).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestAPIKeyRepo_SaveAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAPIKeyRepo(db, testBox(t))
	ctx := context.Background()

	rec, err := repo.Save(ctx, "user_1", "service:graph-a:abc123")
	require.NoError(t, err)
	assert.NotZero(t, rec.ID)
	assert.Equal(t, "user_1", rec.UserID)
	assert.Len(t, rec.IV, 24)
	assert.Len(t, rec.Tag, 32)

	val, err := repo.Get(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "service:graph-a:abc123", val)
}

func TestAPIKeyRepo_StoredEncrypted(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAPIKeyRepo(db, testBox(t))
	ctx := context.Background()

	_, err := repo.Save(ctx, "user_1", "service:graph-a:abc123")
	require.NoError(t, err)

	var encrypted, iv, tag string
	err = db.Reader.QueryRowContext(ctx, `SELECT encrypted_key, iv, tag FROM api_keys WHERE user_id = ?`, "user_1").Scan(&encrypted, &iv, &tag)
	require.NoError(t, err)

	assert.NotContains(t, encrypted, "abc123")
	assert.NotEmpty(t, iv)
	assert.NotEmpty(t, tag)
}

func TestAPIKeyRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAPIKeyRepo(db, testBox(t))

	val, err := repo.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, "", val)
}

func TestAPIKeyRepo_SaveReplacesPrevious(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAPIKeyRepo(db, testBox(t))
	ctx := context.Background()

	first, err := repo.Save(ctx, "user_1", "old-value")
	require.NoError(t, err)
	second, err := repo.Save(ctx, "user_1", "new-value")
	require.NoError(t, err)

	assert.NotEqual(t, first.IV, second.IV, "each save must use a fresh iv")
	assert.Equal(t, 1, countRows(t, db, "user_1"))

	val, err := repo.Get(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "new-value", val)
}

func TestAPIKeyRepo_UsersAreIsolated(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAPIKeyRepo(db, testBox(t))
	ctx := context.Background()

	_, err := repo.Save(ctx, "user_1", "key-one")
	require.NoError(t, err)
	_, err = repo.Save(ctx, "user_2", "key-two")
	require.NoError(t, err)

	v1, err := repo.Get(ctx, "user_1")
	require.NoError(t, err)
	v2, err := repo.Get(ctx, "user_2")
	require.NoError(t, err)

	assert.Equal(t, "key-one", v1)
	assert.Equal(t, "key-two", v2)
}

func TestAPIKeyRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAPIKeyRepo(db, testBox(t))
	ctx := context.Background()

	_, err := repo.Save(ctx, "user_1", "key-one")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "user_1"))

	val, err := repo.Get(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "", val)
}

func TestAPIKeyRepo_DeleteNonexistent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAPIKeyRepo(db, testBox(t))

	err := repo.Delete(context.Background(), "nobody")
	assert.NoError(t, err, "deleting nonexistent key should not error")
}

func TestAPIKeyRepo_NoEncryptionKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAPIKeyRepo(db, nil)
	ctx := context.Background()

	_, err := repo.Save(ctx, "user_1", "key")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, err = repo.Get(ctx, "user_1")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	assert.NoError(t, repo.Delete(ctx, "user_1"))
}

func TestAPIKeyRepo_WrongKeyFailsToDecrypt(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := NewAPIKeyRepo(db, testBox(t)).Save(ctx, "user_1", "key-one")
	require.NoError(t, err)

	_, err = NewAPIKeyRepo(db, testBox(t)).Get(ctx, "user_1")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "decrypt api key"))
}

func TestAPIKeyRepo_TamperedTagFails(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAPIKeyRepo(db, testBox(t))
	ctx := context.Background()

	_, err := repo.Save(ctx, "user_1", "key-one")
	require.NoError(t, err)

	_, err = db.Writer.ExecContext(ctx, `UPDATE api_keys SET tag = ? WHERE user_id = ?`, strings.Repeat("00", 16), "user_1")
	require.NoError(t, err)

	_, err = repo.Get(ctx, "user_1")
	assert.Error(t, err)
}

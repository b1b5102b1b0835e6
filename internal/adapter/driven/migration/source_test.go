package migration

import (
	"io"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSource_Navigation(t *testing.T) {
	src, err := newRecordSource([]Migration{
		{Version: 1, Name: "create_api_keys", SQL: "CREATE TABLE a;"},
		{Version: 3, Name: "encrypt_api_keys", SQL: "ALTER TABLE c;"},
		{Version: 2, Name: "add_user_id", SQL: "ALTER TABLE b;"},
	})
	require.NoError(t, err)

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	next, err := src.Next(1)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)

	prev, err := src.Prev(3)
	require.NoError(t, err)
	assert.Equal(t, uint(2), prev)

	_, err = src.Next(3)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = src.Prev(1)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	r, name, err := src.ReadUp(2)
	require.NoError(t, err)
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "add_user_id", name)
	assert.Equal(t, "ALTER TABLE b;", string(body))

	_, _, err = src.ReadDown(2)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestRecordSource_Empty(t *testing.T) {
	src, err := newRecordSource(nil)
	require.NoError(t, err)

	_, err = src.First()
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestRecordSource_RejectsDuplicateVersion(t *testing.T) {
	_, err := newRecordSource([]Migration{
		{Version: 1, Name: "a"},
		{Version: 1, Name: "b"},
	})
	assert.ErrorContains(t, err, "duplicate migration version 1")
}

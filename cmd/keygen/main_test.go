package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_WritesThenRefuses(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	var stdout, stderr bytes.Buffer

	code := run([]string{"--env-file", path}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "ENCRYPTION_KEY written to "+path+"\n", stdout.String())

	first, err := os.ReadFile(path)
	require.NoError(t, err)

	stdout.Reset()
	code = run([]string{"--env-file", path}, &stdout, &stderr)
	require.Equal(t, 0, code)
	assert.Equal(t, "ENCRYPTION_KEY already exists in "+path+"\n", stdout.String())

	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRun_IOErrorExitsNonZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no-such-dir", ".env")
	var stdout, stderr bytes.Buffer

	code := run([]string{"--env-file", path}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "keygen:")
	assert.Empty(t, stdout.String())
}

func TestRun_UnknownFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"--bogus"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
}

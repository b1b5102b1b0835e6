// Package keygen creates the symmetric key used to encrypt stored API keys
// and records it in a dotenv file.
package keygen

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"

	"github.com/joho/godotenv"

	"github.com/ericfisherdev/graphdesk/internal/secretbox"
)

// DefaultVariable is the dotenv variable the server reads the key from.
const DefaultVariable = "ENCRYPTION_KEY"

// ErrAlreadyExists is returned when the dotenv file already defines the variable.
// The file is left untouched; an existing key is never rotated.
var ErrAlreadyExists = errors.New("already exists")

// Generate appends "\n<variable>=<64 hex chars>\n" to the dotenv file at path,
// creating the file if needed, and returns the hex key. If the file already
// defines variable it returns ErrAlreadyExists without writing.
//
// Two concurrent calls can both pass the existence check; callers are expected
// to run this once per environment.
func Generate(path, variable string, random io.Reader) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	if defines(string(content), variable) {
		return "", fmt.Errorf("%s in %s: %w", variable, path, ErrAlreadyExists)
	}

	key, err := secretbox.GenerateKey(random)
	if err != nil {
		return "", err
	}
	encoded := hex.EncodeToString(key)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}

	if _, err := fmt.Fprintf(f, "\n%s=%s\n", variable, encoded); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}

	return encoded, nil
}

// defines reports whether content assigns variable. Files godotenv cannot
// parse are scanned line by line instead, so a stray line elsewhere in the
// file does not block key creation.
func defines(content, variable string) bool {
	if env, err := godotenv.Unmarshal(content); err == nil {
		_, ok := env[variable]
		return ok
	}
	assignment := regexp.MustCompile(`(?m)^\s*(export\s+)?` + regexp.QuoteMeta(variable) + `\s*[=:]`)
	return assignment.MatchString(content)
}

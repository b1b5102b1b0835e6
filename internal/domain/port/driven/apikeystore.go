package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/graphdesk/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by APIKeyStore operations when
// ENCRYPTION_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set ENCRYPTION_KEY")

// APIKeyStore defines the driven port for encrypted API key persistence.
// The adapter layer is responsible for encryption/decryption; this interface
// operates on plaintext values at the domain boundary.
type APIKeyStore interface {
	// Save encrypts plaintext and stores it as the user's only API key,
	// replacing any previous record. Returns ErrEncryptionKeyNotSet if the
	// adapter was constructed without an encryption key.
	Save(ctx context.Context, userID, plaintext string) (model.APIKey, error)

	// Get returns the decrypted API key for the user.
	// Returns ("", nil) if the user has no stored key.
	Get(ctx context.Context, userID string) (string, error)

	// Delete removes the user's stored key. Deleting a missing key is not an error.
	Delete(ctx context.Context, userID string) error
}

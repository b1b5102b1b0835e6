package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/graphdesk/internal/domain/port/driven"
)

// APIKeyStatus describes a user's stored key without revealing it.
type APIKeyStatus struct {
	Configured bool
	// Masked shows only the last four characters, e.g. "****a1b2".
	Masked string
}

// APIKeyService manages each user's registry API key.
type APIKeyService struct {
	store    driven.APIKeyStore
	provider *RegistryClientProvider
	logger   *slog.Logger
}

// NewAPIKeyService creates an APIKeyService.
func NewAPIKeyService(store driven.APIKeyStore, provider *RegistryClientProvider, logger *slog.Logger) *APIKeyService {
	return &APIKeyService{store: store, provider: provider, logger: logger}
}

// Save stores apiKey for the user, replacing any previous key.
func (s *APIKeyService) Save(ctx context.Context, userID, apiKey string) (APIKeyStatus, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return APIKeyStatus{}, ErrEmptyAPIKey
	}

	rec, err := s.store.Save(ctx, userID, apiKey)
	if err != nil {
		return APIKeyStatus{}, fmt.Errorf("save api key: %w", err)
	}
	s.provider.Invalidate(userID)

	s.logger.Info("api key saved", "user_id", userID, "record_id", rec.ID)
	return APIKeyStatus{Configured: true, Masked: maskKey(apiKey)}, nil
}

// Status reports whether the user has a stored key.
func (s *APIKeyService) Status(ctx context.Context, userID string) (APIKeyStatus, error) {
	key, err := s.store.Get(ctx, userID)
	if err != nil {
		return APIKeyStatus{}, fmt.Errorf("get api key: %w", err)
	}
	if key == "" {
		return APIKeyStatus{}, nil
	}
	return APIKeyStatus{Configured: true, Masked: maskKey(key)}, nil
}

// Delete removes the user's key. Deleting a missing key is not an error.
func (s *APIKeyService) Delete(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}
	s.provider.Invalidate(userID)

	s.logger.Info("api key deleted", "user_id", userID)
	return nil
}

// maskKey keeps the last four characters of key.
func maskKey(key string) string {
	runes := []rune(key)
	if len(runes) <= 4 {
		return "****"
	}
	return "****" + string(runes[len(runes)-4:])
}

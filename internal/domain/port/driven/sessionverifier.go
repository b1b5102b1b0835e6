package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/graphdesk/internal/domain/model"
)

// ErrInvalidSession wraps every session verification failure.
var ErrInvalidSession = errors.New("invalid session")

// SessionVerifier checks a session token issued by the authentication provider.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (model.Session, error)
}

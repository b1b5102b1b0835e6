// Package session verifies session tokens issued by the hosted
// authentication provider.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ericfisherdev/graphdesk/internal/domain/model"
	"github.com/ericfisherdev/graphdesk/internal/domain/port/driven"
)

const leeway = 5 * time.Second

// Options configures a Verifier. Exactly one of JWKSURL or PublicKeyPEM is used;
// PublicKeyPEM wins when both are set.
type Options struct {
	JWKSURL      string
	PublicKeyPEM string
	Issuer       string
	// AuthorizedParties restricts the azp claim. Empty allows any.
	AuthorizedParties []string
	// HTTPClient is used for JWKS requests. Defaults to a caching client.
	HTTPClient *http.Client
	Logger     *slog.Logger
	Now        func() time.Time
}

// claims are the session token claims graphdesk reads.
type claims struct {
	jwt.RegisteredClaims
	AuthorizedParty string `json:"azp,omitempty"`
	SessionID       string `json:"sid,omitempty"`
}

// Verifier verifies RS256 session JWTs.
type Verifier struct {
	keys              keySource
	parser            *jwt.Parser
	authorizedParties []string
}

var _ driven.SessionVerifier = (*Verifier)(nil)

// NewVerifier builds a Verifier from opts.
func NewVerifier(opts Options) (*Verifier, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var keys keySource
	switch {
	case opts.PublicKeyPEM != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(opts.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parse session public key: %w", err)
		}
		keys = staticKey{key: key}
	case opts.JWKSURL != "":
		client := opts.HTTPClient
		if client == nil {
			client = newHTTPCacheClient(10 * time.Second)
		}
		keys = newJWKSSource(opts.JWKSURL, client, logger, now)
	default:
		return nil, errors.New("session verifier needs a JWKS URL or a public key")
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
		jwt.WithTimeFunc(now),
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}

	return &Verifier{
		keys:              keys,
		parser:            jwt.NewParser(parserOpts...),
		authorizedParties: opts.AuthorizedParties,
	}, nil
}

// Verify checks the token's signature, expiry, issuer and authorized party
// and returns the session it describes. Every failure wraps
// driven.ErrInvalidSession.
func (v *Verifier) Verify(ctx context.Context, token string) (model.Session, error) {
	if token == "" {
		return model.Session{}, fmt.Errorf("%w: empty token", driven.ErrInvalidSession)
	}

	var c claims
	_, err := v.parser.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return v.keys.Key(ctx, kid)
	})
	if err != nil {
		return model.Session{}, fmt.Errorf("%w: %w", driven.ErrInvalidSession, err)
	}

	if c.Subject == "" {
		return model.Session{}, fmt.Errorf("%w: missing subject", driven.ErrInvalidSession)
	}
	if len(v.authorizedParties) > 0 && c.AuthorizedParty != "" && !slices.Contains(v.authorizedParties, c.AuthorizedParty) {
		return model.Session{}, fmt.Errorf("%w: unauthorized party %q", driven.ErrInvalidSession, c.AuthorizedParty)
	}

	s := model.Session{
		UserID:    c.Subject,
		SessionID: c.SessionID,
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s, nil
}

package session

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/gregjones/httpcache"
)

// minRefreshInterval bounds how often an unknown kid can trigger a JWKS fetch.
const minRefreshInterval = time.Minute

// failedFetchBackoff bounds how often a failing JWKS endpoint is retried.
const failedFetchBackoff = 5 * time.Second

const maxJWKSBytes = 1 << 20

var errUnknownKey = errors.New("no key for kid")

// keySource resolves the public key that signed a token.
type keySource interface {
	Key(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// staticKey serves a single configured key for every kid.
type staticKey struct {
	key *rsa.PublicKey
}

func (s staticKey) Key(context.Context, string) (*rsa.PublicKey, error) {
	return s.key, nil
}

// jwksSource fetches RSA keys from a JWKS endpoint and caches them by kid.
// HTTP responses are cached per their Cache-Control headers by httpcache.
type jwksSource struct {
	url    string
	client *http.Client
	logger *slog.Logger
	now    func() time.Time

	mu          sync.RWMutex
	keys        map[string]*rsa.PublicKey
	lastFetch   time.Time
	lastFailure time.Time
	lastErr     error
}

// newHTTPCacheClient returns an http.Client that caches JWKS responses in memory.
func newHTTPCacheClient(timeout time.Duration) *http.Client {
	client := httpcache.NewMemoryCacheTransport().Client()
	client.Timeout = timeout
	return client
}

func newJWKSSource(url string, client *http.Client, logger *slog.Logger, now func() time.Time) *jwksSource {
	return &jwksSource{
		url:    url,
		client: client,
		logger: logger,
		now:    now,
		keys:   map[string]*rsa.PublicKey{},
	}
}

func (s *jwksSource) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key, ok := s.lookup(kid); ok {
		return key, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if key, ok := s.lookupLocked(kid); ok {
		return key, nil
	}
	if !s.lastFetch.IsZero() && s.now().Sub(s.lastFetch) < minRefreshInterval {
		return nil, fmt.Errorf("%w %q", errUnknownKey, kid)
	}

	if !s.lastFailure.IsZero() && s.now().Sub(s.lastFailure) < failedFetchBackoff {
		return nil, s.lastErr
	}
	keys, err := s.fetch(ctx)
	if err != nil {
		s.lastFailure, s.lastErr = s.now(), err
		return nil, err
	}
	s.lastFetch = s.now()
	s.lastFailure, s.lastErr = time.Time{}, nil
	s.keys = keys
	s.logger.Debug("jwks refreshed", "url", s.url, "keys", len(keys))

	if key, ok := s.lookupLocked(kid); ok {
		return key, nil
	}
	return nil, fmt.Errorf("%w %q", errUnknownKey, kid)
}

func (s *jwksSource) lookup(kid string) (*rsa.PublicKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookupLocked(kid)
}

// lookupLocked finds kid in the cache. A token without a kid matches only
// when the set holds exactly one key.
func (s *jwksSource) lookupLocked(kid string) (*rsa.PublicKey, bool) {
	if kid == "" {
		if len(s.keys) != 1 {
			return nil, false
		}
		for _, k := range s.keys {
			return k, true
		}
	}
	key, ok := s.keys[kid]
	return key, ok
}

func (s *jwksSource) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create jwks request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch jwks: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSBytes))
	if err != nil {
		return nil, fmt.Errorf("read jwks: %w", err)
	}

	var set jose.JSONWebKeySet
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, jwk := range set.Keys {
		if jwk.Use != "" && jwk.Use != "sig" {
			continue
		}
		pub, ok := jwk.Key.(*rsa.PublicKey)
		if !ok {
			s.logger.Warn("skipping non-RSA jwk", "kid", jwk.KeyID, "alg", jwk.Algorithm)
			continue
		}
		keys[jwk.KeyID] = pub
	}
	if len(keys) == 0 {
		return nil, errors.New("jwks contains no usable RSA signing keys")
	}
	return keys, nil
}

package application

import (
	"context"
	"sync"

	"github.com/ericfisherdev/graphdesk/internal/domain/port/driven"
)

// RegistryClientProvider hands out per-user schema registry clients. A client
// is built from the user's decrypted API key on first use and cached until
// Invalidate is called, so key updates take effect on the next request.
type RegistryClientProvider struct {
	store   driven.APIKeyStore
	factory driven.SchemaRegistryFactory

	mu      sync.RWMutex
	clients map[string]driven.SchemaRegistry
	// gen increments on every Invalidate. A client built from a key read
	// before an invalidation is returned but not cached.
	gen uint64
}

// NewRegistryClientProvider creates a provider that reads keys from store and
// builds clients with factory.
func NewRegistryClientProvider(store driven.APIKeyStore, factory driven.SchemaRegistryFactory) *RegistryClientProvider {
	return &RegistryClientProvider{
		store:   store,
		factory: factory,
		clients: make(map[string]driven.SchemaRegistry),
	}
}

// Get returns the user's client. It returns ErrAPIKeyNotConfigured when the
// user has no stored key.
func (p *RegistryClientProvider) Get(ctx context.Context, userID string) (driven.SchemaRegistry, error) {
	p.mu.RLock()
	client, ok := p.clients[userID]
	gen := p.gen
	p.mu.RUnlock()
	if ok {
		return client, nil
	}

	key, err := p.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, ErrAPIKeyNotConfigured
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.clients[userID]; ok {
		return existing, nil
	}
	client = p.factory.ForAPIKey(key)
	if p.gen == gen {
		p.clients[userID] = client
	}
	return client, nil
}

// Invalidate drops the user's cached client.
func (p *RegistryClientProvider) Invalidate(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.clients, userID)
	p.gen++
}

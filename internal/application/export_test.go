package application

// HasClient reports whether a client is cached for the user.
func (p *RegistryClientProvider) HasClient(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.clients[userID]
	return ok
}

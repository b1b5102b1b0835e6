package application_test

import (
	"context"
	"sync"

	"github.com/ericfisherdev/graphdesk/internal/domain/model"
	"github.com/ericfisherdev/graphdesk/internal/domain/port/driven"
)

// --- APIKeyStore mock ---

type mockAPIKeyStore struct {
	mu      sync.Mutex
	keys    map[string]string
	getErr  error
	saveErr error
	gets    int
	nextID  int64
}

func newMockAPIKeyStore() *mockAPIKeyStore {
	return &mockAPIKeyStore{keys: map[string]string{}}
}

func (m *mockAPIKeyStore) Save(_ context.Context, userID, plaintext string) (model.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return model.APIKey{}, m.saveErr
	}
	m.nextID++
	m.keys[userID] = plaintext
	return model.APIKey{ID: m.nextID, UserID: userID}, nil
}

func (m *mockAPIKeyStore) Get(_ context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return "", m.getErr
	}
	return m.keys[userID], nil
}

func (m *mockAPIKeyStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, userID)
	return nil
}

func (m *mockAPIKeyStore) getCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gets
}

// --- SchemaRegistry mock ---

type mockRegistry struct {
	apiKey string

	graph        *model.Graph
	proposal     *model.Proposal
	organization *model.Organization
	variant      *model.Variant
	graphs       []model.Graph
	launches     []model.Launch
	err          error

	lastGraphID    string
	lastProposalID string
	lastStatus     model.ProposalStatus
	lastInput      model.CreateProposalInput
}

func (m *mockRegistry) CreateProposal(_ context.Context, graphID string, input model.CreateProposalInput) (*model.Proposal, error) {
	m.lastGraphID = graphID
	m.lastInput = input
	return m.proposal, m.err
}

func (m *mockRegistry) UpdateProposalStatus(_ context.Context, proposalID string, status model.ProposalStatus) (*model.Proposal, error) {
	m.lastProposalID = proposalID
	m.lastStatus = status
	return m.proposal, m.err
}

func (m *mockRegistry) GetGraph(_ context.Context, graphID string) (*model.Graph, error) {
	m.lastGraphID = graphID
	return m.graph, m.err
}

func (m *mockRegistry) ListOrganizationGraphs(_ context.Context, _ string) ([]model.Graph, error) {
	return m.graphs, m.err
}

func (m *mockRegistry) GetCurrentOrganization(_ context.Context) (*model.Organization, error) {
	return m.organization, m.err
}

func (m *mockRegistry) GetVariant(_ context.Context, graphID, _ string) (*model.Variant, error) {
	m.lastGraphID = graphID
	return m.variant, m.err
}

func (m *mockRegistry) ListProposalLaunches(_ context.Context, proposalID string) ([]model.Launch, error) {
	m.lastProposalID = proposalID
	return m.launches, m.err
}

// mockFactory returns template for every key, recording the keys it was asked for.
type mockFactory struct {
	mu       sync.Mutex
	template *mockRegistry
	keys     []string
}

func (f *mockFactory) ForAPIKey(apiKey string) driven.SchemaRegistry {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, apiKey)
	if f.template != nil {
		f.template.apiKey = apiKey
		return f.template
	}
	return &mockRegistry{apiKey: apiKey}
}

func (f *mockFactory) builtKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/ericfisherdev/graphdesk/internal/domain/model"
)

// RegistryService runs schema registry operations on behalf of a user, using
// the client built from that user's stored API key.
type RegistryService struct {
	provider *RegistryClientProvider
}

// NewRegistryService creates a RegistryService.
func NewRegistryService(provider *RegistryClientProvider) *RegistryService {
	return &RegistryService{provider: provider}
}

func required(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, name)
	}
	return nil
}

func (s *RegistryService) CreateProposal(ctx context.Context, userID, graphID string, input model.CreateProposalInput) (*model.Proposal, error) {
	if err := required("graph id", graphID); err != nil {
		return nil, err
	}
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	input.SourceVariant = strings.TrimSpace(input.SourceVariant)
	if err := required("display name", input.DisplayName); err != nil {
		return nil, err
	}
	if err := required("source variant", input.SourceVariant); err != nil {
		return nil, err
	}

	client, err := s.provider.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return client.CreateProposal(ctx, graphID, input)
}

func (s *RegistryService) UpdateProposalStatus(ctx context.Context, userID, proposalID string, status model.ProposalStatus) (*model.Proposal, error) {
	if err := required("proposal id", proposalID); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown proposal status %q", ErrInvalidInput, status)
	}

	client, err := s.provider.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return client.UpdateProposalStatus(ctx, proposalID, status)
}

func (s *RegistryService) GetGraph(ctx context.Context, userID, graphID string) (*model.Graph, error) {
	if err := required("graph id", graphID); err != nil {
		return nil, err
	}

	client, err := s.provider.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return client.GetGraph(ctx, graphID)
}

func (s *RegistryService) ListOrganizationGraphs(ctx context.Context, userID, orgID string) ([]model.Graph, error) {
	if err := required("organization id", orgID); err != nil {
		return nil, err
	}

	client, err := s.provider.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return client.ListOrganizationGraphs(ctx, orgID)
}

func (s *RegistryService) GetCurrentOrganization(ctx context.Context, userID string) (*model.Organization, error) {
	client, err := s.provider.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return client.GetCurrentOrganization(ctx)
}

func (s *RegistryService) GetVariant(ctx context.Context, userID, graphID, variantName string) (*model.Variant, error) {
	if err := required("graph id", graphID); err != nil {
		return nil, err
	}
	if err := required("variant name", variantName); err != nil {
		return nil, err
	}

	client, err := s.provider.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return client.GetVariant(ctx, graphID, variantName)
}

func (s *RegistryService) ListProposalLaunches(ctx context.Context, userID, proposalID string) ([]model.Launch, error) {
	if err := required("proposal id", proposalID); err != nil {
		return nil, err
	}

	client, err := s.provider.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return client.ListProposalLaunches(ctx, proposalID)
}

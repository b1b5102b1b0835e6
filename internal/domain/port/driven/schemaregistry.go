package driven

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ericfisherdev/graphdesk/internal/domain/model"
)

// ErrNotFound is returned when the registry answers with a null graph,
// variant, proposal or organization.
var ErrNotFound = errors.New("not found")

// RegistryError is an error reported by the schema registry. Errors holds the
// registry's GraphQL error objects exactly as received so callers can pass
// them through unchanged.
type RegistryError struct {
	Operation  string
	StatusCode int
	Message    string
	Errors     []json.RawMessage
}

func (e *RegistryError) Error() string {
	if e.StatusCode != 0 && e.StatusCode != 200 {
		return fmt.Sprintf("registry %s: HTTP %d: %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("registry %s: %s", e.Operation, e.Message)
}

// SchemaRegistry defines the driven port for the hosted schema registry.
// An implementation is bound to a single user's API key.
type SchemaRegistry interface {
	CreateProposal(ctx context.Context, graphID string, input model.CreateProposalInput) (*model.Proposal, error)
	UpdateProposalStatus(ctx context.Context, proposalID string, status model.ProposalStatus) (*model.Proposal, error)

	// GetGraph returns the graph with its variants (including subgraphs) and proposals.
	GetGraph(ctx context.Context, graphID string) (*model.Graph, error)
	ListOrganizationGraphs(ctx context.Context, orgID string) ([]model.Graph, error)
	// GetCurrentOrganization resolves the organization of the API key's owner.
	GetCurrentOrganization(ctx context.Context) (*model.Organization, error)
	GetVariant(ctx context.Context, graphID, variantName string) (*model.Variant, error)
	ListProposalLaunches(ctx context.Context, proposalID string) ([]model.Launch, error)
}

// SchemaRegistryFactory builds a SchemaRegistry bound to the given API key.
type SchemaRegistryFactory interface {
	ForAPIKey(apiKey string) SchemaRegistry
}

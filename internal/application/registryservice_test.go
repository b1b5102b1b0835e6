package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/graphdesk/internal/application"
	"github.com/ericfisherdev/graphdesk/internal/domain/model"
	"github.com/ericfisherdev/graphdesk/internal/domain/port/driven"
)

func newRegistryService(reg *mockRegistry, withKey bool) *application.RegistryService {
	store := newMockAPIKeyStore()
	if withKey {
		store.keys["user_1"] = "key-1"
	}
	provider := application.NewRegistryClientProvider(store, &mockFactory{template: reg})
	return application.NewRegistryService(provider)
}

func TestRegistryService_NoKeyConfigured(t *testing.T) {
	svc := newRegistryService(&mockRegistry{}, false)
	ctx := context.Background()

	_, err := svc.GetGraph(ctx, "user_1", "graph-a")
	assert.ErrorIs(t, err, application.ErrAPIKeyNotConfigured)

	_, err = svc.GetCurrentOrganization(ctx, "user_1")
	assert.ErrorIs(t, err, application.ErrAPIKeyNotConfigured)
}

func TestRegistryService_CreateProposal(t *testing.T) {
	reg := &mockRegistry{proposal: &model.Proposal{ID: "p-1", Status: model.ProposalStatusDraft}}
	svc := newRegistryService(reg, true)

	p, err := svc.CreateProposal(context.Background(), "user_1", "graph-a", model.CreateProposalInput{
		SourceVariant: " current ",
		DisplayName:   " Add reviews ",
		Description:   "body",
	})
	require.NoError(t, err)
	assert.Equal(t, "p-1", p.ID)
	assert.Equal(t, "graph-a", reg.lastGraphID)
	assert.Equal(t, model.CreateProposalInput{SourceVariant: "current", DisplayName: "Add reviews", Description: "body"}, reg.lastInput)
	assert.Equal(t, "key-1", reg.apiKey)
}

func TestRegistryService_CreateProposalValidation(t *testing.T) {
	svc := newRegistryService(&mockRegistry{}, true)
	ctx := context.Background()

	tests := []struct {
		name    string
		graphID string
		input   model.CreateProposalInput
	}{
		{"missing graph", "", model.CreateProposalInput{SourceVariant: "current", DisplayName: "x"}},
		{"missing display name", "graph-a", model.CreateProposalInput{SourceVariant: "current", DisplayName: "  "}},
		{"missing source variant", "graph-a", model.CreateProposalInput{DisplayName: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProposal(ctx, "user_1", tt.graphID, tt.input)
			assert.ErrorIs(t, err, application.ErrInvalidInput)
		})
	}
}

func TestRegistryService_UpdateProposalStatus(t *testing.T) {
	reg := &mockRegistry{proposal: &model.Proposal{ID: "p-1", Status: model.ProposalStatusApproved}}
	svc := newRegistryService(reg, true)
	ctx := context.Background()

	p, err := svc.UpdateProposalStatus(ctx, "user_1", "p-1", model.ProposalStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalStatusApproved, p.Status)
	assert.Equal(t, model.ProposalStatusApproved, reg.lastStatus)

	_, err = svc.UpdateProposalStatus(ctx, "user_1", "p-1", "MERGED")
	assert.ErrorIs(t, err, application.ErrInvalidInput)

	_, err = svc.UpdateProposalStatus(ctx, "user_1", "", model.ProposalStatusOpen)
	assert.ErrorIs(t, err, application.ErrInvalidInput)
}

func TestRegistryService_PassesRegistryErrorsThrough(t *testing.T) {
	upstream := &driven.RegistryError{Operation: "GetGraph", Message: "Invalid API key"}
	svc := newRegistryService(&mockRegistry{err: upstream}, true)

	_, err := svc.GetGraph(context.Background(), "user_1", "graph-a")
	assert.Same(t, upstream, err)
}

func TestRegistryService_ReadOperations(t *testing.T) {
	reg := &mockRegistry{
		graph:        &model.Graph{ID: "graph-a"},
		graphs:       []model.Graph{{ID: "graph-a"}, {ID: "graph-b"}},
		organization: &model.Organization{ID: "org-1"},
		variant:      &model.Variant{Name: "current"},
		launches:     []model.Launch{{ID: "l-1"}},
	}
	svc := newRegistryService(reg, true)
	ctx := context.Background()

	g, err := svc.GetGraph(ctx, "user_1", "graph-a")
	require.NoError(t, err)
	assert.Equal(t, "graph-a", g.ID)

	graphs, err := svc.ListOrganizationGraphs(ctx, "user_1", "org-1")
	require.NoError(t, err)
	assert.Len(t, graphs, 2)

	org, err := svc.GetCurrentOrganization(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "org-1", org.ID)

	v, err := svc.GetVariant(ctx, "user_1", "graph-a", "current")
	require.NoError(t, err)
	assert.Equal(t, "current", v.Name)

	launches, err := svc.ListProposalLaunches(ctx, "user_1", "p-1")
	require.NoError(t, err)
	assert.Len(t, launches, 1)
	assert.Equal(t, "p-1", reg.lastProposalID)
}

func TestRegistryService_ReadValidation(t *testing.T) {
	svc := newRegistryService(&mockRegistry{}, true)
	ctx := context.Background()

	_, err := svc.GetGraph(ctx, "user_1", " ")
	assert.ErrorIs(t, err, application.ErrInvalidInput)
	_, err = svc.ListOrganizationGraphs(ctx, "user_1", "")
	assert.ErrorIs(t, err, application.ErrInvalidInput)
	_, err = svc.GetVariant(ctx, "user_1", "graph-a", "")
	assert.ErrorIs(t, err, application.ErrInvalidInput)
	_, err = svc.ListProposalLaunches(ctx, "user_1", "")
	assert.ErrorIs(t, err, application.ErrInvalidInput)
}

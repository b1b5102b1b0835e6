package registry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ericfisherdev/graphdesk/internal/domain/model"
	"github.com/ericfisherdev/graphdesk/internal/domain/port/driven"
)

type proposalNode struct {
	ID            string    `json:"id"`
	DisplayName   string    `json:"displayName"`
	Description   string    `json:"description"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	SourceVariant *struct {
		Name string `json:"name"`
	} `json:"sourceVariant"`
}

func (n proposalNode) toModel() model.Proposal {
	p := model.Proposal{
		ID:          n.ID,
		DisplayName: n.DisplayName,
		Description: n.Description,
		Status:      model.ProposalStatus(n.Status),
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
	if n.SourceVariant != nil {
		p.SourceVariant = n.SourceVariant.Name
	}
	return p
}

type variantNode struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	IsProposal        bool   `json:"isProposal"`
	LatestPublication *struct {
		PublishedAt time.Time `json:"publishedAt"`
	} `json:"latestPublication"`
	Subgraphs []struct {
		Name     string `json:"name"`
		URL      string `json:"url"`
		Revision string `json:"revision"`
	} `json:"subgraphs"`
}

func (n variantNode) toModel(graphID string) model.Variant {
	v := model.Variant{
		ID:         n.ID,
		Name:       n.Name,
		GraphID:    graphID,
		IsProposal: n.IsProposal,
		Subgraphs:  make([]model.Subgraph, 0, len(n.Subgraphs)),
	}
	if n.LatestPublication != nil {
		published := n.LatestPublication.PublishedAt
		v.LatestPublishedAt = &published
	}
	for _, s := range n.Subgraphs {
		v.Subgraphs = append(v.Subgraphs, model.Subgraph{Name: s.Name, URL: s.URL, Revision: s.Revision})
	}
	return v
}

// CreateProposal opens a proposal on graphID against input.SourceVariant.
func (c *Client) CreateProposal(ctx context.Context, graphID string, input model.CreateProposalInput) (_ *model.Proposal, err error) {
	const op = "CreateProposal"
	defer c.observe(op, time.Now(), &err)

	var data struct {
		Graph *struct {
			CreateProposal json.RawMessage `json:"createProposal"`
		} `json:"graph"`
	}
	vars := map[string]any{
		"graphId": graphID,
		"input": map[string]any{
			"sourceVariantName": input.SourceVariant,
			"displayName":       input.DisplayName,
			"description":       input.Description,
		},
	}
	if err := c.do(ctx, op, createProposalMutation, vars, &data); err != nil {
		return nil, err
	}
	if data.Graph == nil {
		return nil, driven.ErrNotFound
	}

	var result struct {
		typedResult
		Proposal *proposalNode `json:"proposal"`
	}
	if err := json.Unmarshal(data.Graph.CreateProposal, &result); err != nil || result.Typename != "CreateProposalSuccess" || result.Proposal == nil {
		return nil, payloadError(op, data.Graph.CreateProposal)
	}

	p := result.Proposal.toModel()
	return &p, nil
}

// UpdateProposalStatus moves a proposal to status.
func (c *Client) UpdateProposalStatus(ctx context.Context, proposalID string, status model.ProposalStatus) (_ *model.Proposal, err error) {
	const op = "UpdateProposalStatus"
	defer c.observe(op, time.Now(), &err)

	var data struct {
		Proposal *struct {
			UpdateStatus json.RawMessage `json:"updateStatus"`
		} `json:"proposal"`
	}
	vars := map[string]any{"proposalId": proposalID, "status": string(status)}
	if err := c.do(ctx, op, updateProposalStatusMutation, vars, &data); err != nil {
		return nil, err
	}
	if data.Proposal == nil {
		return nil, driven.ErrNotFound
	}

	var result struct {
		typedResult
		proposalNode
	}
	if err := json.Unmarshal(data.Proposal.UpdateStatus, &result); err != nil || result.Typename != "Proposal" {
		return nil, payloadError(op, data.Proposal.UpdateStatus)
	}

	p := result.proposalNode.toModel()
	return &p, nil
}

// GetGraph returns the graph with its variants, their subgraphs, and its proposals.
func (c *Client) GetGraph(ctx context.Context, graphID string) (_ *model.Graph, err error) {
	const op = "GetGraph"
	defer c.observe(op, time.Now(), &err)

	var data struct {
		Graph *struct {
			ID        string        `json:"id"`
			Name      string        `json:"name"`
			Variants  []variantNode `json:"variants"`
			Proposals *struct {
				Proposals []proposalNode `json:"proposals"`
			} `json:"proposals"`
		} `json:"graph"`
	}
	if err := c.do(ctx, op, getGraphQuery, map[string]any{"graphId": graphID}, &data); err != nil {
		return nil, err
	}
	if data.Graph == nil {
		return nil, driven.ErrNotFound
	}

	g := &model.Graph{
		ID:        data.Graph.ID,
		Name:      data.Graph.Name,
		Variants:  make([]model.Variant, 0, len(data.Graph.Variants)),
		Proposals: []model.Proposal{},
	}
	for _, v := range data.Graph.Variants {
		g.Variants = append(g.Variants, v.toModel(g.ID))
	}
	if data.Graph.Proposals != nil {
		for _, p := range data.Graph.Proposals.Proposals {
			g.Proposals = append(g.Proposals, p.toModel())
		}
	}
	return g, nil
}

// ListOrganizationGraphs returns the graphs owned by orgID. Variants and
// proposals are not populated.
func (c *Client) ListOrganizationGraphs(ctx context.Context, orgID string) (_ []model.Graph, err error) {
	const op = "ListOrganizationGraphs"
	defer c.observe(op, time.Now(), &err)

	var data struct {
		Organization *struct {
			Graphs []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"graphs"`
		} `json:"organization"`
	}
	if err := c.do(ctx, op, listOrganizationGraphsQuery, map[string]any{"organizationId": orgID}, &data); err != nil {
		return nil, err
	}
	if data.Organization == nil {
		return nil, driven.ErrNotFound
	}

	graphs := make([]model.Graph, 0, len(data.Organization.Graphs))
	for _, g := range data.Organization.Graphs {
		graphs = append(graphs, model.Graph{ID: g.ID, Name: g.Name})
	}
	return graphs, nil
}

// GetCurrentOrganization returns the first organization the key's owner
// belongs to.
func (c *Client) GetCurrentOrganization(ctx context.Context) (_ *model.Organization, err error) {
	const op = "GetCurrentOrganization"
	defer c.observe(op, time.Now(), &err)

	var data struct {
		Me *struct {
			Memberships []struct {
				Account *struct {
					ID   string `json:"id"`
					Name string `json:"name"`
				} `json:"account"`
			} `json:"memberships"`
		} `json:"me"`
	}
	if err := c.do(ctx, op, getCurrentOrganizationQuery, nil, &data); err != nil {
		return nil, err
	}
	if data.Me == nil {
		return nil, driven.ErrNotFound
	}

	for _, m := range data.Me.Memberships {
		if m.Account != nil {
			return &model.Organization{ID: m.Account.ID, Name: m.Account.Name}, nil
		}
	}
	return nil, driven.ErrNotFound
}

// GetVariant returns one variant of graphID by name.
func (c *Client) GetVariant(ctx context.Context, graphID, variantName string) (_ *model.Variant, err error) {
	const op = "GetVariant"
	defer c.observe(op, time.Now(), &err)

	var data struct {
		Graph *struct {
			Variant *variantNode `json:"variant"`
		} `json:"graph"`
	}
	vars := map[string]any{"graphId": graphID, "name": variantName}
	if err := c.do(ctx, op, getVariantQuery, vars, &data); err != nil {
		return nil, err
	}
	if data.Graph == nil || data.Graph.Variant == nil {
		return nil, driven.ErrNotFound
	}

	v := data.Graph.Variant.toModel(graphID)
	return &v, nil
}

// ListProposalLaunches returns the launch history of a proposal's variant.
func (c *Client) ListProposalLaunches(ctx context.Context, proposalID string) (_ []model.Launch, err error) {
	const op = "ListProposalLaunches"
	defer c.observe(op, time.Now(), &err)

	var data struct {
		Proposal *struct {
			LaunchHistory []struct {
				ID          string     `json:"id"`
				Status      string     `json:"status"`
				CreatedAt   time.Time  `json:"createdAt"`
				CompletedAt *time.Time `json:"completedAt"`
			} `json:"launchHistory"`
		} `json:"proposal"`
	}
	if err := c.do(ctx, op, listProposalLaunchesQuery, map[string]any{"proposalId": proposalID}, &data); err != nil {
		return nil, err
	}
	if data.Proposal == nil {
		return nil, driven.ErrNotFound
	}

	launches := make([]model.Launch, 0, len(data.Proposal.LaunchHistory))
	for _, l := range data.Proposal.LaunchHistory {
		launches = append(launches, model.Launch{
			ID:          l.ID,
			Status:      l.Status,
			CreatedAt:   l.CreatedAt,
			CompletedAt: l.CompletedAt,
		})
	}
	return launches, nil
}

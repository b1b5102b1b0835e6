package model

import "time"

// Organization is a registry account the current user is a member of.
type Organization struct {
	ID   string
	Name string
}

// Graph is a registry graph with its variants and open proposals.
type Graph struct {
	ID        string
	Name      string
	Variants  []Variant
	Proposals []Proposal
}

// Variant is a named version of a graph. Proposal variants are created by the
// registry for each proposal and have IsProposal set.
type Variant struct {
	ID                string
	Name              string
	GraphID           string
	IsProposal        bool
	LatestPublishedAt *time.Time
	Subgraphs         []Subgraph
}

// Subgraph is a federated subgraph published to a variant.
type Subgraph struct {
	Name     string
	URL      string
	Revision string
}

// Proposal is a reviewable set of schema changes against a source variant.
type Proposal struct {
	ID            string
	DisplayName   string
	Description   string
	Status        ProposalStatus
	SourceVariant string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreateProposalInput holds the fields needed to open a new proposal.
type CreateProposalInput struct {
	SourceVariant string
	DisplayName   string
	Description   string
}

// Launch is a single launch of a proposal variant's composed schema.
type Launch struct {
	ID          string
	Status      string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

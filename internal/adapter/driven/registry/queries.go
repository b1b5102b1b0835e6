package registry

const proposalFields = `
fragment ProposalFields on Proposal {
	id
	displayName
	description
	status
	createdAt
	updatedAt
	sourceVariant {
		name
	}
}`

const variantFields = `
fragment VariantFields on GraphVariant {
	id
	name
	isProposal
	latestPublication {
		publishedAt
	}
	subgraphs {
		name
		url
		revision
	}
}`

const createProposalMutation = `mutation CreateProposal($graphId: ID!, $input: CreateProposalInput!) {
	graph(id: $graphId) {
		createProposal(input: $input) {
			__typename
			... on CreateProposalSuccess {
				proposal {
					...ProposalFields
				}
			}
			... on Error {
				message
			}
		}
	}
}` + proposalFields

const updateProposalStatusMutation = `mutation UpdateProposalStatus($proposalId: ID!, $status: ProposalStatus!) {
	proposal(id: $proposalId) {
		updateStatus(status: $status) {
			__typename
			... on Proposal {
				...ProposalFields
			}
			... on Error {
				message
			}
		}
	}
}` + proposalFields

const getGraphQuery = `query GetGraph($graphId: ID!) {
	graph(id: $graphId) {
		id
		name
		variants {
			...VariantFields
		}
		proposals {
			proposals {
				...ProposalFields
			}
		}
	}
}` + variantFields + proposalFields

const listOrganizationGraphsQuery = `query ListOrganizationGraphs($organizationId: ID!) {
	organization(id: $organizationId) {
		graphs {
			id
			name
		}
	}
}`

const getCurrentOrganizationQuery = `query GetCurrentOrganization {
	me {
		... on User {
			memberships {
				account {
					id
					name
				}
			}
		}
	}
}`

const getVariantQuery = `query GetVariant($graphId: ID!, $name: String!) {
	graph(id: $graphId) {
		variant(name: $name) {
			...VariantFields
		}
	}
}` + variantFields

const listProposalLaunchesQuery = `query ListProposalLaunches($proposalId: ID!) {
	proposal(id: $proposalId) {
		launchHistory {
			id
			status
			createdAt
			completedAt
		}
	}
}`

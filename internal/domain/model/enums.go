package model

// ProposalStatus represents the review state of a proposal in the registry.
type ProposalStatus string

const (
	ProposalStatusDraft       ProposalStatus = "DRAFT"
	ProposalStatusOpen        ProposalStatus = "OPEN"
	ProposalStatusApproved    ProposalStatus = "APPROVED"
	ProposalStatusImplemented ProposalStatus = "IMPLEMENTED"
	ProposalStatusClosed      ProposalStatus = "CLOSED"
)

// Valid reports whether s is one of the statuses the registry accepts.
func (s ProposalStatus) Valid() bool {
	switch s {
	case ProposalStatusDraft, ProposalStatusOpen, ProposalStatusApproved,
		ProposalStatusImplemented, ProposalStatusClosed:
		return true
	}
	return false
}

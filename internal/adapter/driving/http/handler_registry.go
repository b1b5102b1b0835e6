package httphandler

import (
	"net/http"

	"github.com/ericfisherdev/graphdesk/internal/domain/model"
)

// GetCurrentOrganization returns the organization of the caller's API key owner.
func (h *Handler) GetCurrentOrganization(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	org, err := h.registry.GetCurrentOrganization(r.Context(), session.UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, OrganizationResponse{ID: org.ID, Name: org.Name})
}

// ListOrganizationGraphs returns the graphs of an organization.
func (h *Handler) ListOrganizationGraphs(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	graphs, err := h.registry.ListOrganizationGraphs(r.Context(), session.UserID, r.PathValue("orgID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := make([]GraphResponse, 0, len(graphs))
	for _, g := range graphs {
		resp = append(resp, toGraphResponse(g))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetGraph returns a graph with its variants, subgraphs and proposals.
func (h *Handler) GetGraph(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	graph, err := h.registry.GetGraph(r.Context(), session.UserID, r.PathValue("graphID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toGraphResponse(*graph))
}

// GetVariant returns a single variant of a graph.
func (h *Handler) GetVariant(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	variant, err := h.registry.GetVariant(r.Context(), session.UserID, r.PathValue("graphID"), r.PathValue("variant"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toVariantResponse(*variant))
}

// CreateProposal opens a new proposal on a graph.
func (h *Handler) CreateProposal(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	var req CreateProposalRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	proposal, err := h.registry.CreateProposal(r.Context(), session.UserID, r.PathValue("graphID"), model.CreateProposalInput{
		SourceVariant: req.SourceVariant,
		DisplayName:   req.DisplayName,
		Description:   req.Description,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProposalResponse(*proposal))
}

// UpdateProposalStatus changes a proposal's review status.
func (h *Handler) UpdateProposalStatus(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	var req UpdateProposalStatusRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	proposal, err := h.registry.UpdateProposalStatus(r.Context(), session.UserID, r.PathValue("proposalID"), model.ProposalStatus(req.Status))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toProposalResponse(*proposal))
}

// ListProposalLaunches returns the launch history of a proposal.
func (h *Handler) ListProposalLaunches(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	launches, err := h.registry.ListProposalLaunches(r.Context(), session.UserID, r.PathValue("proposalID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := make([]LaunchResponse, 0, len(launches))
	for _, l := range launches {
		resp = append(resp, toLaunchResponse(l))
	}
	writeJSON(w, http.StatusOK, resp)
}

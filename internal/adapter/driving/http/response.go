package httphandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ericfisherdev/graphdesk/internal/application"
	"github.com/ericfisherdev/graphdesk/internal/domain/model"
	"github.com/ericfisherdev/graphdesk/internal/domain/port/driven"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps an application or registry error to a response.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var rerr *driven.RegistryError
	switch {
	case errors.Is(err, application.ErrInvalidInput), errors.Is(err, application.ErrEmptyAPIKey):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, application.ErrAPIKeyNotConfigured):
		writeError(w, http.StatusPreconditionFailed, "registry API key not configured")
	case errors.Is(err, driven.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, driven.ErrEncryptionKeyNotSet):
		writeError(w, http.StatusServiceUnavailable, "API key storage is unavailable: ENCRYPTION_KEY is not set")
	case errors.As(err, &rerr):
		h.logger.Warn("registry error", "operation", rerr.Operation, "status", rerr.StatusCode, "error", rerr.Message, "request_id", requestIDFromContext(r.Context()))
		errs := rerr.Errors
		if errs == nil {
			errs = []json.RawMessage{}
		}
		writeJSON(w, http.StatusBadGateway, registryErrorResponse{Error: rerr.Message, Errors: errs})
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "request_id", requestIDFromContext(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// registryErrorResponse carries the registry's own error objects unchanged.
type registryErrorResponse struct {
	Error  string            `json:"error"`
	Errors []json.RawMessage `json:"errors"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// SaveAPIKeyRequest is the JSON body for PUT /api/v1/apikey.
type SaveAPIKeyRequest struct {
	APIKey string `json:"api_key"`
}

// APIKeyStatusResponse describes the caller's stored key without revealing it.
type APIKeyStatusResponse struct {
	Configured bool   `json:"configured"`
	Masked     string `json:"masked,omitempty"`
}

// CreateProposalRequest is the JSON body for creating a proposal.
type CreateProposalRequest struct {
	SourceVariant string `json:"source_variant"`
	DisplayName   string `json:"display_name"`
	Description   string `json:"description"`
}

// UpdateProposalStatusRequest is the JSON body for changing a proposal's status.
type UpdateProposalStatusRequest struct {
	Status string `json:"status"`
}

type OrganizationResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type GraphResponse struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Variants  []VariantResponse  `json:"variants"`
	Proposals []ProposalResponse `json:"proposals"`
}

type VariantResponse struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	GraphID           string             `json:"graph_id"`
	IsProposal        bool               `json:"is_proposal"`
	LatestPublishedAt *string            `json:"latest_published_at"`
	Subgraphs         []SubgraphResponse `json:"subgraphs"`
}

type SubgraphResponse struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Revision string `json:"revision"`
}

// ProposalResponse is the JSON representation of a proposal. Description is
// returned raw and as sanitized HTML.
type ProposalResponse struct {
	ID              string `json:"id"`
	DisplayName     string `json:"display_name"`
	Description     string `json:"description"`
	DescriptionHTML string `json:"description_html"`
	Status          string `json:"status"`
	SourceVariant   string `json:"source_variant"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

type LaunchResponse struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	CompletedAt *string `json:"completed_at"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func toAPIKeyStatusResponse(s application.APIKeyStatus) APIKeyStatusResponse {
	return APIKeyStatusResponse{Configured: s.Configured, Masked: s.Masked}
}

// toGraphResponse converts a domain Graph. Nil variant and proposal lists
// become empty arrays.
func toGraphResponse(g model.Graph) GraphResponse {
	resp := GraphResponse{
		ID:        g.ID,
		Name:      g.Name,
		Variants:  make([]VariantResponse, 0, len(g.Variants)),
		Proposals: make([]ProposalResponse, 0, len(g.Proposals)),
	}
	for _, v := range g.Variants {
		resp.Variants = append(resp.Variants, toVariantResponse(v))
	}
	for _, p := range g.Proposals {
		resp.Proposals = append(resp.Proposals, toProposalResponse(p))
	}
	return resp
}

func toVariantResponse(v model.Variant) VariantResponse {
	resp := VariantResponse{
		ID:                v.ID,
		Name:              v.Name,
		GraphID:           v.GraphID,
		IsProposal:        v.IsProposal,
		LatestPublishedAt: formatTimePtr(v.LatestPublishedAt),
		Subgraphs:         make([]SubgraphResponse, 0, len(v.Subgraphs)),
	}
	for _, s := range v.Subgraphs {
		resp.Subgraphs = append(resp.Subgraphs, SubgraphResponse{Name: s.Name, URL: s.URL, Revision: s.Revision})
	}
	return resp
}

func toProposalResponse(p model.Proposal) ProposalResponse {
	return ProposalResponse{
		ID:              p.ID,
		DisplayName:     p.DisplayName,
		Description:     p.Description,
		DescriptionHTML: renderMarkdown(p.Description),
		Status:          string(p.Status),
		SourceVariant:   p.SourceVariant,
		CreatedAt:       formatTime(p.CreatedAt),
		UpdatedAt:       formatTime(p.UpdatedAt),
	}
}

func toLaunchResponse(l model.Launch) LaunchResponse {
	return LaunchResponse{
		ID:          l.ID,
		Status:      l.Status,
		CreatedAt:   formatTime(l.CreatedAt),
		CompletedAt: formatTimePtr(l.CompletedAt),
	}
}

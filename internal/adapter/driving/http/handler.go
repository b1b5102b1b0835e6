// Package httphandler is the REST driving adapter.
package httphandler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ericfisherdev/graphdesk/internal/application"
	"github.com/ericfisherdev/graphdesk/internal/domain/port/driven"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	apiKeys       *application.APIKeyService
	registry      *application.RegistryService
	verifier      driven.SessionVerifier
	sessionCookie string
	gatherer      prometheus.Gatherer
	logger        *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. gatherer may
// be nil, in which case /metrics is not registered.
func NewHandler(
	apiKeys *application.APIKeyService,
	registry *application.RegistryService,
	verifier driven.SessionVerifier,
	sessionCookie string,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		apiKeys:       apiKeys,
		registry:      registry,
		verifier:      verifier,
		sessionCookie: sessionCookie,
		gatherer:      gatherer,
		logger:        logger,
	}
}

// RegisterAPIRoutes registers all REST API routes on mux. Everything except
// health and metrics requires a valid session.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/health", h.Health)
	if h.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}

	mux.Handle("GET /api/v1/apikey", h.requireSession(h.GetAPIKey))
	mux.Handle("PUT /api/v1/apikey", h.requireSession(h.SaveAPIKey))
	mux.Handle("DELETE /api/v1/apikey", h.requireSession(h.DeleteAPIKey))

	mux.Handle("GET /api/v1/me/organization", h.requireSession(h.GetCurrentOrganization))
	mux.Handle("GET /api/v1/organizations/{orgID}/graphs", h.requireSession(h.ListOrganizationGraphs))
	mux.Handle("GET /api/v1/graphs/{graphID}", h.requireSession(h.GetGraph))
	mux.Handle("GET /api/v1/graphs/{graphID}/variants/{variant}", h.requireSession(h.GetVariant))
	mux.Handle("POST /api/v1/graphs/{graphID}/proposals", h.requireSession(h.CreateProposal))
	mux.Handle("PATCH /api/v1/proposals/{proposalID}/status", h.requireSession(h.UpdateProposalStatus))
	mux.Handle("GET /api/v1/proposals/{proposalID}/launches", h.requireSession(h.ListProposalLaunches))
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

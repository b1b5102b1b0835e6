package httphandler

import (
	"encoding/json"
	"net/http"
)

// GetAPIKey reports whether the caller has a stored registry API key.
func (h *Handler) GetAPIKey(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	status, err := h.apiKeys.Status(r.Context(), session.UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAPIKeyStatusResponse(status))
}

// SaveAPIKey stores the caller's registry API key, replacing any previous one.
func (h *Handler) SaveAPIKey(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	var req SaveAPIKeyRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := h.apiKeys.Save(r.Context(), session.UserID, req.APIKey)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAPIKeyStatusResponse(status))
}

// DeleteAPIKey removes the caller's stored API key.
func (h *Handler) DeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	if err := h.apiKeys.Delete(r.Context(), session.UserID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

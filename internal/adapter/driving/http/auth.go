package httphandler

import (
	"context"
	"net/http"
	"strings"

	"github.com/ericfisherdev/graphdesk/internal/domain/model"
)

type sessionKey struct{}

// unauthorizedBody is written verbatim for every rejected session.
const unauthorizedBody = `{"error":"Unauthorized"}`

// requireSession verifies the caller's session token before calling next.
// The token is read from an "Authorization: Bearer" header, falling back to
// the session cookie.
func (h *Handler) requireSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.sessionToken(r)
		if token == "" {
			writeUnauthorized(w)
			return
		}

		session, err := h.verifier.Verify(r.Context(), token)
		if err != nil {
			h.logger.Debug("session rejected", "path", r.URL.Path, "request_id", requestIDFromContext(r.Context()), "error", err)
			writeUnauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, session)
		next(w, r.WithContext(ctx))
	})
}

func (h *Handler) sessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, token, ok := strings.Cut(auth, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(h.sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// sessionFromContext returns the session stored by requireSession.
func sessionFromContext(ctx context.Context) (model.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(model.Session)
	return s, ok
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(unauthorizedBody))
}

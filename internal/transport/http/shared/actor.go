package shared

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"perfboard/internal/domain/auth"
	"perfboard/internal/domain/domainerr"
	"perfboard/internal/platform/requestctx"
	"perfboard/internal/transport/http/api"
	"perfboard/internal/transport/http/middleware"
)

// Actor returns the authenticated caller or writes a 401.
func Actor(w http.ResponseWriter, r *http.Request) (auth.UserContext, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.OrganizationID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestctx.GetRequestID(r.Context()))
		return auth.UserContext{}, false
	}
	return user, true
}

// PathID returns the named path parameter when it is a UUID. Any other value
// cannot match a stored row, so it answers 404 through FailDomain, using
// notFound to build the error when given.
func PathID(w http.ResponseWriter, r *http.Request, name string, notFound func(id string) error) (string, bool) {
	id := chi.URLParam(r, name)
	if _, err := uuid.Parse(id); err != nil {
		var cause error = domainerr.ErrNotFound
		if notFound != nil {
			cause = notFound(id)
		}
		FailDomain(w, cause, requestctx.GetRequestID(r.Context()))
		return "", false
	}
	return id, true
}

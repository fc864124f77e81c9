package authhandler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfboard/internal/domain/auth"
	"perfboard/internal/transport/http/api"
	"perfboard/internal/transport/http/middleware"
	"perfboard/internal/transport/http/shared"
)

type Service interface {
	Login(ctx context.Context, email, password string) (auth.Session, error)
}

type Handler struct {
	Service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.HandleLogin)
		r.Get("/me", h.HandleMe)
	})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}

	session, err := h.Service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		shared.FailDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, session, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	api.Success(w, map[string]string{
		"userId":         user.UserID,
		"organizationId": user.OrganizationID,
		"role":           user.Role,
	}, middleware.GetRequestID(r.Context()))
}

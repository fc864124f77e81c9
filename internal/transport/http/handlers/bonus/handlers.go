package bonushandler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"perfboard/internal/domain/audit"
	"perfboard/internal/domain/auth"
	"perfboard/internal/domain/bonus"
	"perfboard/internal/domain/evaluation"
	"perfboard/internal/domain/period"
	"perfboard/internal/transport/http/api"
	"perfboard/internal/transport/http/middleware"
	"perfboard/internal/transport/http/shared"
)

type Service interface {
	Config(ctx context.Context, orgID string) (bonus.Config, error)
	UpdateConfig(ctx context.Context, orgID string, cfg bonus.Config) (bonus.Config, error)
	Monthly(ctx context.Context, orgID string, p period.Period, mode evaluation.Mode) ([]bonus.Result, error)
}

type Handler struct {
	Service Service
	Perms   middleware.PermissionStore
	Audit   shared.Auditor
	now     func() time.Time
}

func NewHandler(service Service, perms middleware.PermissionStore, auditor shared.Auditor) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditor, now: time.Now}
}

type reportResponse struct {
	Period  string         `json:"period"`
	Strict  bool           `json:"strict"`
	Results []bonus.Result `json:"results"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermBonusRead, h.Perms)).Get("/bonus", h.handleReport)
	r.With(middleware.RequirePermission(auth.PermBonusRead, h.Perms)).Get("/settings/bonus", h.handleConfig)
	r.With(middleware.RequirePermission(auth.PermSettingsWrite, h.Perms)).Put("/settings/bonus", h.handleUpdateConfig)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	p, err := shared.QueryPeriod(r, "period", h.now())
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}
	mode := shared.QueryMode(r)
	results, err := h.Service.Monthly(r.Context(), user.OrganizationID, p, mode)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}
	api.Success(w, reportResponse{Period: p.String(), Strict: mode == evaluation.ModeStrict, Results: results}, requestID)
}

func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}

	cfg, err := h.Service.Config(r.Context(), user.OrganizationID)
	if err != nil {
		shared.FailDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, cfg, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var payload bonus.Config
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}

	before, err := h.Service.Config(r.Context(), user.OrganizationID)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}
	after, err := h.Service.UpdateConfig(r.Context(), user.OrganizationID, payload)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}

	shared.Audit(r, h.Audit, user, audit.ActionBonusSettings, "bonus_settings", user.OrganizationID, before, after)
	api.Success(w, after, requestID)
}

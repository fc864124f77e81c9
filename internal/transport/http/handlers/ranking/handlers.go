package rankinghandler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"perfboard/internal/domain/audit"
	"perfboard/internal/domain/auth"
	"perfboard/internal/domain/domainerr"
	"perfboard/internal/domain/employees"
	"perfboard/internal/domain/period"
	"perfboard/internal/domain/ranking"
	"perfboard/internal/transport/http/api"
	"perfboard/internal/transport/http/middleware"
	"perfboard/internal/transport/http/shared"
)

type Service interface {
	Leaderboard(ctx context.Context, orgID string, p period.Period) ([]ranking.Entry, ranking.Settings, error)
	Settings(ctx context.Context, orgID string) (ranking.Settings, error)
	UpdateSettings(ctx context.Context, orgID string, settings ranking.Settings) (ranking.Settings, error)
}

// Directory resolves the employee record behind a user account.
type Directory interface {
	ByUserID(ctx context.Context, orgID, userID string) (employees.Employee, error)
}

type Handler struct {
	Service   Service
	Directory Directory
	Perms     middleware.PermissionStore
	Audit     shared.Auditor
	now       func() time.Time
}

func NewHandler(service Service, directory Directory, perms middleware.PermissionStore, auditor shared.Auditor) *Handler {
	return &Handler{Service: service, Directory: directory, Perms: perms, Audit: auditor, now: time.Now}
}

type leaderboardResponse struct {
	Period     string          `json:"period"`
	TieBreaker string          `json:"tieBreaker"`
	Restricted bool            `json:"restricted"`
	Entries    []ranking.Entry `json:"entries"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermRankingRead, h.Perms)).Get("/ranking", h.handleLeaderboard)
	r.With(middleware.RequirePermission(auth.PermRankingRead, h.Perms)).Get("/settings/ranking", h.handleSettings)
	r.With(middleware.RequirePermission(auth.PermSettingsWrite, h.Perms)).Put("/settings/ranking", h.handleUpdateSettings)
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
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
	entries, settings, err := h.Service.Leaderboard(r.Context(), user.OrganizationID, p)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}

	restricted := !auth.Privileged(user.Role) && !settings.PublicViewEnabled
	if restricted {
		viewerID, err := h.viewerEmployeeID(r.Context(), user)
		if err != nil {
			shared.FailDomain(w, err, requestID)
			return
		}
		entries = ranking.VisibleTo(entries, settings, viewerID, true)
	}

	api.Success(w, leaderboardResponse{
		Period:     p.String(),
		TieBreaker: settings.TieBreaker,
		Restricted: restricted,
		Entries:    entries,
	}, requestID)
}

// viewerEmployeeID returns "" for accounts without an employee record.
func (h *Handler) viewerEmployeeID(ctx context.Context, user auth.UserContext) (string, error) {
	if h.Directory == nil {
		return "", nil
	}
	emp, err := h.Directory.ByUserID(ctx, user.OrganizationID, user.UserID)
	if errors.Is(err, domainerr.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return emp.ID, nil
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}

	settings, err := h.Service.Settings(r.Context(), user.OrganizationID)
	if err != nil {
		shared.FailDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, settings, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())

	var payload ranking.Settings
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}

	before, err := h.Service.Settings(r.Context(), user.OrganizationID)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}
	after, err := h.Service.UpdateSettings(r.Context(), user.OrganizationID, payload)
	if err != nil {
		shared.FailDomain(w, err, requestID)
		return
	}

	shared.Audit(r, h.Audit, user, audit.ActionRankingSettings, "ranking_settings", user.OrganizationID, before, after)
	api.Success(w, after, requestID)
}
